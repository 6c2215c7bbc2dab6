package testgen

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/temirov/testgen/internal/pipeline"
)

func writeReport(output io.Writer, report pipeline.Report, format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", reportFormatText:
		return writeTextReport(output, report)
	case reportFormatYAML:
		encoder := yaml.NewEncoder(output)
		encoder.SetIndent(2)
		if err := encoder.Encode(report); err != nil {
			return err
		}
		return encoder.Close()
	case reportFormatJSON:
		encoder := json.NewEncoder(output)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	default:
		return fmt.Errorf(unknownReportFormatErrorFormat, format)
	}
}

func writeTextReport(output io.Writer, report pipeline.Report) error {
	table := tabwriter.NewWriter(output, 0, 0, 2, ' ', 0)
	for _, file := range report.Files {
		if _, err := fmt.Fprintf(table, "%s\t%s\t%s\t%s\n", file.Outcome, file.Path, describeResult(file), file.Duration.Round(time.Millisecond)); err != nil {
			return err
		}
	}
	if err := table.Flush(); err != nil {
		return err
	}

	summary := report.Summary()
	if report.DryRun {
		summary += " (dry run)"
	}
	if report.Truncated {
		summary += " (stopped at iteration limit)"
	}
	_, err := fmt.Fprintf(output, "%s [run %s, strategy=%s]\n", summary, report.RunID, dashIfEmpty(report.Strategy))
	return err
}

func describeResult(file pipeline.FileResult) string {
	switch file.Outcome {
	case pipeline.OutcomeSucceeded:
		return fmt.Sprintf("-> %s (%s)", file.TestPath, strings.Join(file.Functions, ", "))
	case pipeline.OutcomeFailed:
		return fmt.Sprintf("%s: %s", file.Stage, file.Reason)
	default:
		return dashIfEmpty(file.Reason)
	}
}

func dashIfEmpty(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
