package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// FileResult records what happened to one selected file.
type FileResult struct {
	Path      string        `json:"path" yaml:"path"`
	Functions []string      `json:"functions,omitempty" yaml:"functions,omitempty"`
	TestPath  string        `json:"test_path,omitempty" yaml:"test_path,omitempty"`
	Outcome   Outcome       `json:"outcome" yaml:"outcome"`
	Stage     string        `json:"stage,omitempty" yaml:"stage,omitempty"`
	Reason    string        `json:"reason,omitempty" yaml:"reason,omitempty"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
}

// Report summarizes one run.
type Report struct {
	RunID      string       `json:"run_id" yaml:"run_id"`
	Pipeline   string       `json:"pipeline" yaml:"pipeline"`
	Strategy   string       `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	DryRun     bool         `json:"dry_run" yaml:"dry_run"`
	Truncated  bool         `json:"truncated" yaml:"truncated"`
	StartedAt  time.Time    `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time    `json:"finished_at" yaml:"finished_at"`
	Files      []FileResult `json:"files" yaml:"files"`
}

func newReport(pipelineName string, dryRun bool) Report {
	return Report{
		RunID:     uuid.NewString(),
		Pipeline:  pipelineName,
		DryRun:    dryRun,
		StartedAt: time.Now().UTC(),
		Files:     []FileResult{},
	}
}

// Count returns how many files ended with the given outcome.
func (r Report) Count(outcome Outcome) int {
	count := 0
	for _, file := range r.Files {
		if file.Outcome == outcome {
			count++
		}
	}
	return count
}

// Summary renders a one-line human readable tally.
func (r Report) Summary() string {
	return fmt.Sprintf("processed %d files: %d succeeded, %d skipped, %d failed",
		len(r.Files), r.Count(OutcomeSucceeded), r.Count(OutcomeSkipped), r.Count(OutcomeFailed))
}
