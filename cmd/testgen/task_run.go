package testgen

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/testgen/internal/fsops"
	"github.com/temirov/testgen/internal/llm"
	"github.com/temirov/testgen/internal/pipeline"
)

func runTestGeneration(command *cobra.Command, options runCommandOptions) error {
	rootConfiguration, err := loadRootConfiguration(options.configPath)
	if err != nil {
		return err
	}
	rootConfiguration = applyRunOverrides(command.Flags(), options, rootConfiguration)
	if validationErr := rootConfiguration.Validate(); validationErr != nil {
		return fmt.Errorf(effectiveConfigurationErrorFormat, validationErr)
	}

	logger, loggerErr := newLogger(rootConfiguration.Logging, command.ErrOrStderr())
	if loggerErr != nil {
		return loggerErr
	}
	defer func() { _ = logger.Sync() }()

	apiKey, apiKeyErr := resolveAPIKey(rootConfiguration.Service)
	if apiKeyErr != nil {
		return apiKeyErr
	}
	effectiveTimeout := resolveEffectiveTimeout(command.Flags(), options, rootConfiguration)

	executionContext := command.Context()
	client, clientErr := llm.NewClient(executionContext, llm.Settings{
		Provider:    rootConfiguration.Service.Provider,
		BaseURL:     rootConfiguration.Service.BaseURL,
		Model:       rootConfiguration.Service.Model,
		APIKey:      apiKey,
		MaxTokens:   rootConfiguration.Service.MaxTokens,
		Temperature: rootConfiguration.Service.Temperature,
		Timeout:     effectiveTimeout,
	})
	if clientErr != nil {
		return fmt.Errorf(clientConstructionErrorFormat, rootConfiguration.Service.Provider, clientErr)
	}

	task, taskErr := buildUnitTestTask(rootConfiguration, fsops.NewOS(), logger, options.dryRun)
	if taskErr != nil {
		return taskErr
	}

	runner := pipeline.Runner{
		Client: client,
		Options: pipeline.RunOptions{
			Timeout:       effectiveTimeout,
			MaxIterations: rootConfiguration.Defaults.MaxIterations,
			DryRun:        options.dryRun,
		},
		Logger: logger,
	}
	logger.Info("starting run",
		zap.String("strategy", rootConfiguration.Selection.Strategy),
		zap.String("root", rootConfiguration.Selection.Root),
		zap.String("provider", rootConfiguration.Service.Provider),
		zap.String("model", rootConfiguration.Service.Model),
		zap.Duration("timeout", effectiveTimeout),
		zap.Bool("dry_run", options.dryRun))

	report, runErr := runner.Run(executionContext, task)
	report.Strategy = rootConfiguration.Selection.Strategy
	if writeErr := writeReport(command.OutOrStdout(), report, options.format); writeErr != nil {
		return fmt.Errorf(writeReportErrorFormat, writeErr)
	}
	if runErr != nil {
		return fmt.Errorf(runPipelineErrorFormat, task.Name(), runErr)
	}

	failedCount := report.Count(pipeline.OutcomeFailed)
	if options.strict && failedCount > 0 {
		return fmt.Errorf(strictFailureErrorFormat, failedCount, len(report.Files))
	}
	return nil
}
