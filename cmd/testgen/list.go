package testgen

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/testgen/internal/fsops"
)

func newListCommand() *cobra.Command {
	options := &selectionOptions{}

	command := &cobra.Command{
		Use:   listCommandUse,
		Short: listCommandShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListCommand(cmd, *options)
		},
	}
	options.bind(command.Flags())

	return command
}

func runListCommand(command *cobra.Command, options selectionOptions) error {
	rootConfiguration, err := loadRootConfiguration(options.configPath)
	if err != nil {
		return err
	}
	rootConfiguration = options.apply(command.Flags(), rootConfiguration)
	if validationErr := rootConfiguration.Validate(); validationErr != nil {
		return fmt.Errorf(effectiveConfigurationErrorFormat, validationErr)
	}

	logger, loggerErr := newLogger(rootConfiguration.Logging, command.ErrOrStderr())
	if loggerErr != nil {
		return loggerErr
	}
	defer func() { _ = logger.Sync() }()

	fileSelector, selectorErr := buildSelector(rootConfiguration.Selection, fsops.NewOS(), logger)
	if selectorErr != nil {
		return selectorErr
	}
	files, selectErr := fileSelector.Select(command.Context())
	if selectErr != nil {
		logger.Error("select files failed", zap.Error(selectErr))
		return nil
	}

	outputWriter := command.OutOrStdout()
	for _, file := range files {
		if _, writeErr := fmt.Fprintln(outputWriter, file); writeErr != nil {
			return fmt.Errorf("write file listing: %w", writeErr)
		}
	}
	return nil
}
