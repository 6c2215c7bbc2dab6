package testgen

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/temirov/testgen/internal/config"
)

type runCommandOptions struct {
	selectionOptions
	provider      string
	baseURL       string
	model         string
	timeout       time.Duration
	maxIterations int
	dryRun        bool
	format        string
	strict        bool
}

func newRunCommand() *cobra.Command {
	options := &runCommandOptions{format: reportFormatText}

	command := &cobra.Command{
		Use:   runCommandUse,
		Short: runCommandShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTestGeneration(cmd, *options)
		},
	}

	flags := command.Flags()
	options.selectionOptions.bind(flags)
	flags.Var(newEnumValue(&options.provider, config.ProviderOllama, config.ProviderOpenAI), providerFlagName, providerFlagUsage)
	flags.StringVar(&options.baseURL, baseURLFlagName, "", baseURLFlagUsage)
	flags.StringVar(&options.model, modelFlagName, "", modelFlagUsage)
	flags.DurationVar(&options.timeout, timeoutFlagName, 0, timeoutFlagUsage)
	flags.IntVar(&options.maxIterations, maxIterationsFlagName, 0, maxIterationsFlagUsage)
	flags.Var(newEnumValue(&options.format, reportFormatText, reportFormatYAML, reportFormatJSON), formatFlagName, formatFlagUsage)
	flags.BoolVar(&options.strict, strictFlagName, false, strictFlagUsage)
	flags.Var(newBoolChoiceValue(&options.dryRun), dryRunFlagName, dryRunFlagUsage)
	if dryRunFlag := flags.Lookup(dryRunFlagName); dryRunFlag != nil {
		dryRunFlag.NoOptDefVal = "true"
		dryRunFlag.DefValue = "false"
	}

	return command
}

// applyRunOverrides layers changed flags over the configuration file.
func applyRunOverrides(flags *pflag.FlagSet, options runCommandOptions, root config.Root) config.Root {
	root = options.selectionOptions.apply(flags, root)
	if flagChanged(flags, providerFlagName) {
		root.Service.Provider = options.provider
	}
	if flagChanged(flags, baseURLFlagName) {
		root.Service.BaseURL = options.baseURL
	}
	if flagChanged(flags, modelFlagName) {
		root.Service.Model = options.model
	}
	if flagChanged(flags, maxIterationsFlagName) && options.maxIterations > 0 {
		root.Defaults.MaxIterations = options.maxIterations
	}
	return root
}

// resolveEffectiveTimeout prefers a positive --timeout over defaults.timeout_seconds.
func resolveEffectiveTimeout(flags *pflag.FlagSet, options runCommandOptions, root config.Root) time.Duration {
	if flagChanged(flags, timeoutFlagName) && options.timeout > 0 {
		return options.timeout
	}
	return root.Timeout()
}
