package testgen

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/temirov/testgen/internal/config"
)

func loadRootConfiguration(configurationPath string) (config.Root, error) {
	configurationLoader, loaderErr := config.NewDefaultRootConfigurationLoader()
	if loaderErr != nil {
		return config.Root{}, fmt.Errorf(configurationLoaderInitializationErrorFormat, loaderErr)
	}
	configurationSource, sourceErr := configurationLoader.Load(configurationPath)
	if sourceErr != nil {
		return config.Root{}, fmt.Errorf(configurationSourceResolutionErrorFormat, sourceErr)
	}
	rootConfiguration, loadErr := config.LoadRoot(configurationSource)
	if loadErr != nil {
		return config.Root{}, fmt.Errorf(rootConfigurationLoadErrorFormat, configurationSource.Reference, loadErr)
	}
	return rootConfiguration, nil
}

// selectionOptions are the flags shared by run and list.
type selectionOptions struct {
	configPath string
	strategy   string
	root       string
	ref        string
}

func (options *selectionOptions) bind(flags *pflag.FlagSet) {
	flags.StringVar(&options.configPath, configFlagName, "", configFlagUsage)
	flags.Var(newEnumValue(&options.strategy, config.StrategyWalk, config.StrategyDiff), strategyFlagName, strategyFlagUsage)
	flags.StringVar(&options.root, rootFlagName, "", rootFlagUsage)
	flags.StringVar(&options.ref, refFlagName, "", refFlagUsage)
}

// apply copies every changed flag onto the loaded configuration.
func (options selectionOptions) apply(flags *pflag.FlagSet, root config.Root) config.Root {
	if flagChanged(flags, strategyFlagName) {
		root.Selection.Strategy = options.strategy
	}
	if flagChanged(flags, rootFlagName) {
		root.Selection.Root = options.root
	}
	if flagChanged(flags, refFlagName) {
		root.Selection.Ref = options.ref
	}
	return root
}

func flagChanged(flags *pflag.FlagSet, name string) bool {
	flag := flags.Lookup(name)
	return flag != nil && flag.Changed
}

// resolveAPIKey reads the key from the environment variable named in the
// configuration. Only the openai provider requires one.
func resolveAPIKey(service config.Service) (string, error) {
	environmentVariable := strings.TrimSpace(service.APIKeyEnv)
	if environmentVariable == "" {
		return "", nil
	}
	apiKey := strings.TrimSpace(os.Getenv(environmentVariable))
	if apiKey == "" && strings.EqualFold(service.Provider, config.ProviderOpenAI) {
		return "", fmt.Errorf(missingAPIKeyErrorFormat, environmentVariable)
	}
	return apiKey, nil
}
