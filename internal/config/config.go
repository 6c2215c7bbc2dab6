package config

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StrategyWalk   = "walk"
	StrategyDiff   = "diff"
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"

	LoggingFormatAuto    = "auto"
	LoggingFormatConsole = "console"
	LoggingFormatJSON    = "json"

	environmentPrefix = "TESTGEN"

	rootConfigurationReadErrorFormat      = "read root configuration %s: %w"
	rootConfigurationUnmarshalErrorFormat = "unmarshal root configuration %s: %w"
	validationErrorFormat                 = "%w: %q"
)

var (
	ErrUnknownStrategy      = errors.New("selection.strategy must be walk or diff")
	ErrUnknownProvider      = errors.New("service.provider must be ollama or openai")
	ErrInvalidExtension     = errors.New("selection.extension must start with a dot")
	ErrMissingModel         = errors.New("service.model is empty")
	ErrMissingTestDirectory = errors.New("selection.test_dir is empty")
	ErrNegativeLimit        = errors.New("defaults must not be negative")
	ErrUnknownLoggingFormat = errors.New("logging.format must be auto, console or json")
)

type Root struct {
	Service    Service    `mapstructure:"service" yaml:"service"`
	Logging    Logging    `mapstructure:"logging" yaml:"logging"`
	Defaults   Defaults   `mapstructure:"defaults" yaml:"defaults"`
	Selection  Selection  `mapstructure:"selection" yaml:"selection"`
	Generation Generation `mapstructure:"generation" yaml:"generation"`
}

// Service describes the text-generation backend. A nil Temperature keeps the
// server default; an explicit 0 asks for deterministic output.
type Service struct {
	Provider    string   `mapstructure:"provider" yaml:"provider"`
	BaseURL     string   `mapstructure:"base_url" yaml:"base_url"`
	Model       string   `mapstructure:"model" yaml:"model"`
	APIKeyEnv   string   `mapstructure:"api_key_env" yaml:"api_key_env"`
	MaxTokens   int      `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature *float64 `mapstructure:"temperature" yaml:"temperature,omitempty"`
}

type Logging struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type Defaults struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	MaxIterations  int `mapstructure:"max_iterations" yaml:"max_iterations"`
}

// Selection controls which files a run visits.
type Selection struct {
	Strategy     string   `mapstructure:"strategy" yaml:"strategy"`
	Root         string   `mapstructure:"root" yaml:"root"`
	Ref          string   `mapstructure:"ref" yaml:"ref"`
	Extension    string   `mapstructure:"extension" yaml:"extension"`
	TestDir      string   `mapstructure:"test_dir" yaml:"test_dir"`
	TestSuffixes []string `mapstructure:"test_suffixes" yaml:"test_suffixes"`
	ExcludeNames []string `mapstructure:"exclude_names" yaml:"exclude_names"`
	ExcludeGlobs []string `mapstructure:"exclude_globs" yaml:"exclude_globs"`
}

type Generation struct {
	Framework    string `mapstructure:"framework" yaml:"framework"`
	SystemPrompt string `mapstructure:"system_prompt" yaml:"system_prompt"`
}

var builtInDefaults = map[string]any{
	"service.provider":         ProviderOllama,
	"service.base_url":         "http://localhost:11434",
	"service.model":            "codellama:7b-instruct-q4_K_M",
	"service.api_key_env":      "",
	"service.max_tokens":       0,
	"logging.level":            "info",
	"logging.format":           LoggingFormatAuto,
	"defaults.timeout_seconds": 120,
	"defaults.max_iterations":  10000,
	"selection.strategy":       StrategyWalk,
	"selection.root":           ".",
	"selection.ref":            "HEAD",
	"selection.extension":      ".js",
	"selection.test_dir":       "__tests__",
	"selection.test_suffixes":  []string{".test", ".spec"},
	"selection.exclude_names":  []string{"testgen.js"},
	"selection.exclude_globs":  []string{"**/node_modules/**", "**/.git/**"},
	"generation.framework":     "Jest",
	"generation.system_prompt": "",
}

// LoadRoot decodes source on top of the built-in defaults. TESTGEN_* environment
// variables override both, e.g. TESTGEN_SERVICE_MODEL for service.model.
func LoadRoot(source RootConfigurationSource) (Root, error) {
	configurationReader := viper.New()
	configurationReader.SetConfigType("yaml")
	for key, value := range builtInDefaults {
		configurationReader.SetDefault(key, value)
	}
	configurationReader.SetEnvPrefix(environmentPrefix)
	configurationReader.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configurationReader.AutomaticEnv()
	// No default exists for the optional temperature, so bind its variable explicitly.
	_ = configurationReader.BindEnv("service.temperature")

	if len(bytes.TrimSpace(source.Content)) > 0 {
		if err := configurationReader.ReadConfig(bytes.NewReader(source.Content)); err != nil {
			return Root{}, fmt.Errorf(rootConfigurationReadErrorFormat, source.Reference, err)
		}
	}

	var rootConfiguration Root
	if err := configurationReader.Unmarshal(&rootConfiguration); err != nil {
		return Root{}, fmt.Errorf(rootConfigurationUnmarshalErrorFormat, source.Reference, err)
	}
	if err := rootConfiguration.Validate(); err != nil {
		return Root{}, err
	}
	return rootConfiguration, nil
}

// Validate reports the first setting a run cannot work with.
func (root Root) Validate() error {
	switch strings.ToLower(root.Selection.Strategy) {
	case StrategyWalk, StrategyDiff:
	default:
		return fmt.Errorf(validationErrorFormat, ErrUnknownStrategy, root.Selection.Strategy)
	}
	switch strings.ToLower(root.Service.Provider) {
	case ProviderOllama, ProviderOpenAI:
	default:
		return fmt.Errorf(validationErrorFormat, ErrUnknownProvider, root.Service.Provider)
	}
	switch strings.ToLower(root.Logging.Format) {
	case LoggingFormatAuto, LoggingFormatConsole, LoggingFormatJSON:
	default:
		return fmt.Errorf(validationErrorFormat, ErrUnknownLoggingFormat, root.Logging.Format)
	}
	if len(root.Selection.Extension) < 2 || !strings.HasPrefix(root.Selection.Extension, ".") {
		return fmt.Errorf(validationErrorFormat, ErrInvalidExtension, root.Selection.Extension)
	}
	if strings.TrimSpace(root.Service.Model) == "" {
		return ErrMissingModel
	}
	if strings.TrimSpace(root.Selection.TestDir) == "" {
		return ErrMissingTestDirectory
	}
	if root.Defaults.TimeoutSeconds < 0 || root.Defaults.MaxIterations < 0 {
		return ErrNegativeLimit
	}
	return nil
}

func (root Root) Timeout() time.Duration {
	return time.Duration(root.Defaults.TimeoutSeconds) * time.Second
}
