package testgen

const (
	rootCommandUse   = "testgen"
	rootCommandShort = "Generate unit tests for source files with a local language model"

	runCommandUse    = "run"
	runCommandShort  = "Select source files and write generated tests next to them"
	listCommandUse   = "list"
	listCommandShort = "Print the files a run would process, without calling the model"

	configFlagName         = "config"
	configFlagUsage        = "Path to testgen.yaml (default: ./testgen.yaml, then ~/.testgen/config.yaml)"
	strategyFlagName       = "strategy"
	strategyFlagUsage      = "File selection strategy: walk or diff"
	rootFlagName           = "root"
	rootFlagUsage          = "Directory to select files from"
	refFlagName            = "ref"
	refFlagUsage           = "Git reference the diff strategy compares against"
	providerFlagName       = "provider"
	providerFlagUsage      = "Text-generation backend: ollama or openai"
	baseURLFlagName        = "base-url"
	baseURLFlagUsage       = "Base URL of the text-generation service"
	modelFlagName          = "model"
	modelFlagUsage         = "Model name sent to the service"
	timeoutFlagName        = "timeout"
	timeoutFlagUsage       = "Per-file model call timeout (e.g., 90s; 0 = use defaults)"
	maxIterationsFlagName  = "max-iterations"
	maxIterationsFlagUsage = "Stop after this many files (0 = use defaults)"
	dryRunFlagName         = "dry-run"
	dryRunFlagUsage        = "Generate tests but do not write them"
	formatFlagName         = "format"
	formatFlagUsage        = "Report format: text, yaml or json"
	strictFlagName         = "strict"
	strictFlagUsage        = "Exit non-zero when any file fails"

	reportFormatText = "text"
	reportFormatYAML = "yaml"
	reportFormatJSON = "json"

	configurationLoaderInitializationErrorFormat = "initialize configuration loader: %w"
	configurationSourceResolutionErrorFormat     = "resolve configuration source: %w"
	rootConfigurationLoadErrorFormat             = "load root configuration %s: %w"
	effectiveConfigurationErrorFormat            = "invalid settings after flags: %w"
	loggerConstructionErrorFormat                = "build logger: %w"
	clientConstructionErrorFormat                = "build %s client: %w"
	selectorConstructionErrorFormat              = "build %s selector: %w"
	runPipelineErrorFormat                       = "run pipeline %s: %w"
	writeReportErrorFormat                       = "write run report: %w"
	strictFailureErrorFormat                     = "%d of %d files failed"
	unknownStrategyErrorFormat                   = "unknown selection strategy %q"
	unknownReportFormatErrorFormat               = "unknown report format %q"
	missingAPIKeyErrorFormat                     = "missing API key: set %s"
)
