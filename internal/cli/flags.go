package cli

// Flag names and descriptions
const (
	FlagOptions     = "options"
	FlagOptionsFile = "options-file"
	FlagLogLevel    = "log-level"
	FlagLogFormat   = "log-format"
	FlagHelp        = "help"

	DescOptions     = "JSON object of template options, e.g. '{\"paragraphLoop\":true}'"
	DescOptionsFile = "Path to a YAML or JSON file of template options"
	DescLogLevel    = "Log level (debug, info, warn, error)"
	DescLogFormat   = "Log format (text, json)"
	DescHelp        = "Show usage"
)

const (
	defaultLogLevel  = "warn"
	defaultLogFormat = "text"
)
