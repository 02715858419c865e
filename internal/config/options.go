package config

// Definitions for global command-line flags used across the entire application
type GlobalOptions struct {
	ProjectDir   string `long:"project" short:"p" description:"Path to the Go project directory to be scanned for doc tables"`
	OutputPath   string `long:"output" short:"o" description:"Path to report output file (.txt, .csv, .json, .yaml)"`
	AppendOutput bool   `long:"append" description:"Whether to append to the output file instead of overwriting it if the file already exists"`
	SplitByDir   bool   `long:"splitByDir" description:"Whether to scan each top-level directory separately (and ignore top-level Go files)"`
	Threads      int    `long:"threads" description:"The number of concurrent threads (goroutines) to use for scanning when splitting by directory" default:"4"`
	ConfigPath   string `long:"config" short:"c" description:"Path to a project config file (.toml, .yaml, or .yml) describing how doc tables are marked"`

	LogLevel string `long:"logLevel" short:"l" description:"The minimum severity of log message that should be displayed" choice:"debug" choice:"info" choice:"warn" choice:"error" default:"info"`
	LogFile  string `long:"logFile" description:"Path to a file that receives a copy of every log message as JSON"`
	Timer    bool   `long:"timer" description:"Whether to print the total execution time of the specified command"`

	// Settings loaded from `ConfigPath` (or the defaults), populated before any command runs
	Project ProjectOptions `no-flag:"true"`
}
