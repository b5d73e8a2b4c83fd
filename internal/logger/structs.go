package logger

// Console implements a console based logger.
type Console struct {
	Enabled          bool `mapstructure:"enabled"`
	UseConsoleWriter bool
}

// Rotation describes one lumberjack-managed log file.
type Rotation struct {
	Name       string `mapstructure:"name"`
	MaxSize    int    `mapstructure:"maxSize"` // megabytes
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAge     int    `mapstructure:"maxAge"` // days
}

// LogFile holds the rolling files below Path, one per stream.
type LogFile struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`

	Access Rotation `mapstructure:"access"`
	Error  Rotation `mapstructure:"error"`
	Info   Rotation `mapstructure:"info"`
	Trace  Rotation `mapstructure:"trace"`
	Warn   Rotation `mapstructure:"warn"`
}

// Log implements the logger config.
type Log struct {
	LogLevel string // trace, debug, info, warn, error.
	LogEnv   string

	// EnableAccessLogToConsole writes the API access log to the console as well.
	// Does not overrule Console.Enabled.
	EnableAccessLogToConsole bool
	ReportCaller             bool
	DisableCheckAlive        bool // skip /checkalive in the access log

	AppName     string
	ServiceName string

	Console Console

	File LogFile `mapstructure:"file"`
}
