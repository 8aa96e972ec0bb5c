package log

// LoggerConfig is the logging section of GlobalConfig, loaded by viper.
type LoggerConfig struct {
	Level   string        `mapstructure:"level"`   // trace|debug|info|warn|error
	Pattern string        `mapstructure:"pattern"` // message pattern, see formatter.go
	Time    string        `mapstructure:"time"`    // time.Format layout
	File    *FileAppenderOpt `mapstructure:"file,omitempty"`
}

// FileAppenderOpt configures the rotating file appender. Nil disables it;
// stdout is always enabled.
type FileAppenderOpt struct {
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`    // megabytes
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
	Compress   bool   `mapstructure:"compress"`
}

// DefaultConfig returns sane stdout-only defaults used before Init runs and
// by tests that don't care about log output.
func DefaultConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:   "info",
		Pattern: "%time [%level] %field%msg\n",
		Time:    "2006-01-02T15:04:05.000Z07:00",
	}
}
