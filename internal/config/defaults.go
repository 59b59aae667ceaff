package config

const (
	defaultDataDir           = "~/.local/share/shelf"
	defaultLogDir            = "~/.local/share/shelf/logs"
	defaultMode              = "ext"
	defaultMaxSuffixAttempts = 10000
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultHistoryMaxRuns    = 200
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Organize: Organize{
			DefaultMode:       defaultMode,
			MaxSuffixAttempts: defaultMaxSuffixAttempts,
		},
		History: History{
			Enabled: true,
			MaxRuns: defaultHistoryMaxRuns,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
