package config

const (
	defaultDataDir          = "~/.local/share/otrack"
	defaultLogDir           = "~/.local/share/otrack/logs"
	defaultAPIBind          = "127.0.0.1:7495"
	defaultSessionTTLHours  = 12
	defaultHistoryLimit     = 10
	defaultTopClients       = 5
	defaultDelayedPreview   = 2
	defaultNtfyTimeout      = 10
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultDatabaseFilename = "otrack.db"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Auth: Auth{
			SessionTTLHours: defaultSessionTTLHours,
		},
		Dashboard: Dashboard{
			HistoryLimit:   defaultHistoryLimit,
			TopClients:     defaultTopClients,
			DelayedPreview: defaultDelayedPreview,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
