package config

const (
	defaultMigrationsDir        = "./migrations"
	defaultStateDir             = "~/.local/share/driftwatch"
	defaultLogDir               = "~/.local/share/driftwatch/logs"
	defaultDriver               = "postgres"
	defaultHost                 = "localhost"
	defaultPort                 = 5432
	defaultSSLMode              = "disable"
	defaultTrackingTable        = "schema_migrations"
	defaultProbeTimeout         = 10
	defaultRetryAttempts        = 3
	defaultRetryDelay           = 1
	defaultWatchInterval        = 300
	defaultHistoryRetentionDays = 90
	defaultNotifyRequestTimeout = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			MigrationsDir: defaultMigrationsDir,
			StateDir:      defaultStateDir,
			LogDir:        defaultLogDir,
		},
		Database: Database{
			Driver:        defaultDriver,
			Host:          defaultHost,
			Port:          defaultPort,
			SSLMode:       defaultSSLMode,
			TrackingTable: defaultTrackingTable,
		},
		Check: Check{
			ProbeTimeout:  defaultProbeTimeout,
			RetryAttempts: defaultRetryAttempts,
			RetryDelay:    defaultRetryDelay,
		},
		Watch: Watch{
			Interval: defaultWatchInterval,
		},
		History: History{
			Enabled:       true,
			RetentionDays: defaultHistoryRetentionDays,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Drift:          true,
			Recovery:       true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
