package config

const (
	defaultMediaDir           = "/media"
	defaultSubscriptionsFile  = "~/.config/subtidy/subscriptions.yaml"
	defaultLogDir             = "~/.local/share/subtidy/logs"
	defaultLockFile           = "~/.local/share/subtidy/subtidy.lock"
	defaultScraperStrategy    = "peloton"
	defaultClassLimit         = 25
	defaultPageScrolls        = 10
	defaultRepairMaxPasses    = 5
	defaultHistoryPurgeDays   = 15
	defaultHistoryWarningDays = 3
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			MediaDir:          defaultMediaDir,
			SubscriptionsFile: defaultSubscriptionsFile,
			LogDir:            defaultLogDir,
			LockFile:          defaultLockFile,
		},
		Scraper: Scraper{
			Strategy:              defaultScraperStrategy,
			Activities:            "all",
			ClassLimitPerActivity: defaultClassLimit,
			PageScrolls:           defaultPageScrolls,
		},
		Repair: Repair{
			Enabled:   true,
			MaxPasses: defaultRepairMaxPasses,
		},
		History: History{
			PurgeDays:   defaultHistoryPurgeDays,
			WarningDays: defaultHistoryWarningDays,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
