package config

// Default returns the baseline configuration before any file overrides.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:   "~/.local/share/vellum",
			LogDir:    "~/.local/share/vellum/logs",
			OutputDir: "~/.local/share/vellum/output",
		},
		Browser: Browser{
			Headless:        true,
			ViewportWidth:   1600,
			ViewportHeight:  1000,
			NavTimeoutSec:   30,
			WaitTimeoutSec:  10,
			ProbeTimeoutSec: 5,
		},
		Retry: Retry{
			MaxAttempts:   3,
			BaseDelaySec:  2,
			BackoffFactor: 2.0,
			MaxRecoveries: 2,
		},
		Workflow: Workflow{
			QueuePollInterval:  5,
			ErrorRetryInterval: 10,
		},
		Downloads: Downloads{
			Enabled:    true,
			MaxFileMiB: 100,
			TimeoutSec: 60,
		},
		Enrichment: Enrichment{
			TimeoutSeconds: 15,
		},
		Notifications: Notifications{
			RequestTimeout: 10,
			RunEvents:      true,
			Errors:         true,
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
	}
}
