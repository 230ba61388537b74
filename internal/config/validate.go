package config

import (
	"fmt"
	"strings"
)

// Validate checks configuration invariants after normalization.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		return fmt.Errorf("paths.work_dir must be set")
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return fmt.Errorf("paths.output_dir must be set")
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}

	seen := make(map[string]struct{}, len(c.Journals))
	for _, j := range c.Journals {
		if j.Code == "" {
			return fmt.Errorf("journal with empty code")
		}
		if _, dup := seen[j.Code]; dup {
			return fmt.Errorf("duplicate journal code %q", j.Code)
		}
		seen[j.Code] = struct{}{}

		switch j.Platform {
		case PlatformEditorialManager, PlatformScholarOne:
		default:
			return unknownPlatformError(j)
		}

		if len(j.EntryURLs) == 0 {
			return fmt.Errorf("journal %q: at least one entry URL is required", j.Code)
		}
		for _, u := range j.EntryURLs {
			if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
				return fmt.Errorf("journal %q: entry URL %q must be http(s)", j.Code, u)
			}
		}
	}

	if c.Retry.MaxAttempts > 10 {
		return fmt.Errorf("retry.max_attempts: %d exceeds limit of 10", c.Retry.MaxAttempts)
	}

	return nil
}
