package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	var err error
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return err
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	for i := range c.Journals {
		j := &c.Journals[i]
		j.Code = strings.ToLower(strings.TrimSpace(j.Code))
		j.Name = strings.TrimSpace(j.Name)
		j.Platform = Platform(strings.ToLower(strings.TrimSpace(string(j.Platform))))
		j.Role = strings.TrimSpace(j.Role)
		urls := j.EntryURLs[:0]
		for _, raw := range j.EntryURLs {
			if trimmed := strings.TrimSpace(raw); trimmed != "" {
				urls = append(urls, trimmed)
			}
		}
		j.EntryURLs = urls
		cats := j.Categories[:0]
		for _, raw := range j.Categories {
			if trimmed := strings.TrimSpace(raw); trimmed != "" {
				cats = append(cats, trimmed)
			}
		}
		j.Categories = cats
	}

	if c.Browser.NavTimeoutSec <= 0 {
		c.Browser.NavTimeoutSec = 30
	}
	if c.Browser.WaitTimeoutSec <= 0 {
		c.Browser.WaitTimeoutSec = 10
	}
	if c.Browser.ProbeTimeoutSec <= 0 {
		c.Browser.ProbeTimeoutSec = 5
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.BaseDelaySec <= 0 {
		c.Retry.BaseDelaySec = 2
	}
	if c.Retry.BackoffFactor <= 1 {
		c.Retry.BackoffFactor = 2.0
	}
	if c.Retry.MaxRecoveries <= 0 {
		c.Retry.MaxRecoveries = 2
	}
	if c.Workflow.QueuePollInterval <= 0 {
		c.Workflow.QueuePollInterval = 5
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = 10
	}
	if c.Downloads.TimeoutSec <= 0 {
		c.Downloads.TimeoutSec = 60
	}
	if c.Enrichment.TimeoutSeconds <= 0 {
		c.Enrichment.TimeoutSeconds = 15
	}

	return nil
}

func unknownPlatformError(j Journal) error {
	return fmt.Errorf("journal %q: unknown platform %q (expected %q or %q)",
		j.Code, j.Platform, PlatformEditorialManager, PlatformScholarOne)
}
