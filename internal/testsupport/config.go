// Package testsupport holds shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"vellum/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults one Editorial Manager journal and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WorkDir = filepath.Join(base, "work")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.Workflow.ErrorRetryInterval = 0
	cfg.Journals = []config.Journal{
		{
			Code:      "jemt",
			Name:      "Journal of Electron Microscopy Technique",
			Platform:  config.PlatformEditorialManager,
			EntryURLs: []string{"https://em.example/login"},
		},
	}

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithJournal replaces the configured journals with the given one.
func WithJournal(journal config.Journal) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Journals = []config.Journal{journal}
	}
}

// WithNtfyTopic points notifications at a test server topic URL.
func WithNtfyTopic(topic string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Notifications.NtfyTopic = topic
	}
}
