package scrape

import (
	"log/slog"

	"vellum/internal/browser"
	"vellum/internal/config"
	"vellum/internal/credentials"
	"vellum/internal/services"
)

// NewEngine picks the engine family for the journal's configured platform.
func NewEngine(journal config.Journal, browserCfg config.Browser, retryCfg config.Retry, factory browser.Factory, creds credentials.Provider, downloads Downloader, diagDir string, logger *slog.Logger) (*Engine, error) {
	switch journal.Platform {
	case config.PlatformEditorialManager:
		return NewEditorialManagerEngine(journal, browserCfg, retryCfg, factory, creds, downloads, diagDir, logger), nil
	case config.PlatformScholarOne:
		return NewScholarOneEngine(journal, browserCfg, retryCfg, factory, creds, downloads, diagDir, logger), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "scrape", "new engine",
			"unknown platform "+string(journal.Platform)+" for journal "+journal.Code, nil)
	}
}
