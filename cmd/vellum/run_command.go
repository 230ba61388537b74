package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"vellum/internal/browser"
	"vellum/internal/config"
	"vellum/internal/credentials"
	"vellum/internal/downloads"
	"vellum/internal/enrich"
	"vellum/internal/logging"
	"vellum/internal/notifications"
	"vellum/internal/repository"
	"vellum/internal/review"
	"vellum/internal/scrape"
	"vellum/internal/store"
	"vellum/internal/workflow"
)

func newRunCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run [journal-code...]",
		Short: "Run a full harvest for the given journals (default: all)",
		RunE: func(cmd *cobra.Command, args []string) error {
			journals, err := cmdCtx.journalsFor(args)
			if err != nil {
				return err
			}
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := cmdCtx.ensureLogger()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var summaries []*review.RunSummary
			var firstErr error
			for _, journal := range journals {
				summary, err := runJournal(ctx, cfg, journal, cmdCtx.envFile(), logger)
				if summary != nil {
					summaries = append(summaries, summary)
				}
				if err != nil {
					if errors.Is(err, context.Canceled) {
						firstErr = err
						break
					}
					logger.Error("journal run failed",
						logging.String(logging.FieldJournal, journal.Code),
						logging.Error(err),
					)
					if firstErr == nil {
						firstErr = err
					}
				}
			}

			if len(summaries) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), renderSummaries(summaries))
			}
			return firstErr
		},
	}
}

// runJournal performs one journal's harvest under its work-directory lock.
func runJournal(ctx context.Context, cfg *config.Config, journal config.Journal, envFile string, logger *slog.Logger) (*review.RunSummary, error) {
	lock := flock.New(cfg.LockPath(journal.Code))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another run is already active for journal %s", journal.Code)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("release run lock failed", logging.Error(err))
		}
	}()

	st, err := store.Open(cfg.DatabasePath(journal.Code))
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer st.Close()

	var downloader scrape.Downloader
	if cfg.Downloads.Enabled {
		client := &http.Client{Timeout: time.Duration(cfg.Downloads.TimeoutSec) * time.Second}
		downloader = downloads.NewManager(client, st, cfg.DownloadDir(journal.Code), logger)
	}

	creds := credentials.NewEnvProvider(cfg, envFile)
	engine, err := scrape.NewEngine(journal, cfg.Browser, cfg.Retry,
		browser.NewRodFactory(cfg.Browser), creds, downloader,
		cfg.DiagnosticsDir(journal.Code), logger)
	if err != nil {
		return nil, err
	}

	people, commLog := enrich.NewFromConfig(cfg.Enrichment)
	mgr := workflow.NewManager(cfg, journal, st, engine,
		repository.New(cfg.Paths.OutputDir),
		people, commLog,
		notifications.NewService(cfg), logger)

	return mgr.Run(ctx)
}
