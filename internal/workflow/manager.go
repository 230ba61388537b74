// Package workflow orchestrates one harvest run per journal: discovery,
// then a serial extract/enrich/persist pipeline over the ledger.
package workflow

import (
	"log/slog"
	"time"

	"vellum/internal/config"
	"vellum/internal/enrich"
	"vellum/internal/logging"
	"vellum/internal/notifications"
	"vellum/internal/repository"
	"vellum/internal/scrape"
	"vellum/internal/stage"
	"vellum/internal/store"
)

// A platform session serves exactly one page at a time, so the pipeline is
// strictly serial: one manuscript moves through all stages before the next
// is picked up.
type pipelineStage struct {
	name             string
	handler          stage.Handler
	processingStatus store.Status
	doneStatus       store.Status
}

// Manager runs the harvest pipeline for a single journal.
type Manager struct {
	cfg      *config.Config
	journal  config.Journal
	store    *store.Store
	engine   *scrape.Engine
	repo     *repository.Repository
	notifier notifications.Service
	logger   *slog.Logger

	stages     []pipelineStage
	errorRetry time.Duration
	now        func() time.Time
}

// NewManager wires the pipeline for one journal from its collaborators.
func NewManager(
	cfg *config.Config,
	journal config.Journal,
	st *store.Store,
	engine *scrape.Engine,
	repo *repository.Repository,
	people enrich.PeopleEnricher,
	commLog enrich.CommLogSearcher,
	notifier notifications.Service,
	logger *slog.Logger,
) *Manager {
	logger = logging.NewComponentLogger(logger, "workflow").With(
		logging.String(logging.FieldJournal, journal.Code))

	errorRetry := time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second
	if errorRetry < 0 {
		errorRetry = 0
	}

	return &Manager{
		cfg:      cfg,
		journal:  journal,
		store:    st,
		engine:   engine,
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		stages: []pipelineStage{
			{
				name:             "extract",
				handler:          scrape.NewExtractHandler(engine, logger),
				processingStatus: store.StatusExtracting,
				doneStatus:       store.StatusExtracted,
			},
			{
				name:             "enrich",
				handler:          enrich.NewHandler(people, commLog, logger),
				processingStatus: store.StatusEnriching,
				doneStatus:       store.StatusPersisting,
			},
			{
				name:             "persist",
				handler:          repository.NewHandler(repo, logger),
				processingStatus: store.StatusPersisting,
				doneStatus:       store.StatusCompleted,
			},
		},
		errorRetry: errorRetry,
		now:        time.Now,
	}
}
