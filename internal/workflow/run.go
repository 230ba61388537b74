package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"vellum/internal/logging"
	"vellum/internal/review"
	"vellum/internal/scrape"
	"vellum/internal/services"
	"vellum/internal/stage"
	"vellum/internal/store"
)

// maxRecoveryAttemptsPerItem bounds session-recovery attempts before the
// current manuscript is given up on. The run itself keeps going: the next
// item gets its own recovery attempts.
const maxRecoveryAttemptsPerItem = 2

// Run performs one complete harvest for the manager's journal: log in,
// discover work, drain the ledger through the pipeline, and report a
// summary. Interrupted runs resume where the ledger left off.
func (m *Manager) Run(ctx context.Context) (*review.RunSummary, error) {
	ctx = services.WithJournal(ctx, m.journal.Code)
	startedAt := m.now().UTC()

	reset, err := m.store.ResetStuck(ctx)
	if err != nil {
		return nil, fmt.Errorf("reset stuck items: %w", err)
	}
	if reset > 0 {
		m.logger.Info("reset stuck ledger items", logging.Int64("count", reset))
	}

	if err := m.engine.Controller().Login(ctx); err != nil {
		m.notifyError(ctx, err, "login")
		return nil, err
	}
	defer func() {
		if err := m.engine.Controller().Close(); err != nil {
			m.logger.Warn("browser close failed", logging.Error(err))
		}
	}()

	tally := newRunTally(m.journal.Code, startedAt)

	discovered, err := m.discover(ctx, tally)
	if err != nil {
		if services.IsFatal(err) {
			m.notifyError(ctx, err, "discovery")
			return nil, err
		}
		// Partial discovery still leaves resumable work on the ledger.
		m.logger.Warn("discovery incomplete", logging.Error(err))
	}
	if err := m.notifier.NotifyRunStarted(ctx, m.journal.Code, discovered); err != nil {
		m.logger.Warn("run-start notification failed", logging.Error(err))
	}

	if err := m.drain(ctx, tally); err != nil {
		m.notifyError(ctx, err, "pipeline")
		summary := tally.summary(m.now().UTC())
		m.persistSummary(summary)
		return summary, err
	}

	summary := tally.summary(m.now().UTC())
	m.persistSummary(summary)
	if err := m.notifier.NotifyRunCompleted(ctx, summary); err != nil {
		m.logger.Warn("run-complete notification failed", logging.Error(err))
	}
	m.logger.Info("harvest run finished",
		logging.Int("discovered", summary.Discovered),
		logging.Int("succeeded", summary.Succeeded),
		logging.Int("partial", summary.Partial),
		logging.Int("failed", summary.Failed),
	)
	return summary, nil
}

// persistSummary writes the run summary next to the harvested manuscripts.
// A write failure never fails the run; the summary was already tallied.
func (m *Manager) persistSummary(summary *review.RunSummary) {
	path, err := m.repo.SaveRunSummary(summary)
	if err != nil {
		m.logger.Warn("run summary not persisted", logging.Error(err))
		return
	}
	m.logger.Info("run summary persisted", logging.String("path", path))
}

// discover walks the journal's category pages and enqueues every manuscript
// id found. Already-ledgered ids are no-ops, so reruns only add new work.
func (m *Manager) discover(ctx context.Context, tally *runTally) (int, error) {
	categories, err := m.engine.DiscoverCategories(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, cat := range categories {
		refs, err := m.engine.CollectManuscriptIDs(ctx, cat)
		if err != nil {
			if services.IsFatal(err) {
				return total, err
			}
			m.logger.Warn("category collection failed",
				logging.String(logging.FieldCategory, cat.Name),
				logging.Error(err),
			)
			continue
		}
		for _, ref := range refs {
			if _, err := m.store.Enqueue(ctx, m.journal.Code, ref.ID, cat.Name, ref.Locator); err != nil {
				return total, fmt.Errorf("enqueue %s: %w", ref.ID, err)
			}
		}
		tally.discovered(cat.Name, len(refs))
		total += len(refs)
		m.logger.Info("category discovered",
			logging.String(logging.FieldCategory, cat.Name),
			logging.Int("manuscripts", len(refs)),
		)
	}
	return total, nil
}

// drain processes ledger items until none remain or the run aborts.
func (m *Manager) drain(ctx context.Context, tally *runTally) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		item, err := m.store.NextForStatuses(ctx, store.StatusPending, store.StatusExtracted)
		if err != nil {
			return fmt.Errorf("next ledger item: %w", err)
		}
		if item == nil {
			return nil
		}

		if err := m.ensureSession(ctx, item, tally); err != nil {
			if services.IsFatal(err) || errors.Is(err, context.Canceled) {
				return err
			}
			continue
		}

		if err := m.processItem(ctx, item, tally); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			if services.IsFatal(err) {
				return err
			}
			// The platform tends to recover from transient errors on
			// its own; give it a moment before the next item.
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(m.errorRetry):
			}
		}
	}
}

// ensureSession verifies the browser session is usable before an item is
// started, recovering it when possible. A failed recovery is retried once;
// after two consecutive failures the current manuscript is marked failed and
// the run moves on to the next item, which gets its own attempts. Recovery
// never aborts the run: every discovered id gets a shot.
func (m *Manager) ensureSession(ctx context.Context, item *store.Item, tally *runTally) error {
	ctrl := m.engine.Controller()
	if ctrl.IsAlive(ctx) {
		return nil
	}

	m.logger.Warn("browser session lost, recovering",
		logging.String(logging.FieldManuscriptID, item.ManuscriptID))

	var lastErr error
	for attempt := 1; attempt <= maxRecoveryAttemptsPerItem; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if lastErr = ctrl.Recover(ctx); lastErr == nil {
			if err := m.notifier.NotifySessionRecovered(ctx, m.journal.Code, attempt); err != nil {
				m.logger.Warn("recovery notification failed", logging.Error(err))
			}
			return nil
		}
		m.logger.Warn("session recovery attempt failed",
			logging.String(logging.FieldManuscriptID, item.ManuscriptID),
			logging.Int("attempt", attempt),
			logging.Error(lastErr))
	}

	reason := "session recovery failed: " + lastErr.Error()
	if markErr := m.store.MarkFailed(ctx, item, reason); markErr != nil {
		m.logger.Error("failed to persist recovery failure", logging.Error(markErr))
	}
	tally.failed(item.Category)
	if notifyErr := m.notifier.NotifyManuscriptFailed(ctx, m.journal.Code, item.ManuscriptID, reason); notifyErr != nil {
		m.logger.Warn("failure notification failed", logging.Error(notifyErr))
	}
	return services.Wrap(services.ErrSessionDead, "workflow", "recover session",
		"giving up on "+item.ManuscriptID+" after repeated recovery failures", lastErr)
}

// processItem runs one manuscript through every stage in order. The ledger
// status records the boundary reached; the manuscript graph itself stays in
// memory for the duration.
func (m *Manager) processItem(ctx context.Context, item *store.Item, tally *runTally) error {
	ctx = services.WithManuscriptID(ctx, item.ManuscriptID)
	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, m.logger)

	work := &stage.Item{Ledger: item}
	item.Attempts++

	for _, ps := range m.stages {
		stageCtx := services.WithStage(ctx, ps.name)
		stageLogger := logging.WithContext(stageCtx, m.logger)

		item.Status = ps.processingStatus
		if err := m.store.Update(stageCtx, item); err != nil {
			return fmt.Errorf("transition to %s: %w", ps.processingStatus, err)
		}

		stageLogger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))
		if err := ps.handler.Prepare(stageCtx, work); err != nil {
			m.handleStageFailure(stageCtx, ps.name, item, work, tally, err)
			return err
		}
		if err := ps.handler.Execute(stageCtx, work); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			m.handleStageFailure(stageCtx, ps.name, item, work, tally, err)
			return err
		}

		item.Status = ps.doneStatus
		if work.Manuscript != nil {
			item.Partial = work.Manuscript.IsPartial()
		}
		if err := m.store.Update(stageCtx, item); err != nil {
			return fmt.Errorf("persist stage result: %w", err)
		}
	}

	partial := work.Manuscript != nil && work.Manuscript.IsPartial()
	if err := m.store.MarkCompleted(ctx, item, partial); err != nil {
		return fmt.Errorf("complete item: %w", err)
	}
	tally.completed(item.Category, work, partial)

	logger.Info("manuscript processed",
		logging.Bool("partial", partial),
		logging.String("output", work.OutputPath),
	)
	return nil
}

func (m *Manager) handleStageFailure(ctx context.Context, stageName string, item *store.Item, work *stage.Item, tally *runTally, stageErr error) {
	logger := logging.WithContext(ctx, m.logger)
	logger.Error("stage failed",
		logging.Alert("stage_failure"),
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.Error(stageErr),
	)

	if err := m.store.MarkFailed(ctx, item, stageErr.Error()); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("run shutting down, could not persist stage failure")
		} else {
			logger.Error("failed to persist stage failure", logging.Error(err))
		}
	}
	tally.failed(item.Category)

	if err := m.notifier.NotifyManuscriptFailed(ctx, m.journal.Code, item.ManuscriptID, stageErr.Error()); err != nil {
		logger.Warn("failure notification failed", logging.Error(err))
	}
}

func (m *Manager) notifyError(ctx context.Context, err error, label string) {
	if notifyErr := m.notifier.NotifyError(ctx, err, label); notifyErr != nil {
		m.logger.Warn("error notification failed", logging.Error(notifyErr))
	}
}

// HealthCheck reports the readiness of every configured stage.
func (m *Manager) HealthCheck(ctx context.Context) []stage.Health {
	checks := make([]stage.Health, 0, len(m.stages))
	for _, ps := range m.stages {
		checks = append(checks, ps.handler.HealthCheck(ctx))
	}
	return checks
}

// Engine exposes the underlying scrape engine, mainly for the CLI's
// discovery-only mode.
func (m *Manager) Engine() *scrape.Engine { return m.engine }
