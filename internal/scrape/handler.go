package scrape

import (
	"context"
	"log/slog"
	"strings"

	"vellum/internal/logging"
	"vellum/internal/services"
	"vellum/internal/stage"
)

// ExtractHandler is the extraction stage: it drives the engine through one
// manuscript's detail page and fills the work item with everything the
// platform exposes.
type ExtractHandler struct {
	engine *Engine
	logger *slog.Logger
}

// NewExtractHandler wraps an engine as a workflow stage handler.
func NewExtractHandler(engine *Engine, logger *slog.Logger) *ExtractHandler {
	return &ExtractHandler{
		engine: engine,
		logger: logging.NewComponentLogger(logger, "extract"),
	}
}

func (h *ExtractHandler) Prepare(ctx context.Context, item *stage.Item) error {
	if strings.TrimSpace(item.Ledger.ManuscriptID) == "" {
		return services.Wrap(services.ErrValidation, "extract", "validate item",
			"ledger item carries no manuscript identifier", nil)
	}
	item.Ledger.LastError = ""
	return nil
}

func (h *ExtractHandler) Execute(ctx context.Context, item *stage.Item) error {
	logger := logging.WithContext(ctx, h.logger)

	ref := ManuscriptRef{ID: item.Ledger.ManuscriptID, Locator: item.Ledger.Locator}
	m := h.engine.ExtractManuscript(ctx, ref)
	if m.Title == "" && m.Status == "" && len(m.Referees) == 0 {
		return services.Wrap(services.ErrNotFound, "extract", "read detail page",
			"detail page yielded no manuscript data", nil)
	}
	item.Manuscript = m

	// The audit tables live on the same detail page; losing them degrades
	// the trail to inferred events rather than failing the manuscript.
	rows, err := h.engine.CollectAuditRows(ctx, ref)
	if err != nil {
		logger.Warn("audit row collection failed", logging.Error(err))
		m.MarkPartial("audit")
	}
	item.AuditRows = rows

	logger.Info("manuscript extracted",
		logging.Int("authors", len(m.Authors)),
		logging.Int("referees", len(m.Referees)),
		logging.Int("documents", len(m.Documents)),
		logging.Bool("partial", m.IsPartial()),
	)
	return nil
}

func (h *ExtractHandler) HealthCheck(ctx context.Context) stage.Health {
	if !h.engine.Controller().IsAlive(ctx) {
		return stage.Unhealthy("extract", "browser session not responding")
	}
	return stage.Healthy("extract")
}
