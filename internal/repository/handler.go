package repository

import (
	"context"
	"log/slog"
	"os"

	"vellum/internal/logging"
	"vellum/internal/services"
	"vellum/internal/stage"
)

// Handler is the persistence stage: it writes the finished manuscript
// document to the output directory.
type Handler struct {
	repo   *Repository
	logger *slog.Logger
}

// NewHandler wraps a repository as a workflow stage handler.
func NewHandler(repo *Repository, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logging.NewComponentLogger(logger, "persist"),
	}
}

func (h *Handler) Prepare(ctx context.Context, item *stage.Item) error {
	if item.Manuscript == nil {
		return services.Wrap(services.ErrValidation, "persist", "validate item",
			"no manuscript to persist", nil)
	}
	return nil
}

func (h *Handler) Execute(ctx context.Context, item *stage.Item) error {
	path, err := h.repo.SaveManuscript(item.Manuscript)
	if err != nil {
		return services.Wrap(services.ErrTransient, "persist", "write document",
			"could not write manuscript document", err)
	}
	item.OutputPath = path
	logging.WithContext(ctx, h.logger).Info("manuscript persisted", logging.String("path", path))
	return nil
}

func (h *Handler) HealthCheck(context.Context) stage.Health {
	if err := os.MkdirAll(h.repo.root, 0o755); err != nil {
		return stage.Unhealthy("persist", "output directory not writable: "+err.Error())
	}
	return stage.Healthy("persist")
}
