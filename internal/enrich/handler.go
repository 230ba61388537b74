package enrich

import (
	"context"
	"log/slog"
	"time"

	"vellum/internal/analytics"
	"vellum/internal/audit"
	"vellum/internal/logging"
	"vellum/internal/review"
	"vellum/internal/services"
	"vellum/internal/stage"
)

// Handler is the enrichment stage: it completes people data from external
// services, merges every audit source into the trail, backfills referee
// dates, and derives the analytics blocks.
type Handler struct {
	people  PeopleEnricher
	commLog CommLogSearcher
	logger  *slog.Logger
	now     func() time.Time
}

// NewHandler wires the enrichment stage from its collaborators.
func NewHandler(people PeopleEnricher, commLog CommLogSearcher, logger *slog.Logger) *Handler {
	return &Handler{
		people:  people,
		commLog: commLog,
		logger:  logging.NewComponentLogger(logger, "enrich"),
		now:     time.Now,
	}
}

func (h *Handler) Prepare(ctx context.Context, item *stage.Item) error {
	if item.Manuscript == nil {
		return services.Wrap(services.ErrValidation, "enrich", "validate item",
			"no extracted manuscript to enrich", nil)
	}
	return nil
}

func (h *Handler) Execute(ctx context.Context, item *stage.Item) error {
	logger := logging.WithContext(ctx, h.logger)
	m := item.Manuscript

	item.PeopleEnriched = ApplyToManuscript(ctx, h.people, m, logger)

	rows := item.AuditRows
	commRows, err := h.commLog.SearchByManuscript(ctx, m.ID, participantEmails(m), commLogFrom(m), h.now())
	if err != nil {
		// Communication-log outages cost trail detail, not the manuscript.
		logger.Warn("communication log search failed", logging.Error(err))
		m.MarkPartial("comm-log")
	} else {
		rows = append(rows, commRows...)
	}

	m.Trail = audit.BuildTrail(m, rows)
	audit.BackfillRefereeDates(m, logger)

	m.Milestones = analytics.ComputeMilestones(m, h.now())
	m.Statistics = analytics.ComputeRefereeStatistics(m)
	m.Timeline = analytics.ComputeTimelineAnalytics(m.Trail)

	logger.Info("manuscript enriched",
		logging.Int("people_enriched", item.PeopleEnriched),
		logging.Int("trail_events", len(m.Trail)),
	)
	return nil
}

func (h *Handler) HealthCheck(context.Context) stage.Health {
	return stage.Healthy("enrich")
}

// participantEmails lists every known person email on the manuscript, used
// to scope communication-log searches.
func participantEmails(m *review.Manuscript) []string {
	var emails []string
	for _, a := range m.Authors {
		if a.Email != "" {
			emails = append(emails, a.Email)
		}
	}
	for _, r := range m.Referees {
		if r.Email != "" {
			emails = append(emails, r.Email)
		}
	}
	return emails
}

// commLogFrom bounds the search window at the submission date when known.
func commLogFrom(m *review.Manuscript) time.Time {
	if m.SubmissionDate != nil {
		return *m.SubmissionDate
	}
	return time.Time{}
}
