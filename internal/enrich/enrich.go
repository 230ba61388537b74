// Package enrich wraps the external people-enrichment and communication-log
// collaborators. Both are best-effort: failures are logged by the caller and
// never invalidate the extracted entity graph.
package enrich

import (
	"context"
	"time"

	"vellum/internal/audit"
)

// Person is the enrichment view of an author or referee.
type Person struct {
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	Affiliation string `json:"affiliation,omitempty"`
	Country     string `json:"country,omitempty"`
}

// PeopleEnricher fills missing affiliation/country data for one person.
type PeopleEnricher interface {
	Enrich(ctx context.Context, p Person) (Person, error)
}

// CommLogSearcher finds communication events for a manuscript from an
// external mail archive; results merge into the audit synthesizer's sources.
type CommLogSearcher interface {
	SearchByManuscript(ctx context.Context, manuscriptID string, participantEmails []string, from, to time.Time) ([]audit.Row, error)
}

// NoopEnricher satisfies PeopleEnricher without doing anything. Used when no
// enrichment service is configured.
type NoopEnricher struct{}

func (NoopEnricher) Enrich(_ context.Context, p Person) (Person, error) {
	return p, nil
}

// NoopCommLog satisfies CommLogSearcher with empty results.
type NoopCommLog struct{}

func (NoopCommLog) SearchByManuscript(context.Context, string, []string, time.Time, time.Time) ([]audit.Row, error) {
	return nil, nil
}
