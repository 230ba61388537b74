// Package stage defines the contract between the workflow manager and the
// pipeline stages that carry a manuscript from discovery to persistence.
package stage

import (
	"context"

	"vellum/internal/audit"
	"vellum/internal/review"
	"vellum/internal/store"
)

// Item is the unit of work handed to each stage: the ledger row plus the
// in-memory state accumulated so far during this run. The ledger persists
// only lifecycle bookkeeping; the manuscript graph lives here and is rebuilt
// from the platform if a run is interrupted.
type Item struct {
	Ledger *store.Item

	Manuscript *review.Manuscript
	AuditRows  []audit.Row

	// Filled by the enrichment and persistence stages for run accounting.
	PeopleEnriched int
	OutputPath     string
}

// Handler describes the contract the workflow manager needs from each stage.
type Handler interface {
	Prepare(context.Context, *Item) error
	Execute(context.Context, *Item) error
	HealthCheck(context.Context) Health
}
