// Package review defines the entity graph produced by one harvesting run:
// manuscripts with their authors, referees, reports, documents, audit trail,
// and derived analytics.
//
// The types here are plain data carriers. They are assembled incrementally by
// the scraping engines, enriched by external collaborators, and handed to a
// repository for storage once analytics complete. Nothing in this package
// performs I/O.
package review
