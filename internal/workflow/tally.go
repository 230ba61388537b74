package workflow

import (
	"time"

	"vellum/internal/review"
	"vellum/internal/stage"
)

// runTally accumulates run-summary counters while the pipeline drains.
type runTally struct {
	journalCode string
	startedAt   time.Time

	totalDiscovered int
	succeeded       int
	partial         int
	failedCount     int
	perCategory     map[string]review.CategoryCounts

	refereesSeen      int
	refereesWithEmail int
	peopleSeen        int
	peopleWithData    int
	peopleEnriched    int
}

func newRunTally(journalCode string, startedAt time.Time) *runTally {
	return &runTally{
		journalCode: journalCode,
		startedAt:   startedAt,
		perCategory: make(map[string]review.CategoryCounts),
	}
}

func (t *runTally) discovered(category string, count int) {
	t.totalDiscovered += count
	counts := t.perCategory[category]
	counts.Discovered += count
	t.perCategory[category] = counts
}

func (t *runTally) failed(category string) {
	t.failedCount++
	counts := t.perCategory[category]
	counts.Failed++
	t.perCategory[category] = counts
}

func (t *runTally) completed(category string, work *stage.Item, partial bool) {
	counts := t.perCategory[category]
	if partial {
		t.partial++
		counts.Partial++
	} else {
		t.succeeded++
		counts.Succeeded++
	}
	t.perCategory[category] = counts

	t.peopleEnriched += work.PeopleEnriched
	if m := work.Manuscript; m != nil {
		for _, r := range m.Referees {
			t.refereesSeen++
			if r.Email != "" {
				t.refereesWithEmail++
			}
		}
		for _, a := range m.Authors {
			t.peopleSeen++
			if a.Affiliation != "" {
				t.peopleWithData++
			}
		}
		for _, r := range m.Referees {
			t.peopleSeen++
			if r.Affiliation != "" {
				t.peopleWithData++
			}
		}
	}
}

func (t *runTally) summary(finishedAt time.Time) *review.RunSummary {
	summary := &review.RunSummary{
		RunID:       "run-" + t.startedAt.Format("20060102-150405"),
		JournalCode: t.journalCode,
		StartedAt:   t.startedAt,
		FinishedAt:  finishedAt,

		Discovered: t.totalDiscovered,
		Succeeded:  t.succeeded,
		Partial:    t.partial,
		Failed:     t.failedCount,

		RefereesSeen:      t.refereesSeen,
		RefereesWithEmail: t.refereesWithEmail,
		PeopleEnriched:    t.peopleEnriched,
	}
	if len(t.perCategory) > 0 {
		summary.PerCategory = t.perCategory
	}
	if t.refereesSeen > 0 {
		summary.EmailResolutionRate = float64(t.refereesWithEmail) / float64(t.refereesSeen)
	}
	if t.peopleSeen > 0 {
		summary.EnrichmentCoverage = float64(t.peopleWithData) / float64(t.peopleSeen)
	}
	return summary
}
