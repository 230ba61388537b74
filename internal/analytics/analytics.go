// Package analytics derives milestones, per-referee statistics, and timeline
// summaries from an extracted manuscript and its audit trail. Everything here
// is best-effort over incomplete timestamps: a missing endpoint simply means
// no statistic, and negative raw deltas are dropped, never clamped.
package analytics

import (
	"time"

	"vellum/internal/review"
	"vellum/internal/textparse"
)

// ComputeMilestones derives review-progress markers for one manuscript.
func ComputeMilestones(m *review.Manuscript, now time.Time) *review.Milestones {
	ms := &review.Milestones{}

	var turnarounds []int
	for _, ref := range m.Referees {
		if ref.ContactDate != nil {
			if ms.AllRefereesAssigned == nil || ref.ContactDate.After(*ms.AllRefereesAssigned) {
				ms.AllRefereesAssigned = ref.ContactDate
			}
		}
		if ref.ReceivedDate != nil {
			ms.ReportsReceived++
			if ms.FirstReportReceived == nil || ref.ReceivedDate.Before(*ms.FirstReportReceived) {
				ms.FirstReportReceived = ref.ReceivedDate
			}
			if ms.LastReportReceived == nil || ref.ReceivedDate.After(*ms.LastReportReceived) {
				ms.LastReportReceived = ref.ReceivedDate
			}
			// Turnaround is received minus contact, falling back to the
			// submission date when the referee was never dated as contacted.
			start := ref.ContactDate
			if start == nil {
				start = m.SubmissionDate
			}
			if start != nil {
				if days := textparse.DaysBetween(*start, *ref.ReceivedDate); days >= 0 {
					turnarounds = append(turnarounds, days)
				}
			}
		} else if ref.Status != review.RefereeDeclined {
			ms.ReportsPending++
		}
		if ref.DueDate != nil && ref.ReceivedDate == nil {
			if ms.NextDueDate == nil || ref.DueDate.Before(*ms.NextDueDate) {
				ms.NextDueDate = ref.DueDate
			}
		}
	}

	if len(turnarounds) > 0 {
		total := 0
		ms.FastestReviewDays = turnarounds[0]
		ms.SlowestReviewDays = turnarounds[0]
		for _, d := range turnarounds {
			total += d
			if d < ms.FastestReviewDays {
				ms.FastestReviewDays = d
			}
			if d > ms.SlowestReviewDays {
				ms.SlowestReviewDays = d
			}
		}
		ms.AverageReviewTurnaroundDays = float64(total) / float64(len(turnarounds))
	}

	if m.SubmissionDate != nil {
		if days := textparse.DaysBetween(*m.SubmissionDate, now); days >= 0 {
			ms.DaysSinceSubmission = days
		}
		end := now
		if ms.LastReportReceived != nil && ms.ReportsPending == 0 {
			end = *ms.LastReportReceived
		}
		if days := textparse.DaysBetween(*m.SubmissionDate, end); days >= 0 {
			ms.DaysInReview = days
		}
	}
	if ms.NextDueDate != nil {
		ms.DaysUntilNextDue = textparse.DaysBetween(now, *ms.NextDueDate)
	}
	return ms
}

// ComputeRefereeStatistics derives interval statistics per referee, keyed by
// the referee's dedupe name key. An interval exists only when both endpoints
// do and the delta is non-negative.
func ComputeRefereeStatistics(m *review.Manuscript) map[string]*review.RefereeStats {
	stats := make(map[string]*review.RefereeStats, len(m.Referees))
	for _, ref := range m.Referees {
		s := &review.RefereeStats{
			InvitationToAgreementDays:  interval(ref.ContactDate, ref.AcceptanceDate),
			AgreementToSubmissionDays:  interval(ref.AcceptanceDate, ref.ReceivedDate),
			InvitationToSubmissionDays: interval(ref.ContactDate, ref.ReceivedDate),
			TotalReviewDays:            interval(ref.ContactDate, ref.ReceivedDate),
		}
		stats[review.NameKey(ref.Name)] = s
	}
	return stats
}

// interval returns the day count between two optional endpoints, or nil when
// either is missing or the raw delta is negative.
func interval(from, to *time.Time) *int {
	if from == nil || to == nil {
		return nil
	}
	days := textparse.DaysBetween(*from, *to)
	if days < 0 {
		return nil
	}
	return &days
}
