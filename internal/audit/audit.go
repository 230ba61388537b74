// Package audit merges the platform's heterogeneous event logs into one
// ordered, deduplicated, classified timeline per manuscript.
package audit

import (
	"sort"
	"strings"
	"time"

	"vellum/internal/review"
	"vellum/internal/textparse"
)

// Row is one raw event from any source, before classification.
type Row struct {
	Date        time.Time
	Description string
	From        string
	To          string
	Source      review.EventSource
}

// StatusHistoryRows converts a scraped status-history table into raw rows.
// Each table row carries a workflow stage and a date in either order;
// rows without a parseable date are dropped.
func StatusHistoryRows(cells [][]string) []Row {
	var rows []Row
	for _, row := range cells {
		var date *time.Time
		var stage string
		for _, cell := range row {
			if date == nil {
				if d := textparse.FindDate(cell); d != nil {
					date = d
					continue
				}
			}
			if text := textparse.CleanText(cell); text != "" && len(text) > len(stage) {
				stage = text
			}
		}
		if date == nil || stage == "" {
			continue
		}
		rows = append(rows, Row{
			Date:        *date,
			Description: stage,
			Source:      review.SourceStatusHistory,
		})
	}
	return rows
}

// CorrespondenceRows converts a correspondence/email log into raw rows.
// Expected cell layout: date, triggered-by, recipient, subject; shorter rows
// degrade to whatever cells exist.
func CorrespondenceRows(cells [][]string) []Row {
	var rows []Row
	for _, row := range cells {
		if len(row) == 0 {
			continue
		}
		date := textparse.FindDate(row[0])
		if date == nil {
			// Some themes put the date last.
			date = textparse.FindDate(strings.Join(row, " "))
		}
		if date == nil {
			continue
		}
		r := Row{Date: *date, Source: review.SourceCorrespondence}
		if len(row) > 1 {
			r.From = textparse.CleanText(row[1])
		}
		if len(row) > 2 {
			r.To = textparse.CleanText(row[2])
		}
		if len(row) > 3 {
			r.Description = textparse.CleanText(row[3])
		} else {
			r.Description = textparse.CleanText(row[len(row)-1])
		}
		rows = append(rows, r)
	}
	return rows
}

// InferredRows synthesizes events directly from manuscript and referee
// fields. Used when the platform exposes no explicit log, and merged in
// otherwise so field-only facts still appear on the trail.
func InferredRows(m *review.Manuscript) []Row {
	var rows []Row
	if m.SubmissionDate != nil {
		rows = append(rows, Row{
			Date:        *m.SubmissionDate,
			Description: "Manuscript submission received",
			Source:      review.SourceInferred,
		})
	}
	for _, ref := range m.Referees {
		if ref.ContactDate != nil {
			rows = append(rows, Row{
				Date:        *ref.ContactDate,
				Description: "Reviewer invitation sent",
				To:          ref.Name,
				Source:      review.SourceInferred,
			})
		}
		if ref.AcceptanceDate != nil {
			desc := "Reviewer agreed to review"
			if ref.Status == review.RefereeDeclined {
				desc = "Reviewer declined to review"
			}
			rows = append(rows, Row{
				Date:        *ref.AcceptanceDate,
				Description: desc,
				From:        ref.Name,
				Source:      review.SourceInferred,
			})
		}
		if ref.ReceivedDate != nil {
			rows = append(rows, Row{
				Date:        *ref.ReceivedDate,
				Description: "Review received",
				From:        ref.Name,
				Source:      review.SourceInferred,
			})
		}
	}
	if m.StatusDate != nil && strings.Contains(strings.ToLower(m.Status), "decision") {
		rows = append(rows, Row{
			Date:        *m.StatusDate,
			Description: "Editorial decision: " + m.Status,
			Source:      review.SourceInferred,
		})
	}
	return rows
}

// BuildTrail classifies, deduplicates, and orders raw rows into the final
// audit trail. With no explicit rows at all, the trail is synthesized from
// manuscript fields. Deduplication is by (date, type, from, to); the result
// sorts descending by date with stable 1-based sequence numbers. Running it
// twice on identical inputs yields an identical list.
func BuildTrail(m *review.Manuscript, rows []Row) []review.AuditEvent {
	if len(rows) == 0 {
		rows = InferredRows(m)
	}

	seen := make(map[string]struct{}, len(rows))
	events := make([]review.AuditEvent, 0, len(rows))
	for _, row := range rows {
		if row.Date.IsZero() {
			continue
		}
		ev := review.AuditEvent{
			Date:        row.Date,
			Type:        textparse.ClassifyEvent(row.Description),
			From:        row.From,
			To:          row.To,
			Source:      row.Source,
			Description: row.Description,
		}
		key := ev.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		events = append(events, ev)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.After(events[j].Date)
	})
	for i := range events {
		events[i].Sequence = i + 1
	}
	return events
}
