package analytics

import (
	"time"

	"vellum/internal/review"
	"vellum/internal/textparse"
)

// reminderResponseWindowDays bounds how long after a reminder a response
// still counts as caused by it.
const reminderResponseWindowDays = 7

// ComputeTimelineAnalytics summarizes communication patterns over a
// finalized audit trail.
func ComputeTimelineAnalytics(events []review.AuditEvent) *review.TimelineAnalytics {
	ta := &review.TimelineAnalytics{}
	if len(events) == 0 {
		return ta
	}

	var earliest, latest time.Time
	participants := make(map[string]struct{})
	for _, ev := range events {
		if earliest.IsZero() || ev.Date.Before(earliest) {
			earliest = ev.Date
		}
		if ev.Date.After(latest) {
			latest = ev.Date
		}
		ta.EventsByWeekday[int(ev.Date.Weekday())]++
		ta.EventsByHour[ev.Date.Hour()]++
		for _, actor := range []string{ev.From, ev.To} {
			if key := review.NameKey(actor); key != "" {
				participants[key] = struct{}{}
			}
		}
	}
	ta.SpanDays = textparse.DaysBetween(earliest, latest)
	ta.UniqueParticipants = len(participants)

	computeResponseTimes(ta, events)
	computeReminderEffectiveness(ta, events)
	return ta
}

// computeResponseTimes measures invitation-to-acceptance latency per
// recipient: each invitation pairs with the next later acceptance by the
// same actor.
func computeResponseTimes(ta *review.TimelineAnalytics, events []review.AuditEvent) {
	var responses []int
	for _, inv := range events {
		if inv.Type != review.EventInvitation {
			continue
		}
		actor := firstActor(inv)
		if actor == "" {
			continue
		}
		best := -1
		for _, acc := range events {
			if acc.Type != review.EventAcceptance || acc.Date.Before(inv.Date) {
				continue
			}
			if firstActor(acc) != actor {
				continue
			}
			days := textparse.DaysBetween(inv.Date, acc.Date)
			if days >= 0 && (best < 0 || days < best) {
				best = days
			}
		}
		if best >= 0 {
			responses = append(responses, best)
		}
	}
	if len(responses) == 0 {
		return
	}
	total := 0
	ta.FastestResponseDays = responses[0]
	ta.SlowestResponseDays = responses[0]
	for _, d := range responses {
		total += d
		if d < ta.FastestResponseDays {
			ta.FastestResponseDays = d
		}
		if d > ta.SlowestResponseDays {
			ta.SlowestResponseDays = d
		}
	}
	ta.AvgResponseDays = float64(total) / float64(len(responses))
}

// computeReminderEffectiveness counts reminders followed within the response
// window by a response-type event for the same actor.
func computeReminderEffectiveness(ta *review.TimelineAnalytics, events []review.AuditEvent) {
	for _, rem := range events {
		if rem.Type != review.EventReminder {
			continue
		}
		ta.RemindersSent++
		actor := firstActor(rem)
		var next *time.Time
		for _, resp := range events {
			if _, ok := review.ResponseTypes[resp.Type]; !ok {
				continue
			}
			if resp.Date.Before(rem.Date) {
				continue
			}
			if actor != "" && firstActor(resp) != actor {
				continue
			}
			if next == nil || resp.Date.Before(*next) {
				d := resp.Date
				next = &d
			}
		}
		// Only the next response after the reminder counts; a later one
		// outside the window means the reminder did not work.
		if next != nil && textparse.DaysBetween(rem.Date, *next) <= reminderResponseWindowDays {
			ta.EffectiveReminders++
		}
	}
	if ta.RemindersSent > 0 {
		ta.ReminderEffectiveness = float64(ta.EffectiveReminders) / float64(ta.RemindersSent)
	}
}

// firstActor returns the referee-side actor of an event: the recipient for
// outbound mail (invitations, reminders), else the sender.
func firstActor(ev review.AuditEvent) string {
	switch ev.Type {
	case review.EventInvitation, review.EventReminder, review.EventOverdue:
		if ev.To != "" {
			return review.NameKey(ev.To)
		}
		return review.NameKey(ev.From)
	default:
		if ev.From != "" {
			return review.NameKey(ev.From)
		}
		return review.NameKey(ev.To)
	}
}
