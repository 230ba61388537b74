package audit

import (
	"log/slog"
	"time"

	"vellum/internal/logging"
	"vellum/internal/review"
	"vellum/internal/textparse"
)

// BackfillRefereeDates fills a referee's missing contact, acceptance, and
// received dates from the first trail event of the matching type whose actor
// or recipient matches the referee: exact email match first, surname
// substring as the fuzzy fallback. Fuzzy hits are logged because two people
// sharing a surname can mis-attribute a date.
func BackfillRefereeDates(m *review.Manuscript, logger *slog.Logger) {
	if len(m.Trail) == 0 {
		return
	}
	for i := range m.Referees {
		ref := &m.Referees[i]
		if ref.ContactDate == nil {
			ref.ContactDate = findEventDate(m, ref, review.EventInvitation, logger)
		}
		if ref.AcceptanceDate == nil {
			ref.AcceptanceDate = findEventDate(m, ref, review.EventAcceptance, logger)
		}
		if ref.ReceivedDate == nil {
			ref.ReceivedDate = findEventDate(m, ref, review.EventReviewReceived, logger)
		}
	}
}

func findEventDate(m *review.Manuscript, ref *review.Referee, kind review.EventType, logger *slog.Logger) *time.Time {
	for _, ev := range m.Trail {
		if ev.Type != kind {
			continue
		}
		exact, fuzzy := actorMatches(ref, ev.From)
		if !exact && !fuzzy {
			exact, fuzzy = actorMatches(ref, ev.To)
		}
		if !exact && !fuzzy {
			continue
		}
		if fuzzy && !exact {
			logger.Debug("referee date backfilled by surname match",
				logging.String(logging.FieldManuscriptID, m.ID),
				logging.String("referee", ref.Name),
				logging.String("event_actor", ev.From+"/"+ev.To),
				logging.String("event_type", string(kind)),
			)
		}
		date := ev.Date
		return &date
	}
	return nil
}

// actorMatches reports (exact email match, fuzzy surname match) of an event
// actor string against a referee.
func actorMatches(ref *review.Referee, actor string) (bool, bool) {
	if actor == "" {
		return false, false
	}
	if ref.Email != "" {
		if email := textparse.ExtractEmail(actor); email != "" && email == ref.Email {
			return true, false
		}
	}
	if textparse.SurnameMatches(ref.Name, actor) {
		return false, true
	}
	return false, false
}
