package enrich

import (
	"context"
	"log/slog"

	"vellum/internal/logging"
	"vellum/internal/review"
)

// ApplyToManuscript enriches every author and referee still missing an
// affiliation, one call per person, and reports how many people gained data.
// Individual failures are logged and skipped.
func ApplyToManuscript(ctx context.Context, enricher PeopleEnricher, m *review.Manuscript, logger *slog.Logger) int {
	enriched := 0
	for i := range m.Authors {
		a := &m.Authors[i]
		if a.Affiliation != "" {
			continue
		}
		result, err := enricher.Enrich(ctx, Person{Name: a.Name, Email: a.Email, Affiliation: a.Affiliation, Country: a.Country})
		if err != nil {
			logger.Warn("author enrichment failed",
				logging.String(logging.FieldManuscriptID, m.ID),
				logging.String("person", a.Name),
				logging.Error(err),
			)
			continue
		}
		if applyPerson(result, &a.Email, &a.Affiliation, &a.Country) {
			enriched++
		}
	}
	for i := range m.Referees {
		r := &m.Referees[i]
		if r.Affiliation != "" {
			continue
		}
		result, err := enricher.Enrich(ctx, Person{Name: r.Name, Email: r.Email, Affiliation: r.Affiliation})
		if err != nil {
			logger.Warn("referee enrichment failed",
				logging.String(logging.FieldManuscriptID, m.ID),
				logging.String("person", r.Name),
				logging.Error(err),
			)
			continue
		}
		var country string
		if applyPerson(result, &r.Email, &r.Affiliation, &country) {
			enriched++
		}
	}
	return enriched
}

func applyPerson(result Person, email, affiliation, country *string) bool {
	gained := false
	if *email == "" && result.Email != "" {
		*email = result.Email
		gained = true
	}
	if *affiliation == "" && result.Affiliation != "" {
		*affiliation = result.Affiliation
		gained = true
	}
	if *country == "" && result.Country != "" {
		*country = result.Country
		gained = true
	}
	return gained
}
