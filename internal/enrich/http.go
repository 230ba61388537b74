package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vellum/internal/audit"
	"vellum/internal/config"
	"vellum/internal/review"
	"vellum/internal/services"
	"vellum/internal/textparse"
)

// NewFromConfig wires the configured enrichment collaborators, substituting
// noops for any service without a URL.
func NewFromConfig(cfg config.Enrichment) (PeopleEnricher, CommLogSearcher) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	var people PeopleEnricher = NoopEnricher{}
	if strings.TrimSpace(cfg.PeopleURL) != "" {
		people = &httpEnricher{endpoint: cfg.PeopleURL, client: client}
	}
	var commLog CommLogSearcher = NoopCommLog{}
	if strings.TrimSpace(cfg.CommLogURL) != "" {
		commLog = &httpCommLog{endpoint: cfg.CommLogURL, client: client}
	}
	return people, commLog
}

// httpEnricher POSTs the person to the enrichment service and reads back the
// completed record.
type httpEnricher struct {
	endpoint string
	client   *http.Client
}

func (e *httpEnricher) Enrich(ctx context.Context, p Person) (Person, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return p, fmt.Errorf("marshal person: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return p, fmt.Errorf("build enrich request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return p, services.Wrap(services.ErrTransient, "enrich", "people", p.Name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return p, services.Wrap(services.ErrTransient, "enrich", "people",
			fmt.Sprintf("status %d for %s", resp.StatusCode, p.Name), nil)
	}

	var enriched Person
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&enriched); err != nil {
		return p, fmt.Errorf("decode enriched person: %w", err)
	}
	// The service only ever adds; blank fields in the response keep the
	// extracted values.
	if enriched.Email == "" {
		enriched.Email = p.Email
	}
	if enriched.Affiliation == "" {
		enriched.Affiliation = p.Affiliation
	}
	if enriched.Country == "" {
		enriched.Country = p.Country
	}
	if enriched.Name == "" {
		enriched.Name = p.Name
	}
	return enriched, nil
}

// commLogEvent is the wire shape of one archived communication.
type commLogEvent struct {
	Date    string `json:"date"`
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
}

type httpCommLog struct {
	endpoint string
	client   *http.Client
}

func (c *httpCommLog) SearchByManuscript(ctx context.Context, manuscriptID string, participantEmails []string, from, to time.Time) ([]audit.Row, error) {
	endpoint, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse comm-log endpoint: %w", err)
	}
	query := endpoint.Query()
	query.Set("manuscript", manuscriptID)
	if len(participantEmails) > 0 {
		query.Set("participants", strings.Join(participantEmails, ","))
	}
	if !from.IsZero() {
		query.Set("from", from.Format("2006-01-02"))
	}
	if !to.IsZero() {
		query.Set("to", to.Format("2006-01-02"))
	}
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build comm-log request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "enrich", "comm-log search", manuscriptID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrTransient, "enrich", "comm-log search",
			fmt.Sprintf("status %d for %s", resp.StatusCode, manuscriptID), nil)
	}

	var events []commLogEvent
	if err := json.NewDecoder(io.LimitReader(resp.Body, 8<<20)).Decode(&events); err != nil {
		return nil, fmt.Errorf("decode comm-log events: %w", err)
	}

	rows := make([]audit.Row, 0, len(events))
	for _, ev := range events {
		date := textparse.ParseDate(ev.Date)
		if date == nil {
			continue
		}
		rows = append(rows, audit.Row{
			Date:        *date,
			Description: ev.Subject,
			From:        ev.From,
			To:          ev.To,
			Source:      review.SourceCommLog,
		})
	}
	return rows, nil
}
