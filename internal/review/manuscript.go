package review

import (
	"strings"
	"time"
)

// RefereeStatus represents the lifecycle of a referee assignment.
type RefereeStatus string

const (
	RefereeContacted RefereeStatus = "Contacted"
	RefereeAccepted  RefereeStatus = "Accepted"
	RefereeDeclined  RefereeStatus = "Declined"
	RefereeComplete  RefereeStatus = "Complete"
	RefereeOverdue   RefereeStatus = "Overdue"
)

var refereeStatusSet = map[RefereeStatus]struct{}{
	RefereeContacted: {},
	RefereeAccepted:  {},
	RefereeDeclined:  {},
	RefereeComplete:  {},
	RefereeOverdue:   {},
}

// ParseRefereeStatus converts a string into a known RefereeStatus.
func ParseRefereeStatus(value string) (RefereeStatus, bool) {
	normalized := RefereeStatus(strings.TrimSpace(value))
	_, ok := refereeStatusSet[normalized]
	return normalized, ok
}

// Manuscript is the root of the entity graph for one submission.
type Manuscript struct {
	ID             string     `json:"id"`
	JournalCode    string     `json:"journal_code"`
	Title          string     `json:"title,omitempty"`
	Abstract       string     `json:"abstract,omitempty"`
	Keywords       []string   `json:"keywords,omitempty"`
	Status         string     `json:"status,omitempty"`
	SubmissionDate *time.Time `json:"submission_date,omitempty"`
	StatusDate     *time.Time `json:"status_date,omitempty"`
	Revision       int        `json:"revision"`

	Authors   []Author     `json:"authors,omitempty"`
	Referees  []Referee    `json:"referees,omitempty"`
	Documents []Document   `json:"documents,omitempty"`
	Trail     []AuditEvent `json:"audit_trail,omitempty"`

	Milestones *Milestones              `json:"milestones,omitempty"`
	Statistics map[string]*RefereeStats `json:"referee_statistics,omitempty"`
	Timeline   *TimelineAnalytics       `json:"timeline_analytics,omitempty"`

	// Extraction bookkeeping, not platform data.
	HarvestedAt  time.Time `json:"harvested_at"`
	PartialSteps []string  `json:"partial_steps,omitempty"`
}

// Author describes one listed author of a manuscript.
type Author struct {
	Name          string `json:"name"`
	Email         string `json:"email,omitempty"`
	Affiliation   string `json:"affiliation,omitempty"`
	Country       string `json:"country,omitempty"`
	ExternalID    string `json:"external_id,omitempty"`
	Corresponding bool   `json:"corresponding"`
}

// Referee describes one reviewer assignment, including any reports filed.
type Referee struct {
	Name        string        `json:"name"`
	Number      int           `json:"referee_number,omitempty"`
	Email       string        `json:"email,omitempty"`
	Affiliation string        `json:"affiliation,omitempty"`
	Status      RefereeStatus `json:"status,omitempty"`

	ContactDate    *time.Time `json:"contact_date,omitempty"`
	AcceptanceDate *time.Time `json:"acceptance_date,omitempty"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	ReceivedDate   *time.Time `json:"received_date,omitempty"`

	Reports []Report `json:"reports,omitempty"`
}

// Report holds one referee report for a given revision.
type Report struct {
	Recommendation  string         `json:"recommendation,omitempty"`
	CommentsToAuth  string         `json:"comments_to_author,omitempty"`
	Confidential    string         `json:"confidential_comments,omitempty"`
	Scores          map[string]int `json:"scores,omitempty"`
	Revision        int            `json:"revision"`
	RefereeNumber   int            `json:"referee_number,omitempty"`
	RefereeNameHint string         `json:"referee_name_hint,omitempty"`
}

// HasReport reports whether the referee filed a report for the given revision.
func (r Referee) HasReport(revision int) bool {
	for _, rep := range r.Reports {
		if rep.Revision == revision {
			return true
		}
	}
	return false
}

// NameKey returns the dedupe key for referee identity within one manuscript:
// case-insensitive with whitespace collapsed.
func NameKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// FindReferee locates a referee by normalized name. Returns nil when absent.
func (m *Manuscript) FindReferee(name string) *Referee {
	key := NameKey(name)
	if key == "" {
		return nil
	}
	for i := range m.Referees {
		if NameKey(m.Referees[i].Name) == key {
			return &m.Referees[i]
		}
	}
	return nil
}

// FindRefereeByNumber locates a referee by its platform-internal number.
func (m *Manuscript) FindRefereeByNumber(number int) *Referee {
	if number <= 0 {
		return nil
	}
	for i := range m.Referees {
		if m.Referees[i].Number == number {
			return &m.Referees[i]
		}
	}
	return nil
}

// AddReferee merges a referee into the manuscript, deduplicating by
// normalized name. Existing fields win; empty fields are filled from the
// incoming record. Returns the stored referee.
func (m *Manuscript) AddReferee(ref Referee) *Referee {
	if existing := m.FindReferee(ref.Name); existing != nil {
		existing.merge(ref)
		return existing
	}
	m.Referees = append(m.Referees, ref)
	return &m.Referees[len(m.Referees)-1]
}

func (r *Referee) merge(in Referee) {
	if r.Number == 0 {
		r.Number = in.Number
	}
	if r.Email == "" {
		r.Email = in.Email
	}
	if r.Affiliation == "" {
		r.Affiliation = in.Affiliation
	}
	if r.Status == "" {
		r.Status = in.Status
	}
	if r.ContactDate == nil {
		r.ContactDate = in.ContactDate
	}
	if r.AcceptanceDate == nil {
		r.AcceptanceDate = in.AcceptanceDate
	}
	if r.DueDate == nil {
		r.DueDate = in.DueDate
	}
	if r.ReceivedDate == nil {
		r.ReceivedDate = in.ReceivedDate
	}
	r.Reports = append(r.Reports, in.Reports...)
}

// MarkPartial records that an extraction step produced incomplete data.
func (m *Manuscript) MarkPartial(step string) {
	for _, s := range m.PartialSteps {
		if s == step {
			return
		}
	}
	m.PartialSteps = append(m.PartialSteps, step)
}

// IsPartial reports whether any extraction step degraded to partial data.
func (m *Manuscript) IsPartial() bool {
	return len(m.PartialSteps) > 0
}
