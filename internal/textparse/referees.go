package textparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"vellum/internal/review"
)

var (
	refereeNumber = regexp.MustCompile(`#\s*(\d+)`)
	// "Name, First" or "First Name" at the start of a listing row, before
	// any number marker or status keyword.
	refereeName = regexp.MustCompile(`^([A-Za-z][A-Za-z' .\-]+(?:,\s*[A-Za-z][A-Za-z' .\-]*)?)`)
	dueDateTag  = regexp.MustCompile(`(?i)due:?\s*([^;|]+)`)
)

// refereeStatusKeywords maps listing-row phrasing to the referee status enum.
// Ordered: more specific phrases first so "review complete" never matches the
// bare "review" invitation keyword.
var refereeStatusKeywords = []struct {
	keyword string
	status  review.RefereeStatus
}{
	{"completed review", review.RefereeComplete},
	{"review complete", review.RefereeComplete},
	{"review received", review.RefereeComplete},
	{"report submitted", review.RefereeComplete},
	{"submitted", review.RefereeComplete},
	{"overdue", review.RefereeOverdue},
	{"late", review.RefereeOverdue},
	{"declined", review.RefereeDeclined},
	{"unable", review.RefereeDeclined},
	{"agreed", review.RefereeAccepted},
	{"accepted", review.RefereeAccepted},
	{"invited", review.RefereeContacted},
	{"contacted", review.RefereeContacted},
	{"selected", review.RefereeContacted},
}

// refereeStatusWords are the single tokens that end a name candidate. Exact
// token matches only, so surnames like "Lateef" survive.
var refereeStatusWords = map[string]bool{
	"completed": true, "review": true, "received": true, "submitted": true,
	"report": true, "overdue": true, "late": true, "declined": true,
	"unable": true, "agreed": true, "accepted": true, "invited": true,
	"contacted": true, "selected": true,
}

// trimNameCandidate cuts a matched name span at the first " - " delimiter or
// status word, so "Smith, Ann - Invited" and "Smith, Ann Agreed" both yield
// "Smith, Ann".
func trimNameCandidate(candidate string) string {
	if i := strings.Index(candidate, " - "); i >= 0 {
		candidate = candidate[:i]
	}
	fields := strings.Fields(candidate)
	kept := fields[:0]
	for _, f := range fields {
		if refereeStatusWords[strings.ToLower(strings.Trim(f, ",.;:"))] {
			break
		}
		kept = append(kept, f)
	}
	return strings.Trim(strings.Join(kept, " "), ",.- ")
}

// RefereeKeywords is the heuristic used to decide whether a free-text line
// is talking about a referee at all.
var RefereeKeywords = []string{"reviewer", "referee", "review", "agreed", "invited", "declined", "due"}

// LooksLikeRefereeLine reports whether a free-text line passes the
// referee-keyword heuristic.
func LooksLikeRefereeLine(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range RefereeKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ParseRefereeStatus classifies free text into the referee status enum.
func ParseRefereeStatus(text string) (review.RefereeStatus, bool) {
	lower := strings.ToLower(text)
	for _, entry := range refereeStatusKeywords {
		if strings.Contains(lower, entry.keyword) {
			return entry.status, true
		}
	}
	return "", false
}

// ParseRefereeRow extracts a referee from one listing row, e.g.
//
//	"Jones, Robert #12 ... Agreed ... Due: 2024-03-01"
//
// yields {Name: "Jones, Robert", Number: 12, Status: Accepted,
// DueDate: 2024-03-01}. Returns ok=false when no plausible name is found.
func ParseRefereeRow(text string) (review.Referee, bool) {
	cleaned := CleanText(text)
	if cleaned == "" {
		return review.Referee{}, false
	}

	var ref review.Referee

	if m := refereeName.FindStringSubmatch(cleaned); m != nil {
		candidate := trimNameCandidate(m[1])
		// Reject rows whose "name" is actually a status word.
		if _, isStatus := ParseRefereeStatus(candidate); !isStatus && len(candidate) >= 3 {
			ref.Name = NormalizeName(candidate)
		}
	}
	if ref.Name == "" {
		return review.Referee{}, false
	}

	if m := refereeNumber.FindStringSubmatch(cleaned); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			ref.Number = n
		}
	}

	if status, ok := ParseRefereeStatus(cleaned); ok {
		ref.Status = status
	}

	if m := dueDateTag.FindStringSubmatch(cleaned); m != nil {
		if due := firstDateIn(m[1]); due != nil {
			ref.DueDate = due
		}
	}

	if email := ExtractEmail(cleaned); email != "" {
		ref.Email = email
	}

	return ref, true
}

func firstDateIn(text string) *time.Time {
	if d := ParseDate(text); d != nil {
		return d
	}
	return FindDate(text)
}
