package textparse

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	spaceRun     = regexp.MustCompile(`\s+`)
)

// NormalizeName canonicalizes a person name for comparison: Unicode NFKC,
// collapsed whitespace, stripped titles and trailing degree suffixes.
func NormalizeName(name string) string {
	name = norm.NFKC.String(name)
	name = spaceRun.ReplaceAllString(strings.TrimSpace(name), " ")
	for _, prefix := range []string{"Dr. ", "Dr ", "Prof. ", "Prof ", "Professor "} {
		if strings.HasPrefix(name, prefix) {
			name = strings.TrimSpace(strings.TrimPrefix(name, prefix))
			break
		}
	}
	for _, suffix := range []string{", PhD", ", Ph.D.", ", MD", ", M.D.", ", Jr."} {
		name = strings.TrimSuffix(name, suffix)
	}
	return strings.TrimSpace(name)
}

// Surname extracts the family name. "Jones, Robert" yields "Jones";
// "Robert Jones" yields "Jones".
func Surname(name string) string {
	name = NormalizeName(name)
	if name == "" {
		return ""
	}
	if comma := strings.Index(name, ","); comma >= 0 {
		return strings.TrimSpace(name[:comma])
	}
	fields := strings.Fields(name)
	return fields[len(fields)-1]
}

// ExtractEmail returns the first email address in text, lowercased, or "".
func ExtractEmail(text string) string {
	return strings.ToLower(emailPattern.FindString(text))
}

// SurnameMatches reports whether candidate plausibly refers to the named
// person: the person's surname appears as a substring, case-insensitively.
// This is the last-resort fuzzy match used by audit backfill; callers log
// every hit so mis-attribution between people sharing a surname stays
// auditable.
func SurnameMatches(personName, candidate string) bool {
	surname := strings.ToLower(Surname(personName))
	if len(surname) < 3 {
		return false
	}
	return strings.Contains(strings.ToLower(candidate), surname)
}
