package textparse

import (
	"regexp"
	"strings"
	"time"
)

// dateFormats is the ordered list of layouts tried against raw platform
// dates. Order matters: unambiguous layouts come first so "2024-03-01" never
// parses as day-first.
var dateFormats = []string{
	"2006-01-02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"02-Jan-2006",
	"01/02/2006",
	"02.01.2006",
	"Jan 2, 2006 15:04",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05Z07:00",
}

var dateFragment = regexp.MustCompile(`(\d{4}-\d{2}-\d{2}(?:[ T]\d{2}:\d{2}(?::\d{2})?)?|\d{1,2}[-/. ](?:[A-Za-z]{3,9}|\d{1,2})[-/. ]\d{4}|[A-Za-z]{3,9} \d{1,2}, \d{4}(?: \d{1,2}:\d{2})?)`)

// ParseDate tries each known layout against text. Returns nil on miss.
func ParseDate(text string) *time.Time {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, trimmed); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// FindDate scans free text for the first recognizable date fragment.
func FindDate(text string) *time.Time {
	match := dateFragment.FindString(text)
	if match == "" {
		return nil
	}
	return ParseDate(match)
}

// DaysBetween returns whole days from a to b, truncating toward zero.
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
