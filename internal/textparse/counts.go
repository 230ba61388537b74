package textparse

import (
	"regexp"
	"strconv"
	"strings"
)

// Category-count grammar. Platforms render pending-item counts either as a
// trailing parenthetical ("New Assignments (12)") or as a leading number with
// a role suffix ("12 AE").
var (
	trailingCount = regexp.MustCompile(`^(.*?)\s*\((\d+)\)\s*$`)
	leadingCount  = regexp.MustCompile(`^(\d+)\s+([A-Za-z].*)$`)
)

// CountLabel is a parsed category heading.
type CountLabel struct {
	Name  string
	Count int
}

// ParseCountLabel extracts a category name and pending-item count from a
// queue heading. Returns ok=false when no count pattern matches.
func ParseCountLabel(text string) (CountLabel, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return CountLabel{}, false
	}
	if m := trailingCount.FindStringSubmatch(trimmed); m != nil {
		n, err := strconv.Atoi(m[2])
		if err == nil && strings.TrimSpace(m[1]) != "" {
			return CountLabel{Name: strings.TrimSpace(m[1]), Count: n}, true
		}
	}
	if m := leadingCount.FindStringSubmatch(trimmed); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return CountLabel{Name: strings.TrimSpace(m[2]), Count: n}, true
		}
	}
	return CountLabel{}, false
}
