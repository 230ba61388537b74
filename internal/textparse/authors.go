package textparse

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"vellum/internal/review"
)

var trailingParen = regexp.MustCompile(`\(([^()]*)\)\s*$`)

// ParseAuthorLinks extracts authors from a structured field rendered as one
// inline link per author. A trailing parenthetical in the link text is the
// affiliation. A "corresponding" marker near the link sets the flag.
func ParseAuthorLinks(sel *goquery.Selection) []review.Author {
	var authors []review.Author
	sel.Find("a").Each(func(_ int, a *goquery.Selection) {
		text := CleanText(a.Text())
		if text == "" {
			return
		}
		author := splitAuthorText(text)
		if author.Name == "" {
			return
		}
		if href, ok := a.Attr("href"); ok {
			if email := ExtractEmail(href); email != "" {
				author.Email = email
			}
		}
		// The corresponding-author marker follows the link in most themes.
		if next := a.Nodes; len(next) > 0 {
			tail := CleanText(a.Parent().Text())
			idx := strings.Index(tail, text)
			if idx >= 0 && strings.Contains(strings.ToLower(tail[idx:min(len(tail), idx+len(text)+40)]), "correspond") {
				author.Corresponding = true
			}
		}
		authors = append(authors, author)
	})
	return authors
}

// ParseAuthorList is the fallback for plain delimiter-separated author
// fields: "A. One (Univ X); B. Two (Univ Y)" or comma/semicolon separated.
func ParseAuthorList(text string) []review.Author {
	cleaned := CleanText(text)
	if cleaned == "" {
		return nil
	}
	separator := ";"
	if !strings.Contains(cleaned, ";") {
		separator = ","
	}
	var authors []review.Author
	for _, part := range strings.Split(cleaned, separator) {
		author := splitAuthorText(part)
		if author.Name == "" {
			continue
		}
		authors = append(authors, author)
	}
	return authors
}

func splitAuthorText(text string) review.Author {
	text = CleanText(text)
	var author review.Author
	if m := trailingParen.FindStringSubmatch(text); m != nil {
		author.Affiliation = strings.TrimSpace(m[1])
		text = strings.TrimSpace(trailingParen.ReplaceAllString(text, ""))
	}
	// Strip the original-case match; ExtractEmail lowercases its result.
	if raw := emailPattern.FindString(text); raw != "" {
		author.Email = strings.ToLower(raw)
		text = strings.TrimSpace(strings.Replace(text, raw, "", 1))
	}
	author.Name = NormalizeName(strings.Trim(text, " ,;"))
	return author
}
