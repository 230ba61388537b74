package textparse

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// LabelValues scans every two-cell table row in doc and returns a label→value
// map for the requested labels. Matching is case-insensitive on a contains
// basis; the first match per label wins, later rows never overwrite it.
func LabelValues(doc *goquery.Document, labels []string) map[string]string {
	out := make(map[string]string, len(labels))
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td, th")
		if cells.Length() < 2 {
			return
		}
		label := CleanText(cells.Eq(0).Text())
		if label == "" {
			return
		}
		value := CleanText(cells.Eq(1).Text())
		lower := strings.ToLower(label)
		for _, want := range labels {
			if _, done := out[want]; done {
				continue
			}
			if strings.Contains(lower, strings.ToLower(want)) {
				out[want] = value
			}
		}
	})
	return out
}

// TableRows returns the trimmed cell texts of every row under the selector,
// skipping rows with no non-empty cell.
func TableRows(doc *goquery.Document, selector string) [][]string {
	var rows [][]string
	doc.Find(selector).Find("tr").Each(func(_ int, row *goquery.Selection) {
		var cells []string
		nonEmpty := false
		row.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
			text := CleanText(cell.Text())
			if text != "" {
				nonEmpty = true
			}
			cells = append(cells, text)
		})
		if nonEmpty {
			rows = append(rows, cells)
		}
	})
	return rows
}

// SectionAfterHeading returns the visible text between the first heading
// whose text contains heading (case-insensitive) and the next heading of the
// same or higher level. Used for heading-anchored free-text scans when no
// structured table exists.
func SectionAfterHeading(doc *goquery.Document, heading string) string {
	want := strings.ToLower(heading)
	var section strings.Builder
	collecting := false
	doc.Find("h1, h2, h3, h4, b, strong, p, td, li, div").Each(func(_ int, sel *goquery.Selection) {
		text := CleanText(sel.Text())
		if text == "" {
			return
		}
		isHeading := sel.Is("h1, h2, h3, h4, b, strong")
		if isHeading {
			if collecting {
				collecting = false
				return
			}
			if strings.Contains(strings.ToLower(text), want) {
				collecting = true
			}
			return
		}
		if collecting && sel.Children().Length() == 0 {
			section.WriteString(text)
			section.WriteByte('\n')
		}
	})
	return strings.TrimSpace(section.String())
}

// Links returns (text, href) pairs for every anchor under the selection.
func Links(sel *goquery.Selection) [][2]string {
	var links [][2]string
	sel.Find("a").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		links = append(links, [2]string{CleanText(a.Text()), strings.TrimSpace(href)})
	})
	return links
}

// CleanText collapses runs of whitespace (including non-breaking spaces) and
// trims the result.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, " ", " ")
	return spaceRun.ReplaceAllString(strings.TrimSpace(text), " ")
}
