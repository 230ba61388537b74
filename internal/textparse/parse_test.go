package textparse

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func TestParseCountLabel(t *testing.T) {
	cases := []struct {
		in    string
		name  string
		count int
		ok    bool
	}{
		{"New Assignments (12)", "New Assignments", 12, true},
		{"Reviews in Progress (3)", "Reviews in Progress", 3, true},
		{"12 AE", "AE", 12, true},
		{"7 Submissions Requiring Review", "Submissions Requiring Review", 7, true},
		{"No counts here", "", 0, false},
		{"(5)", "", 0, false},
		{"", "", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseCountLabel(tc.in)
		if ok != tc.ok {
			t.Errorf("ParseCountLabel(%q) ok = %v, want %v", tc.in, ok, tc.ok)
			continue
		}
		if ok && (got.Name != tc.name || got.Count != tc.count) {
			t.Errorf("ParseCountLabel(%q) = %+v, want {%s %d}", tc.in, got, tc.name, tc.count)
		}
	}
}

func TestParseDateFormats(t *testing.T) {
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for _, raw := range []string{"2024-03-01", "Mar 1, 2024", "1 Mar 2024", "01-Mar-2024", "03/01/2024", "01.03.2024"} {
		got := ParseDate(raw)
		if got == nil || !got.Equal(want) {
			t.Errorf("ParseDate(%q) = %v, want %v", raw, got, want)
		}
	}
	if got := ParseDate("not a date"); got != nil {
		t.Errorf("ParseDate(nonsense) = %v, want nil", got)
	}
}

func TestFindDateInFreeText(t *testing.T) {
	got := FindDate("Invitation sent on 15 Jan 2024 by the editorial office")
	if got == nil || !got.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("FindDate = %v", got)
	}
}

func TestLabelValuesFirstMatchWins(t *testing.T) {
	doc := mustDoc(t, `<table>
		<tr><td>Manuscript Title:</td><td>On Quiet Science</td></tr>
		<tr><td>Title</td><td>A later duplicate</td></tr>
		<tr><td>Current Status</td><td>Under Review</td></tr>
		<tr><td>lonely cell</td></tr>
	</table>`)
	values := LabelValues(doc, []string{"Title", "Status", "Keywords"})
	if values["Title"] != "On Quiet Science" {
		t.Fatalf("Title = %q, first match must win", values["Title"])
	}
	if values["Status"] != "Under Review" {
		t.Fatalf("Status = %q", values["Status"])
	}
	if _, ok := values["Keywords"]; ok {
		t.Fatal("Keywords should be absent, not empty")
	}
}

func TestSectionAfterHeading(t *testing.T) {
	doc := mustDoc(t, `<div>
		<h3>Reviewers</h3>
		<p>Jones, Robert #1 Agreed</p>
		<p>Chen, Wei #2 Invited</p>
		<h3>Documents</h3>
		<p>manuscript.pdf</p>
	</div>`)
	section := SectionAfterHeading(doc, "reviewers")
	if !strings.Contains(section, "Jones, Robert") || !strings.Contains(section, "Chen, Wei") {
		t.Fatalf("section missing referee lines: %q", section)
	}
	if strings.Contains(section, "manuscript.pdf") {
		t.Fatalf("section leaked past next heading: %q", section)
	}
}

func TestParseAuthorLinks(t *testing.T) {
	doc := mustDoc(t, `<span id="authors">
		<a href="mailto:a.one@uni-x.edu">A. One (University of X)</a>,
		<a href="#">B. Two (Institute Y)</a> (corresponding)
	</span>`)
	authors := ParseAuthorLinks(doc.Find("#authors"))
	if len(authors) != 2 {
		t.Fatalf("got %d authors", len(authors))
	}
	if authors[0].Affiliation != "University of X" {
		t.Fatalf("affiliation = %q", authors[0].Affiliation)
	}
	if authors[0].Email != "a.one@uni-x.edu" {
		t.Fatalf("email = %q", authors[0].Email)
	}
	if !authors[1].Corresponding {
		t.Fatal("second author should be flagged corresponding")
	}
}

func TestParseAuthorListFallback(t *testing.T) {
	authors := ParseAuthorList("A. One (Univ X); B. Two (Univ Y); C. Three")
	if len(authors) != 3 {
		t.Fatalf("got %d authors: %+v", len(authors), authors)
	}
	if authors[1].Name != "B. Two" || authors[1].Affiliation != "Univ Y" {
		t.Fatalf("second author = %+v", authors[1])
	}
	if authors[2].Affiliation != "" {
		t.Fatalf("third author affiliation = %q, want empty", authors[2].Affiliation)
	}
}

func TestParseAuthorListStripsMixedCaseEmail(t *testing.T) {
	authors := ParseAuthorList("Wei Chen Wei.Chen@lab.example.edu (Univ X)")
	if len(authors) != 1 {
		t.Fatalf("got %d authors: %+v", len(authors), authors)
	}
	if authors[0].Email != "wei.chen@lab.example.edu" {
		t.Fatalf("email = %q", authors[0].Email)
	}
	if authors[0].Name != "Wei Chen" {
		t.Fatalf("name = %q; the address must not leak into the name", authors[0].Name)
	}
}

func TestNormalizeNameAndSurname(t *testing.T) {
	if got := NormalizeName("  Dr.  Robert   Jones, PhD "); got != "Robert Jones" {
		t.Fatalf("NormalizeName = %q", got)
	}
	if got := Surname("Jones, Robert"); got != "Jones" {
		t.Fatalf("Surname = %q", got)
	}
	if got := Surname("Robert Jones"); got != "Jones" {
		t.Fatalf("Surname = %q", got)
	}
}

func TestSurnameMatches(t *testing.T) {
	if !SurnameMatches("Jones, Robert", "robert.jones@uni.example.edu") {
		t.Fatal("surname substring should match")
	}
	if SurnameMatches("Wu, Li", "jones@uni.example.edu") {
		t.Fatal("short surnames must not fuzzy-match")
	}
}
