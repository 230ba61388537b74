package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"vellum/internal/browser"
	"vellum/internal/config"
	"vellum/internal/credentials"
	"vellum/internal/logging"
	"vellum/internal/review"
	"vellum/internal/services"
	"vellum/internal/textparse"
)

// Category is one named manuscript queue on the platform.
type Category struct {
	Name      string
	ItemCount int
	Locator   string
}

// ManuscriptRef locates one manuscript inside a category.
type ManuscriptRef struct {
	ID      string
	Locator string
}

// Downloader fetches one document for a manuscript, deduplicating by
// (manuscript id, category). The downloads package provides the real one.
type Downloader interface {
	Fetch(ctx context.Context, srcURL, manuscriptID string, category review.DocumentCategory) (string, error)
}

// fieldLabels names the label-table rows the metadata step looks for. Label
// matching is case-insensitive contains, first match wins.
type fieldLabels struct {
	Title      string
	Abstract   string
	Keywords   string
	Status     string
	Submission string
	StatusDate string
	Revision   string
	Authors    string
}

// PlatformProfile parameterizes the shared engine for one platform family:
// selectors, URL shapes, the manuscript-id pattern, and label vocabulary.
type PlatformProfile struct {
	Name string

	// Login form.
	LoginUserSelector   string
	LoginPassSelector   string
	LoginSubmitSelector string
	RoleOptionSelector  string
	DashboardSelector   string

	// Discovery.
	CategoryLinkSelector string
	IDPattern            *regexp.Regexp
	NextPageSelector     string
	MaxPages             int

	// ContentFrame, when set, is the iframe holding the working area. All
	// per-manuscript parsing happens inside it.
	ContentFrame string

	// Per-manuscript extraction.
	Labels                fieldLabels
	AuthorFieldSelector   string
	RefereeTableSelector  string
	RefereeHeading        string
	RefereeProfileTrigger string // format arg: referee number
	ProfileEmailLabel     string
	ProfileOrgLabel       string
	DocumentLinkSelector  string
	ReportTableSelector   string
	ReportHeading         string

	// Audit sources on the detail page.
	StatusHistorySelector  string
	CorrespondenceSelector string
}

// runState carries the mutable per-run scraping state every step reads and
// writes: what we are working on, the last caught error, and whether the
// surface is currently scoped into a sub-frame.
type runState struct {
	manuscriptID string
	lastError    string
	inFrame      bool
}

// Engine drives one journal on one platform family. EditorialManagerEngine
// and ScholarOneEngine are this type with different profiles.
type Engine struct {
	profile   PlatformProfile
	journal   config.Journal
	ctrl      *browser.Controller
	downloads Downloader
	policy    browser.RetryPolicy
	waitFor   time.Duration
	diagDir   string
	logger    *slog.Logger
}

func newEngine(profile PlatformProfile, journal config.Journal, browserCfg config.Browser, retryCfg config.Retry, factory browser.Factory, creds credentials.Provider, downloads Downloader, diagDir string, logger *slog.Logger) *Engine {
	proc := loginProc{profile: profile, wait: time.Duration(browserCfg.WaitTimeoutSec) * time.Second}
	ctrl := browser.NewController(journal, browserCfg, retryCfg, factory, creds, proc, logger)
	return &Engine{
		profile:   profile,
		journal:   journal,
		ctrl:      ctrl,
		downloads: downloads,
		policy:    browser.PolicyFromConfig(retryCfg),
		waitFor:   time.Duration(browserCfg.WaitTimeoutSec) * time.Second,
		diagDir:   diagDir,
		logger:    logging.NewComponentLogger(logger, strings.ToLower(profile.Name)),
	}
}

// Controller exposes the session controller so the workflow can run health
// checks between manuscripts.
func (e *Engine) Controller() *browser.Controller {
	return e.ctrl
}

// DiscoverCategories parses the dashboard queue listing into named
// categories with pending-item counts. When the journal configures a
// category allow-list, only names containing one of its entries survive;
// otherwise every non-empty category is returned.
func (e *Engine) DiscoverCategories(ctx context.Context) ([]Category, error) {
	doc, err := e.snapshot(ctx)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "discovery", "snapshot dashboard", "", err)
	}

	var categories []Category
	doc.Find(e.profile.CategoryLinkSelector).Each(func(_ int, a *goquery.Selection) {
		text := textparse.CleanText(a.Text())
		label, ok := textparse.ParseCountLabel(text)
		if !ok {
			return
		}
		href, _ := a.Attr("href")
		categories = append(categories, Category{
			Name:      label.Name,
			ItemCount: label.Count,
			Locator:   strings.TrimSpace(href),
		})
	})

	filtered := categories[:0]
	for _, cat := range categories {
		if !e.categoryAllowed(cat.Name) {
			continue
		}
		if len(e.journal.Categories) == 0 && cat.ItemCount == 0 {
			continue
		}
		filtered = append(filtered, cat)
	}

	e.logger.Info("categories discovered",
		logging.String(logging.FieldJournal, e.journal.Code),
		logging.Int("total", len(categories)),
		logging.Int("selected", len(filtered)),
	)
	return filtered, nil
}

func (e *Engine) categoryAllowed(name string) bool {
	if len(e.journal.Categories) == 0 {
		return true
	}
	lower := strings.ToLower(name)
	for _, want := range e.journal.Categories {
		if strings.Contains(lower, strings.ToLower(want)) {
			return true
		}
	}
	return false
}

// CollectManuscriptIDs navigates into a category and scans every row and
// link for the platform's manuscript-id pattern, page by page, deduplicating
// within the category. A non-zero declared count with zero parsed ids saves
// a diagnostic snapshot and returns an empty, non-fatal result.
func (e *Engine) CollectManuscriptIDs(ctx context.Context, cat Category) ([]ManuscriptRef, error) {
	surface := e.ctrl.Surface()
	target, err := e.resolveURL(cat.Locator)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "discovery", "resolve category locator", cat.Name, err)
	}
	if err := e.navigate(ctx, target); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var refs []ManuscriptRef

	maxPages := e.profile.MaxPages
	if maxPages <= 0 {
		maxPages = 50
	}
	for page := 0; page < maxPages; page++ {
		doc, err := e.snapshot(ctx)
		if err != nil {
			e.ctrl.NoteError(err)
			break
		}
		for _, ref := range e.scanIDs(doc) {
			if _, dup := seen[ref.ID]; dup {
				continue
			}
			seen[ref.ID] = struct{}{}
			refs = append(refs, ref)
		}
		if e.profile.NextPageSelector == "" || !surface.WaitFor(ctx, e.profile.NextPageSelector, 2*time.Second) {
			break
		}
		if err := surface.Click(ctx, e.profile.NextPageSelector); err != nil {
			break
		}
	}

	if cat.ItemCount > 0 && len(refs) == 0 {
		e.saveDiagnostic(ctx, cat)
	}

	e.logger.Info("manuscripts collected",
		logging.String(logging.FieldJournal, e.journal.Code),
		logging.String(logging.FieldCategory, cat.Name),
		logging.Int("declared", cat.ItemCount),
		logging.Int("found", len(refs)),
	)
	return refs, nil
}

func (e *Engine) scanIDs(doc *goquery.Document) []ManuscriptRef {
	var refs []ManuscriptRef
	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		text := textparse.CleanText(a.Text())
		for _, candidate := range []string{text, href} {
			if id := e.profile.IDPattern.FindString(candidate); id != "" {
				refs = append(refs, ManuscriptRef{ID: id, Locator: strings.TrimSpace(href)})
				return
			}
		}
	})
	// Rows without links still carry ids in some listing themes.
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		if row.Find("a").Length() > 0 {
			return
		}
		if id := e.profile.IDPattern.FindString(row.Text()); id != "" {
			refs = append(refs, ManuscriptRef{ID: id})
		}
	})
	return refs
}

// ExtractManuscript assembles one manuscript record. Each step is failure
// isolated: a failing step logs, marks the record partial, and the rest of
// the steps still run. The returned record is never nil.
func (e *Engine) ExtractManuscript(ctx context.Context, ref ManuscriptRef) *review.Manuscript {
	m := &review.Manuscript{
		ID:          ref.ID,
		JournalCode: e.journal.Code,
		HarvestedAt: time.Now().UTC(),
	}
	rs := &runState{manuscriptID: ref.ID}

	if ref.Locator != "" {
		target, err := e.resolveURL(ref.Locator)
		if err == nil {
			err = e.navigate(ctx, target)
		}
		if err != nil {
			e.noteStepFailure(rs, m, "navigate", err)
			return m
		}
	}

	e.step(ctx, rs, m, "metadata", e.extractMetadata)
	e.step(ctx, rs, m, "authors", e.extractAuthors)
	e.step(ctx, rs, m, "referees", e.extractReferees)
	e.step(ctx, rs, m, "referee-contacts", e.enrichRefereeContacts)
	e.step(ctx, rs, m, "documents", e.extractDocuments)
	e.step(ctx, rs, m, "reports", e.extractReports)

	return m
}

type stepFunc func(ctx context.Context, rs *runState, m *review.Manuscript) error

func (e *Engine) step(ctx context.Context, rs *runState, m *review.Manuscript, name string, fn stepFunc) {
	if err := fn(ctx, rs, m); err != nil {
		e.noteStepFailure(rs, m, name, err)
	}
}

func (e *Engine) noteStepFailure(rs *runState, m *review.Manuscript, step string, err error) {
	rs.lastError = err.Error()
	e.ctrl.NoteError(err)
	m.MarkPartial(step)
	e.logger.Warn("extraction step failed",
		logging.String(logging.FieldManuscriptID, rs.manuscriptID),
		logging.String(logging.FieldStage, step),
		logging.Error(err),
	)
}

// inContent runs fn against the working area, scoping into the content
// iframe when the platform uses one.
func (e *Engine) inContent(ctx context.Context, rs *runState, fn func(browser.Surface) error) error {
	surface := e.ctrl.Surface()
	if e.profile.ContentFrame == "" {
		return fn(surface)
	}
	rs.inFrame = true
	defer func() { rs.inFrame = false }()
	return browser.WithFrame(ctx, surface, e.profile.ContentFrame, fn)
}

func (e *Engine) extractMetadata(ctx context.Context, rs *runState, m *review.Manuscript) error {
	return e.inContent(ctx, rs, func(s browser.Surface) error {
		doc, err := snapshotSurface(ctx, s)
		if err != nil {
			return err
		}
		labels := e.profile.Labels
		wanted := []string{labels.Title, labels.Abstract, labels.Keywords, labels.Status, labels.Submission, labels.StatusDate, labels.Revision}
		values := textparse.LabelValues(doc, nonEmpty(wanted))

		if v := values[labels.Title]; v != "" {
			m.Title = v
		}
		if v := values[labels.Abstract]; v != "" {
			m.Abstract = v
		}
		if v := values[labels.Keywords]; v != "" {
			m.Keywords = splitKeywords(v)
		}
		if v := values[labels.Status]; v != "" {
			m.Status = v
		}
		if v := values[labels.Submission]; v != "" {
			m.SubmissionDate = textparse.ParseDate(v)
		}
		if v := values[labels.StatusDate]; v != "" {
			m.StatusDate = textparse.ParseDate(v)
		}
		if v := values[labels.Revision]; v != "" {
			m.Revision = parseRevision(v)
		}
		if m.Title == "" && m.Status == "" {
			return services.Wrap(services.ErrNotFound, "extract", "metadata", "no known label matched", nil)
		}
		return nil
	})
}

func (e *Engine) extractAuthors(ctx context.Context, rs *runState, m *review.Manuscript) error {
	return e.inContent(ctx, rs, func(s browser.Surface) error {
		doc, err := snapshotSurface(ctx, s)
		if err != nil {
			return err
		}
		if e.profile.AuthorFieldSelector != "" {
			sel := doc.Find(e.profile.AuthorFieldSelector)
			if authors := textparse.ParseAuthorLinks(sel); len(authors) > 0 {
				m.Authors = authors
				return nil
			}
			if text := textparse.CleanText(sel.Text()); text != "" {
				if authors := textparse.ParseAuthorList(text); len(authors) > 0 {
					m.Authors = authors
					return nil
				}
			}
		}
		// Fall back to the label table's author field.
		values := textparse.LabelValues(doc, []string{e.profile.Labels.Authors})
		if text := values[e.profile.Labels.Authors]; text != "" {
			if authors := textparse.ParseAuthorList(text); len(authors) > 0 {
				m.Authors = authors
				return nil
			}
		}
		return services.Wrap(services.ErrNotFound, "extract", "authors", "no author field found", nil)
	})
}

func (e *Engine) extractReferees(ctx context.Context, rs *runState, m *review.Manuscript) error {
	return e.inContent(ctx, rs, func(s browser.Surface) error {
		doc, err := snapshotSurface(ctx, s)
		if err != nil {
			return err
		}

		// Structured summary table first.
		if e.profile.RefereeTableSelector != "" {
			rows := textparse.TableRows(doc, e.profile.RefereeTableSelector)
			found := 0
			for _, cells := range rows {
				ref, ok := textparse.ParseRefereeRow(strings.Join(cells, " "))
				if !ok {
					continue
				}
				e.parseRefereeDates(cells, &ref)
				m.AddReferee(ref)
				found++
			}
			if found > 0 {
				return nil
			}
		}

		// Heading-anchored free-text fallback.
		if e.profile.RefereeHeading != "" {
			section := textparse.SectionAfterHeading(doc, e.profile.RefereeHeading)
			found := 0
			for _, line := range strings.Split(section, "\n") {
				if !textparse.LooksLikeRefereeLine(line) {
					continue
				}
				if ref, ok := textparse.ParseRefereeRow(line); ok {
					m.AddReferee(ref)
					found++
				}
			}
			if found > 0 {
				return nil
			}
		}
		return services.Wrap(services.ErrNotFound, "extract", "referees", "no referee table or section found", nil)
	})
}

// refereeDateLabels maps per-cell prefixes in referee tables to date fields.
func (e *Engine) parseRefereeDates(cells []string, ref *review.Referee) {
	for _, cell := range cells {
		lower := strings.ToLower(cell)
		date := textparse.FindDate(cell)
		if date == nil {
			continue
		}
		switch {
		case strings.Contains(lower, "invit") || strings.Contains(lower, "contact"):
			ref.ContactDate = date
		case strings.Contains(lower, "agree") || strings.Contains(lower, "accept"):
			ref.AcceptanceDate = date
		case strings.Contains(lower, "due"):
			ref.DueDate = date
		case strings.Contains(lower, "receiv") || strings.Contains(lower, "complet") || strings.Contains(lower, "submit"):
			ref.ReceivedDate = date
		}
	}
}

// enrichRefereeContacts opens the per-referee profile popup only for
// referees still missing an email or affiliation.
func (e *Engine) enrichRefereeContacts(ctx context.Context, rs *runState, m *review.Manuscript) error {
	if e.profile.RefereeProfileTrigger == "" {
		return nil
	}
	var firstErr error
	for i := range m.Referees {
		ref := &m.Referees[i]
		if ref.Email != "" && ref.Affiliation != "" {
			continue
		}
		if ref.Number == 0 {
			continue
		}
		trigger := fmt.Sprintf(e.profile.RefereeProfileTrigger, ref.Number)
		err := browser.WithPopup(ctx, e.ctrl.Surface(), trigger, func(popup browser.Surface) error {
			doc, err := snapshotSurface(ctx, popup)
			if err != nil {
				return err
			}
			values := textparse.LabelValues(doc, []string{e.profile.ProfileEmailLabel, e.profile.ProfileOrgLabel})
			if ref.Email == "" {
				if email := textparse.ExtractEmail(values[e.profile.ProfileEmailLabel]); email != "" {
					ref.Email = email
				}
			}
			if ref.Affiliation == "" {
				ref.Affiliation = values[e.profile.ProfileOrgLabel]
			}
			return nil
		})
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (e *Engine) extractDocuments(ctx context.Context, rs *runState, m *review.Manuscript) error {
	return e.inContent(ctx, rs, func(s browser.Surface) error {
		doc, err := snapshotSurface(ctx, s)
		if err != nil {
			return err
		}
		sel := doc.Find(e.profile.DocumentLinkSelector)
		links := textparse.Links(sel)
		if len(links) == 0 {
			return services.Wrap(services.ErrNotFound, "extract", "documents", "no document links found", nil)
		}
		for _, link := range links {
			name, href := link[0], link[1]
			if href == "" || name == "" {
				continue
			}
			category := textparse.ClassifyDocument(name, name)
			d := review.Document{
				Category:    category,
				Filename:    name,
				Description: name,
			}
			if abs, err := e.resolveURL(href); err == nil {
				d.SourceURL = abs
			}
			if e.downloads != nil && d.SourceURL != "" {
				path, err := e.downloads.Fetch(ctx, d.SourceURL, m.ID, category)
				if err != nil {
					e.logger.Warn("document download failed",
						logging.String(logging.FieldManuscriptID, m.ID),
						logging.String("filename", name),
						logging.Error(err),
					)
				} else {
					d.LocalPath = path
				}
			}
			m.Documents = append(m.Documents, d)
		}
		return nil
	})
}

func (e *Engine) extractReports(ctx context.Context, rs *runState, m *review.Manuscript) error {
	return e.inContent(ctx, rs, func(s browser.Surface) error {
		doc, err := snapshotSurface(ctx, s)
		if err != nil {
			return err
		}

		var rows [][]string
		if e.profile.ReportTableSelector != "" {
			rows = textparse.TableRows(doc, e.profile.ReportTableSelector)
		}
		if len(rows) == 0 && e.profile.ReportHeading != "" {
			section := textparse.SectionAfterHeading(doc, e.profile.ReportHeading)
			for _, line := range strings.Split(section, "\n") {
				if textparse.CleanText(line) != "" {
					rows = append(rows, []string{line})
				}
			}
		}
		if len(rows) == 0 {
			return nil
		}

		position := 0
		for _, cells := range rows {
			joined := strings.Join(cells, " ")
			report := parseReportRow(cells, m.Revision)
			if report == nil {
				continue
			}
			e.attachReport(m, *report, joined, position)
			position++
		}
		return nil
	})
}

// attachReport correlates a report to a referee: internal number first, then
// name match, then position in the report listing.
func (e *Engine) attachReport(m *review.Manuscript, report review.Report, rowText string, position int) {
	if report.RefereeNumber > 0 {
		if ref := m.FindRefereeByNumber(report.RefereeNumber); ref != nil {
			ref.Reports = append(ref.Reports, report)
			return
		}
	}
	for i := range m.Referees {
		if textparse.SurnameMatches(m.Referees[i].Name, rowText) {
			m.Referees[i].Reports = append(m.Referees[i].Reports, report)
			return
		}
	}
	if position < len(m.Referees) {
		m.Referees[position].Reports = append(m.Referees[position].Reports, report)
		return
	}
	e.logger.Debug("report without matching referee",
		logging.String(logging.FieldManuscriptID, m.ID),
		logging.Int("referee_number", report.RefereeNumber),
	)
}

var reportNumber = regexp.MustCompile(`(?i)(?:reviewer|referee)\s*#?\s*(\d+)`)

var recommendationKeywords = []string{
	"accept", "minor revision", "major revision", "revise", "reject",
}

func parseReportRow(cells []string, revision int) *review.Report {
	joined := textparse.CleanText(strings.Join(cells, " "))
	if joined == "" {
		return nil
	}
	report := review.Report{Revision: revision}
	if m := reportNumber.FindStringSubmatch(joined); m != nil {
		fmt.Sscanf(m[1], "%d", &report.RefereeNumber)
	}
	lower := strings.ToLower(joined)
	for _, kw := range recommendationKeywords {
		if strings.Contains(lower, kw) {
			report.Recommendation = kw
			break
		}
	}
	// The longest cell is the comments body in every table theme observed.
	longest := ""
	for _, cell := range cells {
		if len(cell) > len(longest) {
			longest = cell
		}
	}
	if longest != joined || len(cells) == 1 {
		report.CommentsToAuth = textparse.CleanText(longest)
	}
	if report.Recommendation == "" && report.RefereeNumber == 0 && report.CommentsToAuth == "" {
		return nil
	}
	return &report
}

func (e *Engine) navigate(ctx context.Context, target string) error {
	surface := e.ctrl.Surface()
	return e.policy.Do(ctx, func(int) error {
		return surface.Navigate(ctx, target)
	})
}

func (e *Engine) snapshot(ctx context.Context) (*goquery.Document, error) {
	return snapshotSurface(ctx, e.ctrl.Surface())
}

func snapshotSurface(ctx context.Context, s browser.Surface) (*goquery.Document, error) {
	html, err := s.PageSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func (e *Engine) resolveURL(locator string) (string, error) {
	if locator == "" {
		return "", services.Wrap(services.ErrValidation, "navigate", "resolve url", "empty locator", nil)
	}
	current, err := e.ctrl.Surface().CurrentURL()
	if err != nil {
		return "", err
	}
	base, err := url.Parse(current)
	if err != nil {
		return "", err
	}
	rel, err := url.Parse(locator)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(rel).String(), nil
}

// saveDiagnostic writes the current page HTML to the diagnostics directory
// so a silent listing-format change can be inspected after the run.
func (e *Engine) saveDiagnostic(ctx context.Context, cat Category) {
	html, err := e.ctrl.Surface().PageSnapshot(ctx)
	if err != nil {
		return
	}
	if err := os.MkdirAll(e.diagDir, 0o755); err != nil {
		return
	}
	name := fmt.Sprintf("category-%s-%s.html", sanitizeName(cat.Name), time.Now().UTC().Format("20060102T150405"))
	path := filepath.Join(e.diagDir, name)
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		e.logger.Warn("diagnostic snapshot write failed", logging.Error(err))
		return
	}
	e.logger.Warn("declared count with zero parsed ids, snapshot saved",
		logging.String(logging.FieldJournal, e.journal.Code),
		logging.String(logging.FieldCategory, cat.Name),
		logging.Int("declared", cat.ItemCount),
		logging.String("snapshot", path),
		logging.String(logging.FieldAlert, "listing-format"),
	)
}

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func sanitizeName(name string) string {
	return strings.Trim(unsafeName.ReplaceAllString(name, "-"), "-")
}

func nonEmpty(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func splitKeywords(text string) []string {
	sep := ";"
	if !strings.Contains(text, ";") {
		sep = ","
	}
	var keywords []string
	for _, part := range strings.Split(text, sep) {
		if kw := textparse.CleanText(part); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return keywords
}

var revisionDigits = regexp.MustCompile(`\d+`)

func parseRevision(text string) int {
	if m := revisionDigits.FindString(text); m != "" {
		var n int
		fmt.Sscanf(m, "%d", &n)
		return n
	}
	return 0
}
