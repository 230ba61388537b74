// Package downloads fetches manuscript documents with a persistent
// (manuscript, document type) cache: at most one physical download per key,
// surviving restarts via the ledger's index.
package downloads

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"vellum/internal/logging"
	"vellum/internal/review"
	"vellum/internal/services"
	"vellum/internal/store"
)

// maxDocumentBytes bounds a single document fetch.
const maxDocumentBytes = 200 << 20

// Manager resolves document URLs to local files.
type Manager struct {
	client *http.Client
	index  *store.Store
	dir    string
	logger *slog.Logger

	// header values applied to every request, e.g. the session cookie
	// handed over from the automation surface.
	headers map[string]string
}

// NewManager builds a download manager writing into dir and indexing through
// the ledger store. A nil client gets a 60s-timeout default.
func NewManager(client *http.Client, index *store.Store, dir string, logger *slog.Logger) *Manager {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Manager{
		client:  client,
		index:   index,
		dir:     dir,
		logger:  logging.NewComponentLogger(logger, "downloads"),
		headers: make(map[string]string),
	}
}

// SetHeader applies a header to every subsequent request. Used to carry the
// authenticated session cookie over from the browser.
func (m *Manager) SetHeader(name, value string) {
	m.headers[name] = value
}

// Fetch returns a local path for the document at srcURL. The cache is
// consulted before any network call; identical (manuscript, type) requests
// perform exactly one physical retrieval.
func (m *Manager) Fetch(ctx context.Context, srcURL, manuscriptID string, category review.DocumentCategory) (string, error) {
	docType := string(category)
	if cached, ok, err := m.index.LookupDownload(ctx, manuscriptID, docType); err == nil && ok {
		if _, statErr := os.Stat(cached); statErr == nil {
			return cached, nil
		}
		// Indexed file vanished from disk; drop the entry and refetch.
		_ = m.index.ForgetDownload(ctx, manuscriptID, docType)
	} else if err != nil {
		return "", err
	}

	body, contentType, err := m.retrieve(ctx, srcURL, true)
	if err != nil {
		return "", err
	}

	ext := deriveExtension(body, contentType, srcURL)
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure download dir: %w", err)
	}
	path := filepath.Join(m.dir, safeFileName(manuscriptID, docType)+ext)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("write document: %w", err)
	}

	if err := m.index.RecordDownload(ctx, manuscriptID, docType, srcURL, path); err != nil {
		// The file is on disk either way; a broken index only costs a
		// refetch next run.
		m.logger.Warn("download index write failed",
			logging.String(logging.FieldManuscriptID, manuscriptID),
			logging.Error(err),
		)
	}
	m.logger.Info("document downloaded",
		logging.String(logging.FieldManuscriptID, manuscriptID),
		logging.String("doc_type", docType),
		logging.Int("bytes", len(body)),
	)
	return path, nil
}

// retrieve performs the GET and validates the payload is a genuine binary
// document. An HTML payload is followed through one level of embedded
// redirect; HTML after that is rejected.
func (m *Manager) retrieve(ctx context.Context, srcURL string, followRedirect bool) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		return nil, "", services.Wrap(services.ErrValidation, "downloads", "build request", srcURL, err)
	}
	for name, value := range m.headers {
		req.Header.Set(name, value)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, "", services.Wrap(services.ErrTransient, "downloads", "fetch", srcURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", services.Wrap(services.ErrTransient, "downloads", "fetch",
			fmt.Sprintf("unexpected status %d for %s", resp.StatusCode, srcURL), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, "", services.Wrap(services.ErrTransient, "downloads", "read body", srcURL, err)
	}

	contentType := resp.Header.Get("Content-Type")
	if !isHTMLPayload(body, contentType) {
		return body, contentType, nil
	}
	if !followRedirect {
		return nil, "", services.Wrap(services.ErrValidation, "downloads", "validate",
			"payload is an HTML page, not a document: "+srcURL, nil)
	}
	next := embeddedRedirect(body, srcURL)
	if next == "" {
		return nil, "", services.Wrap(services.ErrValidation, "downloads", "validate",
			"HTML payload with no embedded redirect: "+srcURL, nil)
	}
	m.logger.Debug("following embedded redirect", logging.String("next", next))
	return m.retrieve(ctx, next, false)
}

// isHTMLPayload detects HTML error/interstitial pages masquerading as
// documents. Magic bytes win over the declared content type.
func isHTMLPayload(body []byte, contentType string) bool {
	if bytes.HasPrefix(body, []byte("%PDF-")) {
		return false
	}
	if strings.Contains(strings.ToLower(contentType), "text/html") {
		return true
	}
	head := bytes.ToLower(bytes.TrimSpace(body[:min(len(body), 512)]))
	return bytes.HasPrefix(head, []byte("<!doctype html")) || bytes.HasPrefix(head, []byte("<html"))
}

var metaRefreshURL = regexp.MustCompile(`(?i)url\s*=\s*['"]?([^'">\s]+)`)

// embeddedRedirect extracts the target of a meta-refresh or a lone download
// link from an interstitial page.
func embeddedRedirect(body []byte, baseURL string) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	var target string
	doc.Find(`meta[http-equiv]`).EachWithBreak(func(_ int, meta *goquery.Selection) bool {
		if !strings.EqualFold(meta.AttrOr("http-equiv", ""), "refresh") {
			return true
		}
		if m := metaRefreshURL.FindStringSubmatch(meta.AttrOr("content", "")); m != nil {
			target = m[1]
			return false
		}
		return true
	})
	if target == "" {
		links := doc.Find("a[href]")
		if links.Length() == 1 {
			target = links.AttrOr("href", "")
		}
	}
	if target == "" {
		return ""
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return target
	}
	rel, err := url.Parse(target)
	if err != nil {
		return ""
	}
	return base.ResolveReference(rel).String()
}

// extensionByType maps known document content types to file extensions.
// The extension is derived from content, never trusted from page markup.
var extensionByType = map[string]string{
	"application/pdf":    ".pdf",
	"application/msword": ".doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
	"application/zip":        ".zip",
	"application/x-download": ".pdf",
	"text/plain":             ".txt",
}

func deriveExtension(body []byte, contentType, srcURL string) string {
	if bytes.HasPrefix(body, []byte("%PDF-")) {
		return ".pdf"
	}
	mediaType := strings.TrimSpace(strings.Split(contentType, ";")[0])
	if ext, ok := extensionByType[strings.ToLower(mediaType)]; ok {
		return ext
	}
	if u, err := url.Parse(srcURL); err == nil {
		if ext := strings.ToLower(filepath.Ext(u.Path)); len(ext) > 1 && len(ext) <= 6 {
			return ext
		}
	}
	return ".bin"
}

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func safeFileName(manuscriptID, docType string) string {
	name := manuscriptID + "_" + docType
	return strings.Trim(unsafeFileChars.ReplaceAllString(name, "-"), "-")
}
