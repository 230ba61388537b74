package downloads

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vellum/internal/logging"
	"vellum/internal/review"
	"vellum/internal/store"
)

func testManager(t *testing.T, handler http.Handler) (*Manager, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	index, err := store.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = index.Close() })

	mgr := NewManager(srv.Client(), index, t.TempDir(), logging.NewNop())
	return mgr, srv
}

func pdfBody() []byte {
	return []byte("%PDF-1.7\n1 0 obj\n<<>>\nendobj\n%%EOF")
}

func TestFetchCacheIdempotence(t *testing.T) {
	var hits int
	mgr, srv := testManager(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(pdfBody())
	}))

	ctx := context.Background()
	first, err := mgr.Fetch(ctx, srv.URL+"/doc", "A-24-001", review.DocManuscript)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	second, err := mgr.Fetch(ctx, srv.URL+"/doc", "A-24-001", review.DocManuscript)
	if err != nil {
		t.Fatalf("second Fetch() error = %v", err)
	}
	if hits != 1 {
		t.Fatalf("server hits = %d, want exactly 1", hits)
	}
	if first != second {
		t.Fatalf("paths differ: %q vs %q", first, second)
	}
	if filepath.Ext(first) != ".pdf" {
		t.Fatalf("extension = %q, want .pdf", filepath.Ext(first))
	}
	data, err := os.ReadFile(first)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "%PDF-") {
		t.Fatal("written file is not the PDF payload")
	}
}

func TestFetchDifferentDocTypesAreSeparate(t *testing.T) {
	var hits int
	mgr, srv := testManager(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(pdfBody())
	}))

	ctx := context.Background()
	if _, err := mgr.Fetch(ctx, srv.URL+"/doc", "A-24-001", review.DocManuscript); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.Fetch(ctx, srv.URL+"/doc", "A-24-001", review.DocCoverLetter); err != nil {
		t.Fatal(err)
	}
	if hits != 2 {
		t.Fatalf("server hits = %d, want 2 for distinct doc types", hits)
	}
}

func TestFetchRejectsHTMLErrorPage(t *testing.T) {
	mgr, srv := testManager(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><h1>Session expired</h1><p>Please <a href="/login">log in</a> or <a href="/help">get help</a>.</p></body></html>`))
	}))

	_, err := mgr.Fetch(context.Background(), srv.URL+"/doc", "A-24-001", review.DocManuscript)
	if err == nil {
		t.Fatal("Fetch() accepted an HTML error page")
	}
	if count, _ := mgr.index.DownloadCount(context.Background()); count != 0 {
		t.Fatalf("rejected download was indexed: count = %d", count)
	}
}

func TestFetchFollowsOneEmbeddedRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/doc", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><meta http-equiv="refresh" content="0; url=/real.pdf"></head></html>`))
	})
	mux.HandleFunc("/real.pdf", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(pdfBody())
	})
	mgr, srv := testManager(t, mux)

	path, err := mgr.Fetch(context.Background(), srv.URL+"/doc", "A-24-001", review.DocManuscript)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "%PDF-") {
		t.Fatal("redirect target not downloaded")
	}
}

func TestFetchStopsAfterOneRedirectLevel(t *testing.T) {
	mux := http.NewServeMux()
	redirectPage := `<html><head><meta http-equiv="refresh" content="0; url=/hop"></head></html>`
	mux.HandleFunc("/doc", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(redirectPage))
	})
	mux.HandleFunc("/hop", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(redirectPage))
	})
	mgr, srv := testManager(t, mux)

	if _, err := mgr.Fetch(context.Background(), srv.URL+"/doc", "A-24-001", review.DocManuscript); err == nil {
		t.Fatal("Fetch() followed more than one embedded redirect level")
	}
}

func TestFetchRefetchesWhenCachedFileVanished(t *testing.T) {
	var hits int
	mgr, srv := testManager(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(pdfBody())
	}))

	ctx := context.Background()
	path, err := mgr.Fetch(ctx, srv.URL+"/doc", "A-24-001", review.DocManuscript)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.Fetch(ctx, srv.URL+"/doc", "A-24-001", review.DocManuscript); err != nil {
		t.Fatal(err)
	}
	if hits != 2 {
		t.Fatalf("server hits = %d, want 2 after cache file removal", hits)
	}
}

func TestDeriveExtensionPrefersMagicBytes(t *testing.T) {
	tests := []struct {
		name        string
		body        []byte
		contentType string
		srcURL      string
		want        string
	}{
		{"pdf magic wins over bogus type", pdfBody(), "text/plain", "https://x/doc", ".pdf"},
		{"content type", []byte("plain"), "application/msword", "https://x/doc", ".doc"},
		{"url fallback", []byte("data"), "application/octet-stream", "https://x/paper.docx", ".docx"},
		{"unknown", []byte("data"), "application/octet-stream", "https://x/doc", ".bin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := deriveExtension(tt.body, tt.contentType, tt.srcURL); got != tt.want {
				t.Fatalf("deriveExtension() = %q, want %q", got, tt.want)
			}
		})
	}
}
