package store

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestEnqueueIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.Enqueue(ctx, "jemt", "JEMT-D-24-00123", "New Assignments", "/ms?id=1")
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if first == nil || first.Status != StatusPending {
		t.Fatalf("first = %+v", first)
	}

	second, err := s.Enqueue(ctx, "jemt", "JEMT-D-24-00123", "Other Category", "/ms?id=other")
	if err != nil {
		t.Fatalf("second Enqueue() error = %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("duplicate enqueue created new row: %d vs %d", second.ID, first.ID)
	}
	if second.Category != "New Assignments" {
		t.Fatalf("re-enqueue overwrote category: %q", second.Category)
	}
}

func TestNextForStatusesReturnsOldestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"A-24-001", "A-24-002", "A-24-003"} {
		if _, err := s.Enqueue(ctx, "jemt", id, "", ""); err != nil {
			t.Fatal(err)
		}
	}

	item, err := s.NextForStatuses(ctx, StatusPending)
	if err != nil {
		t.Fatal(err)
	}
	if item == nil || item.ManuscriptID != "A-24-001" {
		t.Fatalf("next = %+v, want A-24-001", item)
	}

	item.Status = StatusExtracting
	if err := s.Update(ctx, item); err != nil {
		t.Fatal(err)
	}
	item, err = s.NextForStatuses(ctx, StatusPending)
	if err != nil {
		t.Fatal(err)
	}
	if item.ManuscriptID != "A-24-002" {
		t.Fatalf("next = %+v, want A-24-002", item)
	}

	if none, err := s.NextForStatuses(ctx, StatusFailed); err != nil || none != nil {
		t.Fatalf("NextForStatuses(failed) = %+v, %v", none, err)
	}
}

func TestMarkCompletedAndStats(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a, _ := s.Enqueue(ctx, "jemt", "A-24-001", "", "")
	b, _ := s.Enqueue(ctx, "jemt", "A-24-002", "", "")
	if err := s.MarkCompleted(ctx, a, true); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkFailed(ctx, b, "session never recovered"); err != nil {
		t.Fatal(err)
	}

	got, err := s.Find(ctx, "jemt", "A-24-001")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusCompleted || !got.Partial || got.CompletedAt == nil {
		t.Fatalf("completed item = %+v", got)
	}

	failed, err := s.Find(ctx, "jemt", "A-24-002")
	if err != nil {
		t.Fatal(err)
	}
	if failed.Status != StatusFailed || failed.LastError != "session never recovered" {
		t.Fatalf("failed item = %+v", failed)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats[StatusCompleted] != 1 || stats[StatusFailed] != 1 {
		t.Fatalf("stats = %v", stats)
	}
}

func TestResetStuckReturnsProcessingToPending(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a, _ := s.Enqueue(ctx, "jemt", "A-24-001", "", "")
	a.Status = StatusExtracting
	if err := s.Update(ctx, a); err != nil {
		t.Fatal(err)
	}
	b, _ := s.Enqueue(ctx, "jemt", "A-24-002", "", "")
	if err := s.MarkCompleted(ctx, b, false); err != nil {
		t.Fatal(err)
	}

	n, err := s.ResetStuck(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("ResetStuck() = %d, want 1", n)
	}
	got, _ := s.Find(ctx, "jemt", "A-24-001")
	if got.Status != StatusPending {
		t.Fatalf("stuck item status = %q", got.Status)
	}
	done, _ := s.Find(ctx, "jemt", "A-24-002")
	if done.Status != StatusCompleted {
		t.Fatalf("completed item touched: %q", done.Status)
	}
}

func TestDownloadCacheSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.RecordDownload(ctx, "A-24-001", "manuscript", "https://x/file.pdf", "/cache/a.pdf"); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	got, ok, err := s.LookupDownload(ctx, "A-24-001", "manuscript")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || got != "/cache/a.pdf" {
		t.Fatalf("LookupDownload() = %q, %v", got, ok)
	}

	if _, ok, _ := s.LookupDownload(ctx, "A-24-001", "cover-letter"); ok {
		t.Fatal("unexpected cache hit for different doc type")
	}

	if err := s.ForgetDownload(ctx, "A-24-001", "manuscript"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.LookupDownload(ctx, "A-24-001", "manuscript"); ok {
		t.Fatal("cache entry survived ForgetDownload")
	}
}

func TestClearDownloadsEmptiesIndex(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.RecordDownload(ctx, "A-24-001", "manuscript", "https://x/1.pdf", "/tmp/1.pdf"); err != nil {
		t.Fatalf("RecordDownload() error = %v", err)
	}
	if err := s.RecordDownload(ctx, "A-24-002", "cover-letter", "https://x/2.pdf", "/tmp/2.pdf"); err != nil {
		t.Fatalf("RecordDownload() error = %v", err)
	}

	cleared, err := s.ClearDownloads(ctx)
	if err != nil {
		t.Fatalf("ClearDownloads() error = %v", err)
	}
	if cleared != 2 {
		t.Fatalf("cleared = %d, want 2", cleared)
	}
	count, err := s.DownloadCount(ctx)
	if err != nil {
		t.Fatalf("DownloadCount() error = %v", err)
	}
	if count != 0 {
		t.Fatalf("count = %d, want 0", count)
	}
}
