package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vellum/internal/config"
	"vellum/internal/notifications"
	"vellum/internal/review"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyRunStarted(context.Background(), "jemt", 12); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func captureServer(t *testing.T, got *captured) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got.title = r.Header.Get("Title")
		got.tags = r.Header.Get("Tags")
		got.priority = r.Header.Get("Priority")
		got.body = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func serviceFor(t *testing.T, topic string) notifications.Service {
	t.Helper()
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = topic
	cfg.Notifications.RunEvents = true
	cfg.Notifications.Errors = true
	return notifications.NewService(&cfg)
}

func TestNotifyRunCompletedFormatsSummary(t *testing.T) {
	var got captured
	srv := captureServer(t, &got)
	svc := serviceFor(t, srv.URL)

	started := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	summary := &review.RunSummary{
		JournalCode: "jemt",
		StartedAt:   started,
		FinishedAt:  started.Add(90 * time.Second),
		Succeeded:   10,
		Partial:     2,
		Failed:      1,
	}
	if err := svc.NotifyRunCompleted(context.Background(), summary); err != nil {
		t.Fatalf("NotifyRunCompleted() error = %v", err)
	}
	if got.title != "Vellum - Run Complete (with errors)" {
		t.Fatalf("title = %q", got.title)
	}
	if got.body != "jemt: 10 succeeded, 2 partial, 1 failed in 1m30s" {
		t.Fatalf("body = %q", got.body)
	}
	if got.tags != "vellum,run,completed" {
		t.Fatalf("tags = %q", got.tags)
	}
}

func TestNotifyErrorSetsHighPriority(t *testing.T) {
	var got captured
	srv := captureServer(t, &got)
	svc := serviceFor(t, srv.URL)

	if err := svc.NotifyError(context.Background(), context.DeadlineExceeded, "session recovery"); err != nil {
		t.Fatalf("NotifyError() error = %v", err)
	}
	if got.priority != "high" {
		t.Fatalf("priority = %q", got.priority)
	}
	if got.body != "Error with session recovery: context deadline exceeded" {
		t.Fatalf("body = %q", got.body)
	}
}

func TestRunEventsDisabledSuppressesSend(t *testing.T) {
	var got captured
	srv := captureServer(t, &got)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	cfg.Notifications.RunEvents = false
	svc := notifications.NewService(&cfg)

	if err := svc.NotifyRunStarted(context.Background(), "jemt", 5); err != nil {
		t.Fatalf("NotifyRunStarted() error = %v", err)
	}
	if got.body != "" {
		t.Fatalf("suppressed event still sent: %q", got.body)
	}
}
