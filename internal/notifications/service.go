// Package notifications pushes run-level events to ntfy when a topic is
// configured, and is silent otherwise.
package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"vellum/internal/config"
	"vellum/internal/review"
)

const userAgent = "Vellum/0.1.0"

// Service defines the notification surface exposed to the workflow.
type Service interface {
	NotifyRunStarted(ctx context.Context, journalCode string, discovered int) error
	NotifyRunCompleted(ctx context.Context, summary *review.RunSummary) error
	NotifyManuscriptFailed(ctx context.Context, journalCode, manuscriptID, reason string) error
	NotifySessionRecovered(ctx context.Context, journalCode string, attempts int) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// Without a topic, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint:  topic,
		client:    &http.Client{Timeout: timeout},
		runEvents: cfg.Notifications.RunEvents,
		errors:    cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint  string
	client    *http.Client
	runEvents bool
	errors    bool
}

func (n *ntfyService) NotifyRunStarted(ctx context.Context, journalCode string, discovered int) error {
	if !n.runEvents {
		return nil
	}
	data := payload{
		title:   "Vellum - Run Started",
		message: fmt.Sprintf("Harvesting %s: %d manuscripts discovered", journalCode, discovered),
		tags:    []string{"vellum", "run", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, summary *review.RunSummary) error {
	if !n.runEvents || summary == nil {
		return nil
	}
	duration := summary.FinishedAt.Sub(summary.StartedAt).Round(time.Second)
	if duration < 0 {
		duration = 0
	}

	var title, message string
	if summary.Failed == 0 {
		title = "Vellum - Run Complete"
		message = fmt.Sprintf("%s: %d manuscripts harvested (%d partial) in %s",
			summary.JournalCode, summary.Succeeded+summary.Partial, summary.Partial, duration)
	} else {
		title = "Vellum - Run Complete (with errors)"
		message = fmt.Sprintf("%s: %d succeeded, %d partial, %d failed in %s",
			summary.JournalCode, summary.Succeeded, summary.Partial, summary.Failed, duration)
	}
	data := payload{
		title:   title,
		message: message,
		tags:    []string{"vellum", "run", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyManuscriptFailed(ctx context.Context, journalCode, manuscriptID, reason string) error {
	if !n.errors {
		return nil
	}
	data := payload{
		title:   "Vellum - Manuscript Skipped",
		message: fmt.Sprintf("%s %s: %s\nManual follow-up required", journalCode, manuscriptID, strings.TrimSpace(reason)),
		tags:    []string{"vellum", "manuscript", "failed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifySessionRecovered(ctx context.Context, journalCode string, attempts int) error {
	if !n.runEvents {
		return nil
	}
	data := payload{
		title:   "Vellum - Session Recovered",
		message: fmt.Sprintf("%s: session rebuilt after %d attempt(s)", journalCode, attempts),
		tags:    []string{"vellum", "session", "recovered"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	data := payload{
		title:    "Vellum - Error",
		message:  builder.String(),
		tags:     []string{"vellum", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Vellum - Test",
		message:  "Notification system test",
		tags:     []string{"vellum", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRunStarted(context.Context, string, int) error                  { return nil }
func (noopService) NotifyRunCompleted(context.Context, *review.RunSummary) error         { return nil }
func (noopService) NotifyManuscriptFailed(context.Context, string, string, string) error { return nil }
func (noopService) NotifySessionRecovered(context.Context, string, int) error            { return nil }
func (noopService) NotifyError(context.Context, error, string) error                     { return nil }
func (noopService) TestNotification(context.Context) error                               { return nil }
