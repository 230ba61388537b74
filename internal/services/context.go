package services

import "context"

type contextKey string

const (
	journalKey    contextKey = "journal"
	manuscriptKey contextKey = "manuscript_id"
	stageKey      contextKey = "stage"
	requestIDKey  contextKey = "request_id"
)

// WithJournal annotates context with the journal code being processed.
func WithJournal(ctx context.Context, code string) context.Context {
	if code == "" {
		return ctx
	}
	return context.WithValue(ctx, journalKey, code)
}

// JournalFromContext returns the journal code if present.
func JournalFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(journalKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithManuscriptID annotates context with the manuscript identifier.
func WithManuscriptID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, manuscriptKey, id)
}

// ManuscriptIDFromContext extracts the manuscript identifier if present.
func ManuscriptIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(manuscriptKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the workflow stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(stageKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
