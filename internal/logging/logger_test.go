package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"vellum/internal/services"
)

func TestPrettyHandlerFormatsComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newPrettyHandler(&buf, lvl, false))

	logger.With(String(FieldComponent, "session")).Info("login succeeded",
		String(FieldJournal, "jam"),
		Int("attempt", 2),
	)

	line := buf.String()
	if !strings.Contains(line, "INFO session: login succeeded") {
		t.Fatalf("missing component prefix: %q", line)
	}
	if !strings.Contains(line, "journal=jam") || !strings.Contains(line, "attempt=2") {
		t.Fatalf("missing attrs: %q", line)
	}
}

func TestPrettyHandlerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newPrettyHandler(&buf, lvl, false))

	logger.Info("category discovered", String("name", "Reviews Complete"))

	if !strings.Contains(buf.String(), `name="Reviews Complete"`) {
		t.Fatalf("value with spaces should be quoted: %q", buf.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsStandardFields(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newPrettyHandler(&buf, lvl, false))

	ctx := services.WithJournal(context.Background(), "jam")
	ctx = services.WithManuscriptID(ctx, "JAM-2024-0117")
	ctx = services.WithStage(ctx, "extract")

	WithContext(ctx, logger).Info("step complete")

	line := buf.String()
	for _, want := range []string{"journal=jam", "manuscript_id=JAM-2024-0117", "stage=extract"} {
		if !strings.Contains(line, want) {
			t.Fatalf("missing %q in %q", want, line)
		}
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	logger.Error("should not panic", Error(nil))
}
