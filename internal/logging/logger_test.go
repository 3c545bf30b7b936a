package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"hound/internal/services"
)

func TestConsoleHandlerRendersComponentPrefix(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl, false))

	logger.Info("cycle complete", String(FieldComponent, "coordinator"), Int("admitted", 2))

	line := buf.String()
	if !strings.Contains(line, "INFO coordinator: cycle complete") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "admitted=2") {
		t.Fatalf("missing attr: %q", line)
	}
}

func TestConsoleHandlerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl, false))

	logger.Warn("skip", String("reason", "already compressed"))

	if !strings.Contains(buf.String(), `reason="already compressed"`) {
		t.Fatalf("unexpected line: %q", buf.String())
	}
}

func TestWithContextAddsStandardFields(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl, false))

	ctx := services.WithJobPath(context.Background(), "/media/in/movie.mkv")
	ctx = services.WithStage(ctx, "encoding")
	WithContext(ctx, logger).Info("stage started")

	line := buf.String()
	if !strings.Contains(line, "job_path=/media/in/movie.mkv") {
		t.Fatalf("missing job path: %q", line)
	}
	if !strings.Contains(line, "stage=encoding") {
		t.Fatalf("missing stage: %q", line)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestParseLevel(t *testing.T) {
	if got := parseLevel("debug"); got != slog.LevelDebug {
		t.Fatalf("parseLevel(debug) = %v", got)
	}
	if got := parseLevel(""); got != slog.LevelInfo {
		t.Fatalf("parseLevel(empty) = %v", got)
	}
	if got := parseLevel("bogus"); got != slog.LevelInfo {
		t.Fatalf("parseLevel(bogus) = %v", got)
	}
}
