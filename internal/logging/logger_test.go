package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestConsoleHandlerPromotesComponent(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl))

	logger.Info("scanned tree", String(FieldComponent, "repair"), Int("episodes", 12))

	line := buf.String()
	if !strings.Contains(line, "INFO repair: scanned tree") {
		t.Fatalf("unexpected console line: %q", line)
	}
	if !strings.Contains(line, "episodes=12") {
		t.Fatalf("missing attr in console line: %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should not appear as attr: %q", line)
	}
}

func TestConsoleHandlerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl))

	logger.Warn("skipping folder", String("name", "Bootcamp 50"))

	if !strings.Contains(buf.String(), `name="Bootcamp 50"`) {
		t.Fatalf("expected quoted value, got %q", buf.String())
	}
}

func TestConsoleHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelWarn)
	logger := slog.New(newConsoleHandler(&buf, lvl))

	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info record to be dropped, got %q", buf.String())
	}
	logger.Warn("kept")
	if buf.Len() == 0 {
		t.Fatal("expected warn record to be written")
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsRunFields(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	base := slog.New(newConsoleHandler(&buf, lvl))

	ctx := WithStage(WithRunID(context.Background(), "run-1"), "repair")
	WithContext(ctx, base).Info("pass complete")

	line := buf.String()
	if !strings.Contains(line, "run_id=run-1") || !strings.Contains(line, "stage=repair") {
		t.Fatalf("missing context fields: %q", line)
	}
}
