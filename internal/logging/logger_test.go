package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ecgnote/internal/config"
	"ecgnote/internal/logging"
)

func TestNewFromConfigQuietWritesOnlyToFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg, true)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("checkpoint written", logging.Int("patients", 3))

	content, err := os.ReadFile(cfg.LogFile())
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "checkpoint written") || !strings.Contains(string(content), "patients=3") {
		t.Fatalf("unexpected log content: %q", content)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "annotate").Info("message without caller", logging.String("note", "two words"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	text := string(content)
	if strings.Contains(text, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", text)
	}
	if !strings.Contains(text, "annotate: message without caller") {
		t.Fatalf("expected component prefix, got %q", text)
	}
	if !strings.Contains(text, `note="two words"`) {
		t.Fatalf("expected quoted value, got %q", text)
	}
}

func TestJSONLoggerCarriesSessionID(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")

	logger, err := logging.New(logging.Options{
		Format:      "json",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := logging.WithSessionID(context.Background(), "sess-1")
	logging.WithContext(ctx, logger).Info("session started")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(content, &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["msg"] != "session started" || entry["level"] != "info" {
		t.Fatalf("unexpected entry: %#v", entry)
	}
	if entry[logging.FieldSessionID] != "sess-1" {
		t.Fatalf("expected session id, got %#v", entry[logging.FieldSessionID])
	}
}

func TestJSONLoggerTakesSessionIDFromContext(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := logging.WithSessionID(context.Background(), "sess-2")
	logger.InfoContext(ctx, "from context")
	logging.WithContext(ctx, logger).InfoContext(ctx, "from logger")
	logger.Info("no session")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), content)
	}
	wantCounts := []int{1, 1, 0}
	for i, line := range lines {
		if got := strings.Count(line, `"session_id":"sess-2"`); got != wantCounts[i] {
			t.Fatalf("line %d has %d session ids, want %d: %s", i, got, wantCounts[i], line)
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("decode line %d: %v", i, err)
		}
		if _, ok := entry["ts"]; !ok {
			t.Fatalf("line %d has no ts: %s", i, line)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
