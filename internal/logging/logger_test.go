package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vconv/internal/config"
	"vconv/internal/logging"
	"vconv/internal/services"
)

func logPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.log")
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(data)
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	path := logPath(t)
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("conversion started", logging.String("format", "MKV"))

	content := readLog(t, path)
	if strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
	if !strings.Contains(content, "INFO") || !strings.Contains(content, "conversion started") {
		t.Fatalf("unexpected console line %q", content)
	}
	if !strings.Contains(content, "- Format: MKV") {
		t.Fatalf("expected highlighted field, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	path := logPath(t)
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("probe finished")

	if content := readLog(t, path); !strings.Contains(content, "logger_test.go:") {
		t.Fatalf("expected caller in debug logs, got %q", content)
	}
}

func TestConsoleSubjectFromContext(t *testing.T) {
	path := logPath(t)
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := services.WithConversionID(context.Background(), "1a2b3c4d-5e6f")
	ctx = services.WithBackend(ctx, "Native")
	ctx = services.WithStage(ctx, "run")
	logging.WithContext(ctx, logging.NewComponentLogger(logger, "convert")).Info("attempt started")

	content := readLog(t, path)
	if !strings.Contains(content, "[convert] Native · #1a2b3c4d (run) - attempt started") {
		t.Fatalf("unexpected header %q", content)
	}
}

func TestJSONLoggerFields(t *testing.T) {
	path := logPath(t)
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := services.WithConversionID(context.Background(), "abc")
	logging.WarnWithContext(logging.WithContext(ctx, logger), "backend failed", "backend_failed")

	var record map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readLog(t, path))), &record); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if record["level"] != "warn" || record["msg"] != "backend failed" {
		t.Fatalf("unexpected record %v", record)
	}
	for _, key := range []string{"ts", logging.FieldConversionID, logging.FieldEventType, logging.FieldErrorHint, logging.FieldImpact} {
		if _, ok := record[key]; !ok {
			t.Fatalf("missing %q in %v", key, record)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewFromConfigWritesSessionTaggedFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Level = "error"

	logger, err := logging.NewFromConfig(&cfg, "info")
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello")

	content := readLog(t, filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	if !strings.Contains(content, `"msg":"hello"`) {
		t.Fatalf("level override not applied to file output: %q", content)
	}
	if !strings.Contains(content, `"`+logging.FieldSessionID+`":"`) {
		t.Fatalf("expected session id in file output: %q", content)
	}
}

func TestNopLogger(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), 12) {
		t.Fatal("nop logger should be disabled for every level")
	}
}
