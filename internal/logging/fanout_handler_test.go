package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestNewFanoutHandlerCollapses(t *testing.T) {
	if _, ok := newFanoutHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when every handler is nil")
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := newFanoutHandler(nil, inner, nil); h != inner {
		t.Fatal("expected lone handler to be returned unwrapped")
	}
}

func TestFanoutHandlerRespectsEachLevel(t *testing.T) {
	var console, file bytes.Buffer
	h := newFanoutHandler(
		slog.NewTextHandler(&console, &slog.HandlerOptions{Level: slog.LevelWarn}),
		slog.NewJSONHandler(&file, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	logger := slog.New(h).With("conversion_id", "abc")

	logger.Debug("probe finished")
	logger.Warn("falling back")

	if strings.Contains(console.String(), "probe finished") {
		t.Fatalf("warn-level handler received debug record: %s", console.String())
	}
	if !strings.Contains(console.String(), "falling back") {
		t.Fatalf("warn-level handler missed warning: %s", console.String())
	}
	if strings.Count(file.String(), `"conversion_id":"abc"`) != 2 {
		t.Fatalf("debug handler should carry attrs on both records: %s", file.String())
	}
	if h.Enabled(context.Background(), slog.LevelDebug-4) {
		t.Fatal("no handler accepts levels below debug")
	}
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("disk full") }

func TestFanoutHandlerReturnsFirstErrorButContinues(t *testing.T) {
	var buf bytes.Buffer
	h := newFanoutHandler(
		failingHandler{slog.NewJSONHandler(&bytes.Buffer{}, nil)},
		slog.NewJSONHandler(&buf, nil),
	)
	err := slog.New(h).Handler().Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "msg", 0))
	if err == nil || err.Error() != "disk full" {
		t.Fatalf("expected first handler error, got %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("second handler should still receive the record")
	}
}
