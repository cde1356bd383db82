package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"
)

// newBufferLogger builds a Logger over a buffer-backed JSON handler so the
// output can be inspected.
func newBufferLogger(cfg LoggerConfig, buf *bytes.Buffer) *Logger {
	level := parseLogLevel(cfg.Level)
	handler := slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: level})
	slogger := slog.New(handler).With(slog.String("component", cfg.Component))
	return &Logger{Logger: slogger, config: cfg}
}

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	// Read exactly one JSON line so a decoder's read-ahead doesn't consume
	// subsequent entries still in the buffer.
	line, err := buf.ReadBytes('\n')
	if err != nil {
		t.Fatalf("failed to decode log output: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(line, &entry); err != nil {
		t.Fatalf("failed to decode log output: %v", err)
	}
	return entry
}

func TestErrorCtx_OutputsErrorAndExtraAttrs(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Component = "test-component"
	l := newBufferLogger(cfg, &buf)

	l.ErrorCtx(context.Background(), "operation failed",
		errors.New("connection refused"), slog.String("extra", "value"))

	entry := decodeEntry(t, &buf)
	for _, k := range []string{"error", "component", "extra", "msg", "time", "level"} {
		if _, ok := entry[k]; !ok {
			t.Errorf("missing key %q in log entry: %+v", k, entry)
		}
	}
	if got := entry["error"]; got != "connection refused" {
		t.Errorf("unexpected error attribute: got %v", got)
	}
	if got := entry["component"]; got != "test-component" {
		t.Errorf("unexpected component: got %v", got)
	}
}

func TestWithComponent_ReplacesScope(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(DefaultConfig(), &buf)

	l.WithComponent("provisioner").Info("hello")

	entry := decodeEntry(t, &buf)
	if got := entry["component"]; got != "provisioner" {
		t.Errorf("unexpected component: got %v", got)
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[LogLevel]slog.Level{
		LevelDebug:        slog.LevelDebug,
		LevelInfo:         slog.LevelInfo,
		LevelWarn:         slog.LevelWarn,
		LevelError:        slog.LevelError,
		LogLevel("weird"): slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestOperation_CompleteLogsDuration(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(LoggerConfig{Level: LevelDebug, Component: "test"}, &buf)

	op := l.StartOp(context.Background(), "write_config", slog.String("host", "h1"))
	time.Sleep(time.Millisecond)
	op.Complete("config written")

	// first entry is the start debug line, second the completion
	decodeEntry(t, &buf)
	entry := decodeEntry(t, &buf)
	if entry["msg"] != "config written" {
		t.Errorf("unexpected msg: %v", entry["msg"])
	}
	if _, ok := entry["duration_ms"]; !ok {
		t.Errorf("missing duration in completion entry: %+v", entry)
	}
	if entry["host"] != "h1" {
		t.Errorf("missing start attr on completion entry: %+v", entry)
	}
}

func TestOperation_FailLogsError(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(LoggerConfig{Level: LevelInfo, Component: "test"}, &buf)

	op := l.StartOp(context.Background(), "install", slog.String("host", "h1"))
	op.Fail(errors.New("msiexec exit code 1603"), "install failed")

	entry := decodeEntry(t, &buf)
	if entry["level"] != "ERROR" {
		t.Errorf("unexpected level: %v", entry["level"])
	}
	if entry["error"] != "msiexec exit code 1603" {
		t.Errorf("unexpected error attribute: %v", entry["error"])
	}
}
