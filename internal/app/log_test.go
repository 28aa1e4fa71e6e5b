package app

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNottyHandler_Handle(t *testing.T) {
	ts := time.Date(2024, 6, 15, 14, 30, 45, 0, time.UTC)

	tests := []struct {
		name    string
		opID    string
		level   slog.Level
		message string
		attrs   []slog.Attr
		want    string
	}{
		{
			name:    "basic info message",
			opID:    "op-123",
			level:   slog.LevelInfo,
			message: "save created",
			want:    "2024-06-15T14:30:45Z\tINFO\top-123\tsave created\n",
		},
		{
			name:    "debug level",
			opID:    "op-456",
			level:   slog.LevelDebug,
			message: "generated hash",
			want:    "2024-06-15T14:30:45Z\tDEBUG\top-456\tgenerated hash\n",
		},
		{
			name:    "with record attrs",
			opID:    "op-789",
			level:   slog.LevelWarn,
			message: "meta file corrupted, rebuilt",
			attrs:   []slog.Attr{slog.String("path", "/work/.notty/notty.meta"), slog.Int("size", 42)},
			want:    "2024-06-15T14:30:45Z\tWARN\top-789\tmeta file corrupted, rebuilt\tpath=/work/.notty/notty.meta\tsize=42\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := &nottyHandler{w: &buf, opID: tt.opID}

			r := slog.NewRecord(ts, tt.level, tt.message, 0)
			for _, a := range tt.attrs {
				r.AddAttrs(a)
			}

			if err := h.Handle(context.Background(), r); err != nil {
				t.Fatalf("Handle() error = %v", err)
			}

			if got := buf.String(); got != tt.want {
				t.Errorf("Handle() output =\n%q\nwant:\n%q", got, tt.want)
			}
		})
	}
}

func TestNottyHandler_Console(t *testing.T) {
	var file, console bytes.Buffer
	h := &nottyHandler{w: &file, console: &console, consoleLevel: slog.LevelWarn, opID: "op-1"}
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		r := slog.NewRecord(ts, level, "msg-"+level.String(), 0)
		if err := h.Handle(context.Background(), r); err != nil {
			t.Fatalf("Handle() error = %v", err)
		}
	}

	if got := strings.Count(file.String(), "\n"); got != 4 {
		t.Errorf("file received %d lines, want 4", got)
	}
	if got := strings.Count(console.String(), "\n"); got != 2 {
		t.Errorf("console received %d lines, want 2", got)
	}
	if strings.Contains(console.String(), "msg-INFO") {
		t.Errorf("console received an info record: %q", console.String())
	}
	if !strings.Contains(console.String(), "msg-WARN") || !strings.Contains(console.String(), "msg-ERROR") {
		t.Errorf("console missing warn or error record: %q", console.String())
	}
}

func TestNottyHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := &nottyHandler{w: &buf, opID: "op-1"}

	h2 := h.WithAttrs([]slog.Attr{slog.String("component", "vault")}).(*nottyHandler)

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := slog.NewRecord(ts, slog.LevelInfo, "export", 0)
	r.AddAttrs(slog.String("hash", "abc"))

	if err := h2.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, "component=vault") {
		t.Errorf("expected pre-set attr component=vault, got: %q", got)
	}
	if !strings.Contains(got, "hash=abc") {
		t.Errorf("expected record attr hash=abc, got: %q", got)
	}
}

func TestNottyHandler_WithAttrs_doesNotMutateOriginal(t *testing.T) {
	var buf bytes.Buffer
	h := &nottyHandler{w: &buf, opID: "op-1", attrs: []slog.Attr{slog.String("a", "1")}}

	h2 := h.WithAttrs([]slog.Attr{slog.String("b", "2")}).(*nottyHandler)

	if len(h.attrs) != 1 {
		t.Errorf("original handler attrs modified: got %d, want 1", len(h.attrs))
	}
	if len(h2.attrs) != 2 {
		t.Errorf("new handler attrs: got %d, want 2", len(h2.attrs))
	}
}

func TestNewLogger(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "log")
	var console bytes.Buffer

	logger, f, err := newLogger(dir, "test-op", &console)
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}
	defer f.Close()

	logger.Info("hello", "k", "v")
	logger.Warn("careful")

	data, err := os.ReadFile(filepath.Join(dir, LogFile))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "\ttest-op\thello\tk=v") {
		t.Errorf("log file = %q, want info record", data)
	}
	if !strings.Contains(console.String(), "careful") || strings.Contains(console.String(), "hello") {
		t.Errorf("console = %q, want only the warning", console.String())
	}
}
