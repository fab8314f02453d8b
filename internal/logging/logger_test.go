package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"Info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestErrorIncludesRunID(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelDebug, true)

	ctx := WithRunID(context.Background(), "run-42")
	l.Error(ctx, "configure failed", errors.New("boom"), "joint", "propeller_joint")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if entry["run_id"] != "run-42" {
		t.Errorf("expected run_id run-42, got %v", entry["run_id"])
	}
	if entry["error"] != "boom" {
		t.Errorf("expected error boom, got %v", entry["error"])
	}
	if entry["joint"] != "propeller_joint" {
		t.Errorf("expected joint attr, got %v", entry["joint"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelWarn, false)

	l.Debug(context.Background(), "hidden")
	l.Info(context.Background(), "hidden too")
	l.Warn(context.Background(), "shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug/info should be filtered: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn should be logged: %s", out)
	}
}

func TestGenerateRunID(t *testing.T) {
	a, b := GenerateRunID(), GenerateRunID()
	if len(a) != 16 {
		t.Errorf("expected 16 hex chars, got %d", len(a))
	}
	if a == b {
		t.Error("run ids should differ")
	}
	if RunID(WithRunID(context.Background(), "")) == "" {
		t.Error("empty id should be replaced")
	}
}
