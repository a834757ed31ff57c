package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewJSONLoggerWritesComponent(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Format: "json", Output: &buf, Component: "warehouse"})
	log.Debug("saved", "items", 3)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if entry["component"] != "warehouse" || entry["msg"] != "saved" {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if entry["items"].(float64) != 3 {
		t.Fatalf("expected items attribute, got %+v", entry)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Output: &buf})
	log.Info("hidden")
	log.Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWithFallsBackForPlainLoggers(t *testing.T) {
	var noop Logger = NoOpLogger{}
	if With(noop, "k", "v") != noop {
		t.Fatalf("expected plain logger returned unchanged")
	}
	var buf bytes.Buffer
	child := With(New(Config{Output: &buf}), "scene", "lab")
	child.Info("purged")
	if !strings.Contains(buf.String(), "scene=lab") {
		t.Fatalf("expected attribute in %q", buf.String())
	}
	NoOpLogger{}.Debug("x")
	NoOpLogger{}.Error("x")
	if NewSlogAdapter(nil) == nil {
		t.Fatalf("expected default adapter")
	}
}
