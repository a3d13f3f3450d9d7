package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/talgya/hexworlds/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"debug", slog.LevelDebug, true},
		{"", slog.LevelInfo, true},
		{" WARN ", slog.LevelWarn, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"loud", slog.LevelInfo, false},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hexworlds.log")
	var stdout bytes.Buffer
	logger, closer, err := New(config.Log{Level: "warn", File: path, MaxSizeMB: 1}, &stdout)
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("hidden")
	logger.Warn("auto-save failed", "error", "disk full")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for name, out := range map[string]string{"stdout": stdout.String(), "file": string(data)} {
		if !strings.Contains(out, "auto-save failed") || !strings.Contains(out, "error=\"disk full\"") {
			t.Errorf("%s missing warning: %q", name, out)
		}
		if strings.Contains(out, "hidden") {
			t.Errorf("%s has a filtered record", name)
		}
	}
}
