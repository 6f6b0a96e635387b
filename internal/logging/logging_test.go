package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"nonsense", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelWarn, Output: &buf})

	log.Debug("dropped")
	log.Info("dropped too")
	log.Warn("kept")
	log.Error("also kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("expected sub-level messages filtered, got %q", out)
	}
	if !strings.Contains(out, "kept") || !strings.Contains(out, "also kept") {
		t.Errorf("expected warn and error messages in output, got %q", out)
	}
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelDebug, Output: &buf, Prefix: "test"})

	log.WithComponent("engine").WithField("cmd", "substitute").Info("ran")

	out := buf.String()
	if !strings.Contains(out, "component=engine") {
		t.Errorf("expected component field in output, got %q", out)
	}
	if !strings.Contains(out, "cmd=substitute") {
		t.Errorf("expected cmd field in output, got %q", out)
	}
	if !strings.Contains(out, "[INFO] test:") {
		t.Errorf("expected level and prefix in output, got %q", out)
	}
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelDebug, Output: &buf})

	_ = log.WithField("child", true)
	log.Info("parent line")

	if strings.Contains(buf.String(), "child=") {
		t.Errorf("expected parent logger unchanged, got %q", buf.String())
	}
}

func TestNopDiscards(t *testing.T) {
	// Must not panic with a nil output writer.
	Nop.Error("ignored %d", 1)
}
