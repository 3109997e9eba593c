package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{DEBUG, "DEBUG"},
		{INFO, "INFO"},
		{WARN, "WARN"},
		{ERROR, "ERROR"},
		{Level(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.level.String(); got != tt.want {
				t.Errorf("Level.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want Level
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"warn", WARN},
		{"warning", WARN},
		{"error", ERROR},
		{" Error ", ERROR},
		{"bogus", INFO},
		{"", INFO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.name); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestSetLevel(t *testing.T) {
	origLevel := defaultLogger.level
	defer func() { defaultLogger.level = origLevel }()

	SetLevel(DEBUG)
	if defaultLogger.level != DEBUG {
		t.Error("SetLevel did not change level")
	}

	SetLevel(ERROR)
	if defaultLogger.level != ERROR {
		t.Error("SetLevel did not change level")
	}
}

func TestLogFiltering(t *testing.T) {
	origLevel := defaultLogger.level
	origOutput := defaultLogger.output
	defer func() {
		defaultLogger.level = origLevel
		defaultLogger.output = origOutput
	}()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(WARN)

	Debug("debug message")
	Info("info message")
	Warn("warn message")
	Error("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Error("messages below WARN should be filtered")
	}
	if !strings.Contains(out, "warn message") || !strings.Contains(out, "error message") {
		t.Error("WARN and ERROR messages should be logged")
	}
}

func TestWithField(t *testing.T) {
	origOutput := defaultLogger.output
	defer func() { defaultLogger.output = origOutput }()

	var buf bytes.Buffer
	SetOutput(&buf)

	logger := WithField("loop", "heartbeat")
	if logger == nil {
		t.Fatal("WithField returned nil")
	}
	if logger.fields["loop"] != "heartbeat" {
		t.Error("field not set correctly")
	}
	if len(defaultLogger.fields) != 0 {
		t.Error("WithField should not mutate the default logger")
	}

	logger.Info("tick done")
	if !strings.Contains(buf.String(), "loop=heartbeat") {
		t.Errorf("field not rendered: %q", buf.String())
	}
}

func TestFieldsRenderedSorted(t *testing.T) {
	origOutput := defaultLogger.output
	defer func() { defaultLogger.output = origOutput }()

	var buf bytes.Buffer
	SetOutput(&buf)

	WithField("b", 2).WithField("a", 1).Info("x")

	out := buf.String()
	if strings.Index(out, "a=1") > strings.Index(out, "b=2") {
		t.Errorf("fields not sorted: %q", out)
	}
}
