package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func newBufferLogger(buf *bytes.Buffer, level slog.Level) Logger {
	return NewLogger(Config{Level: level, Format: FormatText, Output: buf})
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   string
	}{
		{
			name:   "text format with info level",
			config: Config{Level: slog.LevelInfo, Format: FormatText},
			want:   "level=INFO",
		},
		{
			name:   "JSON format with debug level",
			config: Config{Level: slog.LevelDebug, Format: FormatJSON},
			want:   `"level":"INFO"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.config.Output = &buf

			NewLogger(tt.config).Info("command registered")

			if output := buf.String(); !strings.Contains(output, tt.want) {
				t.Errorf("NewLogger() output = %v, want to contain %v", output, tt.want)
			}
		})
	}
}

func TestLoggerOmitsTimeByDefault(t *testing.T) {
	var buf bytes.Buffer
	newBufferLogger(&buf, slog.LevelInfo).Info("hello")

	if strings.Contains(buf.String(), "time=") {
		t.Errorf("expected no time attribute, got: %s", buf.String())
	}
}

func TestLoggerLevels(t *testing.T) {
	tests := []struct {
		name       string
		level      slog.Level
		debugShown bool
		infoShown  bool
		errorShown bool
	}{
		{"info", slog.LevelInfo, false, true, true},
		{"debug", slog.LevelDebug, true, true, true},
		{"error", slog.LevelError, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newBufferLogger(&buf, tt.level)

			logger.Debug("debug message")
			logger.Info("info message")
			logger.Error("error message")

			output := buf.String()
			if got := strings.Contains(output, "debug message"); got != tt.debugShown {
				t.Errorf("Debug message visibility = %v, want %v", got, tt.debugShown)
			}
			if got := strings.Contains(output, "info message"); got != tt.infoShown {
				t.Errorf("Info message visibility = %v, want %v", got, tt.infoShown)
			}
			if got := strings.Contains(output, "error message"); got != tt.errorShown {
				t.Errorf("Error message visibility = %v, want %v", got, tt.errorShown)
			}
		})
	}
}

func TestSetLevelAppliesToDerivedLoggers(t *testing.T) {
	var buf bytes.Buffer
	root := newBufferLogger(&buf, slog.LevelInfo)
	child := root.With("component", "registry")

	child.Debug("hidden")
	root.SetLevel(slog.LevelDebug)
	child.Debug("shown")

	output := buf.String()
	if strings.Contains(output, "hidden") {
		t.Errorf("debug message logged before level change: %s", output)
	}
	if !strings.Contains(output, "shown") || !strings.Contains(output, "component=registry") {
		t.Errorf("derived logger lost level or attributes: %s", output)
	}
}

func TestLoggerWithGroup(t *testing.T) {
	var buf bytes.Buffer
	newBufferLogger(&buf, slog.LevelInfo).WithGroup("dispatch").Info("done", "status", "ok")

	if !strings.Contains(buf.String(), "dispatch.status=ok") {
		t.Errorf("WithGroup() output should contain grouped attributes, got: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelWarn,
	}
	for in, want := range tests {
		if got := ParseLevel(in, slog.LevelWarn); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestGlobalLoggerAndComponent(t *testing.T) {
	original := GetGlobalLogger()
	defer SetGlobalLogger(original)

	var buf bytes.Buffer
	testLogger := newBufferLogger(&buf, slog.LevelInfo)
	SetGlobalLogger(testLogger)

	if GetGlobalLogger() != testLogger {
		t.Error("GetGlobalLogger() should return the set logger")
	}
	if OrGlobal(nil) != testLogger {
		t.Error("OrGlobal(nil) should fall back to the global logger")
	}

	ForComponent(nil, "cache").Info("evicted")
	Info("global message")

	output := buf.String()
	if !strings.Contains(output, "component=cache") {
		t.Errorf("ForComponent() output should contain component=cache, got: %s", output)
	}
	if !strings.Contains(output, "global message") {
		t.Errorf("Global Info() should work, got: %s", output)
	}
}
