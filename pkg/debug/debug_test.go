package debug

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stdout)
		Reinitialize()
	})
	return &buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  LogLevel
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warn", LevelWarning},
		{"Warning", LevelWarning},
		{"error", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestLogRespectsLevel(t *testing.T) {
	buf := captureOutput(t)
	t.Setenv("DEBUG", "")
	t.Setenv("LOG_LEVEL", "warning")
	Reinitialize()

	Info("hidden %d", 1)
	Warning("shown %d", 2)

	out := buf.String()
	assert.NotContains(t, out, "hidden 1")
	assert.Contains(t, out, "[WARNING]")
	assert.Contains(t, out, "shown 2")
	assert.Contains(t, out, "debug_test.go")
}

func TestLogDisabled(t *testing.T) {
	buf := captureOutput(t)
	t.Setenv("DEBUG", "false")
	t.Setenv("LOG_LEVEL", "debug")
	Reinitialize()

	Error("nothing")
	assert.Empty(t, buf.String())
}
