package observability

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, parseLevel(tt.input), tt.input)
	}
}

func TestNewLoggerTo_Formats(t *testing.T) {
	var buf bytes.Buffer
	NewLoggerTo(&buf, "info", "json").Info("resolved", "address", "1 MAIN STREET")
	assert.Contains(t, buf.String(), `"address":"1 MAIN STREET"`)

	buf.Reset()
	NewLoggerTo(&buf, "info", "text").Info("resolved", "address", "1 MAIN STREET")
	assert.Contains(t, buf.String(), `address="1 MAIN STREET"`)

	buf.Reset()
	NewLoggerTo(&buf, "warn", "json").Info("dropped")
	assert.Empty(t, buf.String())
}
