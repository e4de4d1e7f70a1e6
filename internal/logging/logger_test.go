package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"realms_dao/internal/config"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"loud":    slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

// TestNewDropsTime checks time only shows up in debug output.
func TestNewDropsTime(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelInfo)
	log.Debug("hidden")
	log.Info("vote cast", "weight", 10)
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.NotContains(t, out, "time=")
	assert.Contains(t, out, "msg=\"vote cast\" weight=10")

	buf.Reset()
	New(&buf, slog.LevelDebug).Debug("shown")
	assert.Contains(t, buf.String(), "time=")
	assert.Contains(t, buf.String(), "msg=shown")
}

// TestNewLoggerEnvOverride checks REALMS_LOG_LEVEL beats the configured level.
func TestNewLoggerEnvOverride(t *testing.T) {
	t.Setenv("REALMS_LOG_LEVEL", "error")
	log := NewLogger(&config.RuntimeConfig{LogLevel: "debug"})
	assert.False(t, log.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, log.Enabled(context.Background(), slog.LevelError))
}
