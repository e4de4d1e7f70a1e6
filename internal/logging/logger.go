package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/wire"

	"realms_dao/internal/config"
)

var LoggingSet = wire.NewSet(
	NewLogger,
)

// ParseLevel maps a level name to slog. Unknown names mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger logs to stderr. REALMS_LOG_LEVEL wins over the configured level.
func NewLogger(cfg *config.RuntimeConfig) *slog.Logger {
	level := cfg.LogLevel
	if val := os.Getenv("REALMS_LOG_LEVEL"); val != "" {
		level = val
	}
	return New(os.Stderr, ParseLevel(level))
}

func New(w io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// time only clutters cli output
			if a.Key == slog.TimeKey && level > slog.LevelDebug {
				return slog.Attr{}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
