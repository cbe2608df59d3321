// Package logging builds the process logger.
package logging

import (
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

// ToLevel maps a config string to a slog level, defaulting to info.
func ToLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a tinted stderr logger at the given level.
func New(level string) *slog.Logger {
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: ToLevel(level),
	}))
}
