package app

import (
	"io"
	"log/slog"
)

// newLogger creates a new slog.Logger instance based on the provided
// level and format strings, writing to outW.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if formatStr == "json" {
		handler = slog.NewJSONHandler(outW, opts)
	} else {
		handler = slog.NewTextHandler(outW, opts)
	}

	return slog.New(handler)
}
