// Package ctxlog carries a slog.Logger through context.Context so that
// deeply nested resolution and evaluation code can log without threading a
// logger parameter everywhere.
package ctxlog

import (
	"context"
	"log/slog"
)

// key is unexported so no other package can collide with this context entry.
type key struct{}

var loggerKey = key{}

// WithLogger returns a child context carrying the given logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger stored in ctx, or the process-wide default
// logger when the context carries none.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
