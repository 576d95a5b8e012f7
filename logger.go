package colormatch

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with colormatch-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithCatalog adds the catalog name to the logger.
func (l *Logger) WithCatalog(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("catalog", name),
	}
}

// LogBuild logs the outcome of an index build.
func (l *Logger) LogBuild(ctx context.Context, nodes int, truncated bool, duration time.Duration, err error) {
	if err != nil {
		l.WarnContext(ctx, "index build failed",
			"error", err,
		)
		return
	}
	if truncated {
		l.WarnContext(ctx, "index built with dropped points",
			"nodes", nodes,
			"duration", duration,
		)
		return
	}
	l.InfoContext(ctx, "index built",
		"nodes", nodes,
		"duration", duration,
	)
}

// LogDegrade logs the permanent switch to the streaming fallback.
func (l *Logger) LogDegrade(ctx context.Context, err error) {
	l.WarnContext(ctx, "using streaming fallback",
		"reason", err,
	)
}

// LogMatch logs a match operation.
func (l *Logger) LogMatch(ctx context.Context, r, g, b uint8, res Result, err error) {
	if err != nil {
		l.DebugContext(ctx, "match failed",
			"rgb", []uint8{r, g, b},
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "match completed",
		"rgb", []uint8{r, g, b},
		"label", res.Label,
		"distance", res.Distance,
		"strategy", res.Strategy.String(),
	)
}
