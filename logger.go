package linescan

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with linescan field names.
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
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithStream adds a stream name field to the logger.
func (l *Logger) WithStream(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("stream", name),
	}
}

// LogGrow logs a staging buffer reallocation.
func (l *Logger) LogGrow(oldCap, newCap, staged int) {
	l.Debug("staging buffer grown",
		"old_cap", oldCap,
		"new_cap", newCap,
		"staged", staged,
	)
}

// LogAllocFailure logs an abandoned record.
func (l *Logger) LogAllocFailure(requested, staged int, err error) {
	l.Warn("record abandoned: staging buffer could not grow",
		"requested", requested,
		"staged", staged,
		"error", err,
	)
}

// LogStreamDone logs the end of a stream.
func (l *Logger) LogStreamDone(ctx context.Context, records, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "stream failed",
			"records", records,
			"bytes", bytes,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "stream done",
			"records", records,
			"bytes", bytes,
		)
	}
}
