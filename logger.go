package lexgo

import (
	"context"
	"log/slog"
	"os"

	"github.com/hupe1980/lexgo/spaceusage"
)

// Logger wraps slog.Logger with lexgo-specific context.
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
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithSegment adds a segment id field to the logger.
func (l *Logger) WithSegment(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("segment", id),
	}
}

// WithOpstamp adds an opstamp field to the logger.
func (l *Logger) WithOpstamp(opstamp uint64) *Logger {
	return &Logger{
		Logger: l.Logger.With("opstamp", opstamp),
	}
}

// WithField adds a schema field name to the logger.
func (l *Logger) WithField(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("field", name),
	}
}

// LogOpen logs opening an index.
func (l *Logger) LogOpen(ctx context.Context, opstamp uint64, segments int, created bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "open failed",
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "index opened",
		"opstamp", opstamp,
		"segments", segments,
		"created", created,
	)
}

// LogCommit logs a commit.
func (l *Logger) LogCommit(ctx context.Context, opstamp uint64, docs, deleted, segments int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "commit failed",
			"opstamp", opstamp,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "commit completed",
		"opstamp", opstamp,
		"docs", docs,
		"deleted", deleted,
		"segments", segments,
	)
}

// LogDelete logs a queued delete-by-term.
func (l *Logger) LogDelete(ctx context.Context, field string, opstamp uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "delete failed",
			"field", field,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "delete queued",
		"field", field,
		"opstamp", opstamp,
	)
}

// LogRollback logs a rollback of pending operations.
func (l *Logger) LogRollback(ctx context.Context, opstamp uint64, dropped int) {
	l.InfoContext(ctx, "rollback completed",
		"opstamp", opstamp,
		"dropped", dropped,
	)
}

// LogSpaceUsage logs a space usage measurement.
func (l *Logger) LogSpaceUsage(ctx context.Context, total spaceusage.ByteCount, segments int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "space usage failed",
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "space usage measured",
		"total", uint64(total),
		"human", total.String(),
		"segments", segments,
	)
}
