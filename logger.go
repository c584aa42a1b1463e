package nnindex

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with index-specific helpers.
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
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// LogBatchInsert logs a bulk insert operation.
func (l *Logger) LogBatchInsert(ctx context.Context, rows, workers int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "batch insert failed",
			"rows", rows,
			"workers", workers,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "batch insert completed",
			"rows", rows,
			"workers", workers,
		)
	}
}

// LogSearch logs a batch search operation.
func (l *Logger) LogSearch(ctx context.Context, queries, k, workers int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"queries", queries,
			"k", k,
			"workers", workers,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"queries", queries,
			"k", k,
			"workers", workers,
		)
	}
}

// LogDelete logs a mark/unmark-deleted operation.
func (l *Logger) LogDelete(ctx context.Context, op string, label uint64, err error) {
	if err != nil {
		l.WarnContext(ctx, op+" failed",
			"label", label,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, op+" completed",
			"label", label,
		)
	}
}

// LogSnapshot logs a save or load operation.
func (l *Logger) LogSnapshot(ctx context.Context, op, target string, err error) {
	if err != nil {
		l.ErrorContext(ctx, op+" failed",
			"target", target,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, op+" completed",
			"target", target,
		)
	}
}
