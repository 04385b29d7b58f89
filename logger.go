package hyperlsh

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with hyperlsh-specific context.
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
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that writes JSON records to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that writes human-readable records to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all output.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}

// WithFamily adds a hash family field to the logger.
func (l *Logger) WithFamily(f Family) *Logger {
	return &Logger{Logger: l.Logger.With("family", f.String())}
}

// WithK adds a top-k field to the logger.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{Logger: l.Logger.With("k", k)}
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{Logger: l.Logger.With("dimension", dim)}
}

// WithRun adds a run identifier field to the logger.
func (l *Logger) WithRun(id string) *Logger {
	return &Logger{Logger: l.Logger.With("run", id)}
}

// LogBuild logs an index build.
func (l *Logger) LogBuild(ctx context.Context, family Family, points int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "build failed",
			"family", family.String(),
			"points", points,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "build completed",
		"family", family.String(),
		"points", points,
		"elapsed", elapsed,
	)
}

// LogSearch logs a single query.
func (l *Logger) LogSearch(ctx context.Context, k, resultsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"k", k,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "search completed",
		"k", k,
		"results", resultsFound,
	)
}

// LogBatch logs a completed query batch.
func (l *Logger) LogBatch(ctx context.Context, queries int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "batch failed",
			"queries", queries,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "batch completed",
		"queries", queries,
		"elapsed", elapsed,
	)
}
