package bayesgo

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with search-specific helpers so driver logs use
// consistent field names.
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

// LogSearchStart logs the start of a structure search.
func (l *Logger) LogSearchStart(ctx context.Context, nodes, sets int) {
	l.InfoContext(ctx, "search started",
		"nodes", nodes,
		"operator_sets", sets,
	)
}

// LogIteration logs a single applied move.
func (l *Logger) LogIteration(ctx context.Context, iteration int, op string, delta, score float64) {
	l.DebugContext(ctx, "move applied",
		"iteration", iteration,
		"operator", op,
		"delta", delta,
		"score", score,
	)
}

// LogConverged logs the end of a search.
func (l *Logger) LogConverged(ctx context.Context, iterations int, score float64) {
	l.InfoContext(ctx, "search converged",
		"iterations", iterations,
		"score", score,
	)
}

// LogCheckpoint logs a checkpoint write.
func (l *Logger) LogCheckpoint(ctx context.Context, path string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "checkpoint failed",
			"path", path,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "checkpoint saved",
			"path", path,
		)
	}
}
