package engine

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with engine-specific context, giving structured logging with
// consistent field names across the CRUD + search + repair operation surface.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler. If handler is nil, uses a
// default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs at the given level.
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// NewTextLogger creates a Logger that outputs human-readable text logs at the given level.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.Level(1000)})
	return &Logger{Logger: slog.New(handler)}
}

// WithID adds an id field to the logger.
func (l *Logger) WithID(id uint64) *Logger {
	return &Logger{Logger: l.Logger.With("id", id)}
}

// LogInsert logs an insert operation.
func (l *Logger) LogInsert(ctx context.Context, id uint64, dimension int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "insert failed", "id", id, "dimension", dimension, "error", err)
		return
	}
	l.DebugContext(ctx, "insert completed", "id", id, "dimension", dimension)
}

// LogGet logs a get operation.
func (l *Logger) LogGet(ctx context.Context, id uint64, err error) {
	if err != nil {
		l.DebugContext(ctx, "get failed", "id", id, "error", err)
		return
	}
	l.DebugContext(ctx, "get completed", "id", id)
}

// LogDelete logs a delete operation.
func (l *Logger) LogDelete(ctx context.Context, id uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "delete failed", "id", id, "error", err)
		return
	}
	l.DebugContext(ctx, "delete completed", "id", id)
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(ctx context.Context, k, resultsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed", "k", k, "error", err)
		return
	}
	l.DebugContext(ctx, "search completed", "k", k, "results", resultsFound)
}

// LogHNSWStale logs the warn-and-continue posture: a log mutation succeeded but its
// paired HNSW mutation failed, leaving the graph stale until repair.
func (l *Logger) LogHNSWStale(ctx context.Context, op string, err error) {
	l.WarnContext(ctx, "HNSW index stale after mutation", "op", op, "error", err)
}

// LogRepair logs a repair operation.
func (l *Logger) LogRepair(ctx context.Context, err error) {
	if err != nil {
		l.ErrorContext(ctx, "repair failed", "error", err)
		return
	}
	l.InfoContext(ctx, "repair completed")
}
