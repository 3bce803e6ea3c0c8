package proxigraph

import (
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with proxigraph-specific context. It provides
// structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler. If handler is nil, a
// default text handler to stderr at info level is used.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NopLogger returns a Logger that discards everything.
func NopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// WithComponent returns a child logger tagged with a component name.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{Logger: l.With("component", name)}
}
