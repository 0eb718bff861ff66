// Package logger provides structured logging utilities for the application.
// It wraps log/slog with JSON formatting, enriches records with the actor,
// chat and request identifiers found in context, and optionally ships logs
// to Better Stack.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	slogbetterstack "github.com/samber/slog-betterstack"
)

// Logger is the application logger
type Logger struct {
	*slog.Logger
	level slog.Level
	async *AsyncHandler
}

// Options configures optional sinks in addition to the local JSON output.
type Options struct {
	BetterStackToken    string
	BetterStackEndpoint string
	Async               AsyncOptions
}

// New creates a new logger instance with JSON formatting
func New(level string) *Logger {
	return NewWithWriter(level, os.Stdout)
}

// NewWithWriter creates a new logger instance writing JSON to w.
func NewWithWriter(level string, w io.Writer) *Logger {
	return NewWithOptions(level, w, Options{})
}

// NewWithOptions creates a logger writing JSON to w and, when a Better Stack
// token is configured, shipping the same records asynchronously.
func NewWithOptions(level string, w io.Writer, opts Options) *Logger {
	logLevel := parseLevel(level)

	var handler slog.Handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       logLevel,
		ReplaceAttr: replaceAttr,
	})

	var async *AsyncHandler
	if opts.BetterStackToken != "" {
		remote := slogbetterstack.Option{
			Level:    logLevel,
			Token:    opts.BetterStackToken,
			Endpoint: opts.BetterStackEndpoint,
			Timeout:  5 * time.Second,
		}.NewBetterstackHandler()
		async = NewAsyncHandler(remote, opts.Async)
		handler = NewMultiHandler(handler, async)
	}

	return &Logger{
		Logger: slog.New(NewContextHandler(handler)),
		level:  logLevel,
		async:  async,
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// replaceAttr renames the built-in keys to timestamp/level/message and
// lowercases levels (WARN becomes "warning").
func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		a.Key = "timestamp"
	case slog.LevelKey:
		lvl := a.Value.String()
		if lvl == "WARN" {
			lvl = "warning"
		}
		a.Value = slog.StringValue(strings.ToLower(lvl))
	case slog.MessageKey:
		a.Key = "message"
	}
	return a
}

// Level returns the minimum level this logger emits.
func (l *Logger) Level() slog.Level {
	return l.level
}

func (l *Logger) derive(args ...any) *Logger {
	return &Logger{Logger: l.With(args...), level: l.level, async: l.async}
}

// WithModule creates a new entry with module field
func (l *Logger) WithModule(module string) *Logger {
	return l.derive("module", module)
}

// WithError creates a new entry with error field
func (l *Logger) WithError(err error) *Logger {
	return l.derive("error", err)
}

// WithField creates a new entry with a single field
func (l *Logger) WithField(key string, value any) *Logger {
	return l.derive(key, value)
}

// WithFields creates a new entry with multiple fields
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return l.derive(args...)
}

// Infof logs a formatted message at info level.
func (l *Logger) Infof(format string, args ...any) {
	l.Info(fmt.Sprintf(format, args...))
}

// Warnf logs a formatted message at warn level.
func (l *Logger) Warnf(format string, args ...any) {
	l.Warn(fmt.Sprintf(format, args...))
}

// Errorf logs a formatted message at error level.
func (l *Logger) Errorf(format string, args ...any) {
	l.Error(fmt.Sprintf(format, args...))
}

// Shutdown flushes the remote sink, if any.
func (l *Logger) Shutdown(ctx context.Context) error {
	return l.async.Shutdown(ctx)
}
