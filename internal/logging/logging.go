// Package logging provides structured logging for the taskdata application.
//
// This package wraps the standard library's log/slog package to provide
// consistent logging across all components. It supports both text and JSON
// output formats, configurable log levels, component-based loggers, and
// optional rotating file output.
//
// Usage:
//
//	// Initialize at startup
//	logging.Init(slog.LevelInfo, false) // Text format
//	logging.InitFile("logs/app.log", slog.LevelInfo, false, 10, 3)
//
//	// Get a component logger
//	log := logging.Component("ingest")
//	log.Info("table written", "path", path, "rows", n)
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the global logger instance.
var Logger *slog.Logger

// Init initializes the global logger with the specified level and format.
// If jsonFormat is true, logs are output as JSON; otherwise, human-readable text.
func Init(level slog.Level, jsonFormat bool) {
	InitWriter(os.Stdout, level, jsonFormat)
}

// InitWriter initializes the global logger writing to w.
func InitWriter(w io.Writer, level slog.Level, jsonFormat bool) {
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	if jsonFormat {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	Logger = slog.New(handler)
	slog.SetDefault(Logger)
}

// InitFile initializes the global logger with a rotating file target.
// maxSizeMB is the size at which the file rotates and maxBackups the
// number of rotated files kept. Output is mirrored to stdout.
func InitFile(path string, level slog.Level, jsonFormat bool, maxSizeMB, maxBackups int) {
	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
	}
	InitWriter(io.MultiWriter(os.Stdout, rotator), level, jsonFormat)
}

// With returns a new logger with additional attributes.
// These attributes are included in every log entry from the returned logger.
func With(args ...any) *slog.Logger {
	if Logger == nil {
		Init(slog.LevelInfo, false)
	}
	return Logger.With(args...)
}

// Component returns a logger for a specific component.
// The component name is added as an attribute to all log entries.
//
// Example:
//
//	log := logging.Component("merge")
//	log.Info("started") // Output: time=... level=INFO component=merge msg=started
func Component(name string) *slog.Logger {
	if Logger == nil {
		Init(slog.LevelInfo, false)
	}
	return Logger.With("component", name)
}

// WithContext returns a logger that includes context values.
// This is useful for request-scoped logging keyed by the identity triple.
func WithContext(ctx context.Context) *slog.Logger {
	if Logger == nil {
		Init(slog.LevelInfo, false)
	}

	logger := Logger

	if participant, ok := ctx.Value(contextKeyParticipant).(string); ok {
		logger = logger.With("participant_id", participant)
	}
	if session, ok := ctx.Value(contextKeySession).(string); ok {
		logger = logger.With("session_id", session)
	}
	if task, ok := ctx.Value(contextKeyTask).(string); ok {
		logger = logger.With("task", task)
	}

	return logger
}

// Context key types for type-safe context value extraction.
type contextKey int

const (
	contextKeyParticipant contextKey = iota
	contextKeySession
	contextKeyTask
)

// ContextWithParticipant adds a participant ID to the context for logging.
func ContextWithParticipant(ctx context.Context, participant string) context.Context {
	return context.WithValue(ctx, contextKeyParticipant, participant)
}

// ContextWithSession adds a session ID to the context for logging.
func ContextWithSession(ctx context.Context, session string) context.Context {
	return context.WithValue(ctx, contextKeySession, session)
}

// ContextWithTask adds a task name to the context for logging.
func ContextWithTask(ctx context.Context, task string) context.Context {
	return context.WithValue(ctx, contextKeyTask, task)
}

// =============================================================================
// Convenience Functions
// =============================================================================

// Debug logs at debug level.
func Debug(msg string, args ...any) {
	if Logger == nil {
		Init(slog.LevelInfo, false)
	}
	Logger.Debug(msg, args...)
}

// Info logs at info level.
func Info(msg string, args ...any) {
	if Logger == nil {
		Init(slog.LevelInfo, false)
	}
	Logger.Info(msg, args...)
}

// Warn logs at warning level.
func Warn(msg string, args ...any) {
	if Logger == nil {
		Init(slog.LevelInfo, false)
	}
	Logger.Warn(msg, args...)
}

// Error logs at error level.
func Error(msg string, args ...any) {
	if Logger == nil {
		Init(slog.LevelInfo, false)
	}
	Logger.Error(msg, args...)
}
