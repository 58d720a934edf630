// Package logger provides a simple wrapper around slog for structured logging.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Logger is the global logger instance.
var Logger = slog.New(slog.NewTextHandler(os.Stderr, nil))

// Init points the global logger at path with the given level. An empty path
// discards output, which keeps log lines from drawing over the TUI.
// The returned closer releases the log file.
func Init(path, level string) (io.Closer, error) {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	if path == "" {
		Logger = slog.New(slog.NewTextHandler(io.Discard, opts))
		return io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	Logger = slog.New(slog.NewTextHandler(f, opts))
	return f, nil
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// Error logs an error message.
func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}

// Info logs an informational message.
func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}
