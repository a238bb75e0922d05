// Package logger owns the process-wide slog logger.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

var globalLogger *slog.Logger

// ParseLevel maps a config level name to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s", level)
	}
}

// InitLogger installs a text handler at the given level writing to stderr.
func InitLogger(level string) error {
	return InitLoggerTo(level, os.Stderr)
}

// InitLoggerTo installs a text handler at the given level writing to w.
// The TUI passes a file here so log lines do not tear the screen.
func InitLoggerTo(level string, w io.Writer) error {
	l, err := ParseLevel(level)
	if err != nil {
		return err
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: l})
	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
	return nil
}

// GetLogger returns the global logger, or slog's default before InitLogger.
func GetLogger() *slog.Logger {
	if globalLogger == nil {
		return slog.Default()
	}
	return globalLogger
}
