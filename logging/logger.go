// Package logging sets up the process logger and keeps request statistics.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ParseLevel maps debug, info, warn and error to a slog level. Anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// New builds a logger writing to w. format "json" selects the JSON handler.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Setup installs the default logger. When logFile is set, output is also
// appended to it; a file that cannot be opened is reported and skipped.
// The returned closer releases the file.
func Setup(level, format, logFile string) (*slog.Logger, func() error) {
	var w io.Writer = os.Stdout
	closer := func() error { return nil }

	var openErr error
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			openErr = err
		} else if f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err != nil {
			openErr = err
		} else {
			w = io.MultiWriter(os.Stdout, f)
			closer = f.Close
		}
	}

	logger := New(w, level, format)
	slog.SetDefault(logger)
	if openErr != nil {
		logger.Warn("logging: log file unavailable", "path", logFile, "error", openErr)
	}
	return logger, closer
}
