// Package debug provides verbose diagnostics on top of log/slog.
package debug

import (
	"io"
	"log/slog"
	"os"
)

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Init enables or disables verbose logging. When enabled, debug records are
// written as slog text lines to stderr; otherwise they are discarded.
func Init(verbose bool) {
	if !verbose {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		return
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// Debug logs a verbose diagnostic record.
func Debug(msg string, args ...any) {
	logger.Debug(msg, args...)
}

// Error logs a failure that is still surfaced to the caller through the
// normal error path.
func Error(msg string, args ...any) {
	logger.Error(msg, args...)
}
