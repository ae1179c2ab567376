// Package logger configures the process-wide structured logger.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Init installs a text slog handler on stderr as the default logger.
// Debug lowers the level so per-request timings are shown.
func Init(debug bool) *slog.Logger {
	return InitWriter(os.Stderr, debug)
}

// InitWriter is Init with an explicit destination.
func InitWriter(w io.Writer, debug bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}
	if debug {
		opts.Level = slog.LevelDebug
	}

	l := slog.New(slog.NewTextHandler(w, opts))
	slog.SetDefault(l)
	return l
}
