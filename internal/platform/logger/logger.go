package logger

import (
	"io"
	"log/slog"
	"os"
)

// New returns the process logger: JSON in production, human-readable text
// elsewhere.
func New(env string) *slog.Logger {
	return NewWithWriter(env, os.Stdout)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(env string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if env == "production" {
		return slog.New(slog.NewJSONHandler(w, opts)).With("service", "saral")
	}
	opts.Level = slog.LevelDebug
	return slog.New(slog.NewTextHandler(w, opts))
}
