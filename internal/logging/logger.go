package logging

import (
	"io"
	"log/slog"
	"os"
)

// New creates a slog logger at the provided level, writing JSON to stdout.
// When pretty is set it writes the text format instead, which reads better in
// a local terminal. An invalid level falls back to info.
func New(level string, pretty bool) *slog.Logger {
	return slog.New(newHandler(os.Stdout, level, pretty))
}

func newHandler(w io.Writer, level string, pretty bool) slog.Handler {
	lvl := new(slog.LevelVar)
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl.Set(slog.LevelInfo)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if pretty {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// Discard returns a logger that drops all output. Useful for tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}
