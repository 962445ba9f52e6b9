package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options controls the handler and minimum level of the root logger.
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// New returns a production-friendly JSON logger writing to stdout unless
// LOG_FORMAT=console (or Options.Format) asks for human-readable output.
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	handlerOpts := &slog.HandlerOptions{Level: parseLevel(opts.Level)}

	format := opts.Format
	if env := os.Getenv("LOG_FORMAT"); env != "" {
		format = env
	}

	var handler slog.Handler = slog.NewJSONHandler(out, handlerOpts)
	if strings.EqualFold(format, "console") {
		handler = slog.NewTextHandler(out, handlerOpts)
	}
	return slog.New(handler)
}

// Discard returns a logger that drops every record. Handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func parseLevel(v string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
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
