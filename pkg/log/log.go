// Package log configures the process-wide slog logger shared by the API
// server, the workflow engine and the node implementations. Components tag
// their records with a module attribute so one execution's output can be
// filtered per layer.
package log

import (
	"log/slog"
	"os"
)

// Setup installs the default text handler at the requested level. Unknown
// level names fall back to info.
func Setup(logLevel string) {
	var level slog.Level

	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

// WithModule returns a logger whose records carry the component name.
func WithModule(module string) *slog.Logger {
	return slog.With("module", module)
}
