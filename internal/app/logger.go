package app

import (
	"io"
	"log/slog"
)

// levels maps the log_level values accepted by config.Validate.
var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// newLogger builds the run logger without touching the global one. Source
// locations are only attached at debug level; unknown levels fall back to
// info and anything but "json" selects the text handler.
func newLogger(levelStr, formatStr string, w io.Writer) *slog.Logger {
	level, ok := levels[levelStr]
	if !ok {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level, AddSource: level == slog.LevelDebug}
	var handler slog.Handler
	switch formatStr {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler).With("app", "testgrid")
}
