package app

import (
	"fmt"
	"io"
	"log/slog"
)

// newLogger builds the app's isolated logger instance; it never touches the
// global logger. The level string is parsed by slog itself, so the accepted
// spellings are exactly slog's ("debug", "INFO", "warn+2", ...). Unknown
// levels and formats are errors rather than silent defaults: by the time
// this runs the CLI has already validated both, so an invalid value here
// means a programmatic caller passed garbage. Empty strings select the
// defaults, info and text.
func newLogger(levelStr, formatStr string, outW io.Writer) (*slog.Logger, error) {
	level := slog.LevelInfo
	if levelStr != "" {
		if err := level.UnmarshalText([]byte(levelStr)); err != nil {
			return nil, fmt.Errorf("unknown log level %q: %w", levelStr, err)
		}
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch formatStr {
	case "json":
		handler = slog.NewJSONHandler(outW, handlerOpts)
	case "", "text":
		handler = slog.NewTextHandler(outW, handlerOpts)
	default:
		return nil, fmt.Errorf("unknown log format %q (want text or json)", formatStr)
	}

	return slog.New(handler), nil
}
