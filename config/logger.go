package config

import (
	"io"
	"log/slog"
)

// NewLogger creates a slog.Logger writing to w. Unknown levels fall back to
// info and unknown formats to text. It does not set the global logger.
func NewLogger(levelStr, formatStr string, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler

	if formatStr == "json" {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}

	return slog.New(handler)
}

// Logger creates the logger configured by the run.
func (r *Run) Logger(w io.Writer) *slog.Logger {
	return NewLogger(r.LogLevel, r.LogFormat, w)
}
