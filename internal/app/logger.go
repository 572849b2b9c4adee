package app

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ParseLevel converts a LOG_LEVEL value (debug, info, warn, error) to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error: got %q", level)
	}
	return l, nil
}

// NewLogger creates a JSON logger at the given level tagged with the component name.
// Unknown levels fall back to info.
func NewLogger(w io.Writer, level, component string) *slog.Logger {
	l, _ := ParseLevel(level)
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: l,
	}))
	return logger.With(slog.String("component", component))
}
