package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
)

// New returns a slog.Logger backed by a charm logger writing to stdout.
func New(level string, json bool) *slog.Logger {
	return NewWithWriter(os.Stdout, level, json)
}

func NewWithWriter(w io.Writer, level string, json bool) *slog.Logger {
	handler := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           levelFromString(level),
	})
	if json {
		handler.SetFormatter(charmlog.JSONFormatter)
	} else {
		handler.SetFormatter(charmlog.TextFormatter)
	}
	return slog.New(handler)
}

func levelFromString(value string) charmlog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return charmlog.DebugLevel
	case "warn", "warning":
		return charmlog.WarnLevel
	case "error":
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}

// Discard is a logger for tests and library defaults.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
