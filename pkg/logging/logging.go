// Package logging builds the slog loggers used by the CLI, the server and
// views.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
)

// Level is a log level accepted on the command line and in configuration.
type Level slog.Level

const (
	LevelDebug Level = Level(slog.LevelDebug)
	LevelInfo  Level = Level(slog.LevelInfo)
	LevelWarn  Level = Level(slog.LevelWarn)
	LevelError Level = Level(slog.LevelError)
)

// ParseLevel converts a textual level. Unknown values map to info.
func ParseLevel(value string) Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) String() string {
	return slog.Level(l).String()
}

// Option configures the tint handler.
type Option func(*tint.Options)

// WithoutColor disables ANSI colours, for files and non-terminal output.
func WithoutColor() Option {
	return func(o *tint.Options) {
		o.NoColor = true
	}
}

// WithTimeFormat sets the timestamp layout.
func WithTimeFormat(layout string) Option {
	return func(o *tint.Options) {
		o.TimeFormat = layout
	}
}

// NewLogger returns a tint backed logger writing to w, stderr when w is nil.
func NewLogger(w io.Writer, level Level, opts ...Option) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	options := &tint.Options{Level: slog.Level(level)}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}
	return slog.New(tint.NewHandler(w, options))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
