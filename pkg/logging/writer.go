package logging

import (
	"log/slog"
	"strings"
)

// Writer forwards lines written by other loggers (net/http error logs) to a
// slog logger at warn level.
type Writer struct {
	logger *slog.Logger
	msg    string
}

// NewWriter returns a Writer logging each line with msg as the record message.
func NewWriter(logger *slog.Logger, msg string) *Writer {
	return &Writer{logger: logger, msg: msg}
}

func (w *Writer) Write(p []byte) (int, error) {
	if w.logger != nil {
		if line := strings.TrimRight(string(p), "\n"); line != "" {
			w.logger.Warn(w.msg, "line", line)
		}
	}
	return len(p), nil
}
