// Package cli implements the nestd command-line interface: a `serve`
// command running the queue worker and a `run` command for one-shot
// local nesting without queue or object storage.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
)

// newLogger creates a leveled logger with timestamp formatting.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}
