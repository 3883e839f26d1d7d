// Package logging configures the process-wide phuslu logger.
package logging

import (
	"io"
	"os"

	"github.com/phuslu/log"
)

// Setup installs the default logger at level, writing human-readable lines to
// stderr. An unknown level falls back to info.
func Setup(level string) {
	SetupWriter(level, os.Stderr)
}

// SetupWriter is Setup with an explicit destination.
func SetupWriter(level string, w io.Writer) {
	lvl := log.ParseLevel(level)
	if level == "" {
		lvl = log.InfoLevel
	}
	log.DefaultLogger = log.Logger{
		Level:      lvl,
		Caller:     1,
		TimeFormat: "2006-01-02 15:04:05",
		Writer: &log.ConsoleWriter{
			Writer:         w,
			ColorOutput:    w == os.Stderr,
			QuoteString:    true,
			EndWithMessage: true,
		},
	}
}
