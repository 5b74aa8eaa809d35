// Package logger builds the structured logger shared by the server, the
// migration runner and the submission event consumer.
package logger

import (
	"io"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

// Config selects verbosity and output format.
type Config struct {
	Level  string
	JSON   bool
	Output io.Writer
}

// New returns a charm logger configured from cfg.  Unknown levels fall back to info.
func New(cfg Config) *charmlog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	l := charmlog.NewWithOptions(out, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05",
		Level:           ParseLevel(cfg.Level),
	})
	if cfg.JSON {
		l.SetFormatter(charmlog.JSONFormatter)
	} else {
		l.SetFormatter(charmlog.TextFormatter)
	}
	return l
}

// ParseLevel maps a textual level onto charm's levels.
func ParseLevel(s string) charmlog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// Discard is a logger that drops everything; tests use it.
func Discard() *charmlog.Logger {
	return New(Config{Level: "error", Output: io.Discard})
}
