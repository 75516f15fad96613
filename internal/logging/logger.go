// Package logging builds the diagnostic logger used across gamlvalidate.
//
// Diagnostics go to stderr so the validation report on stdout (text or NDJSON)
// stays clean.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration.
type Config struct {
	Level   string // debug, info, warn, error
	Verbose bool   // forces debug
	Format  string // console, json
}

// New returns a logger writing to w (stderr when nil).
func New(w io.Writer, cfg Config) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}

	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || cfg.Level == "" {
		level = zerolog.WarnLevel
	}
	if cfg.Verbose {
		level = zerolog.DebugLevel
	}

	out := w
	if cfg.Format != "json" {
		out = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.Kitchen,
			NoColor:    true,
		}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// WithComponent returns a logger with a component tag.
func WithComponent(l zerolog.Logger, component string) zerolog.Logger {
	return l.With().Str("component", component).Logger()
}
