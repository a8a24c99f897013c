// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging configures the zerolog root logger shared by the serving
// path. CLI progress output stays on plain io.Writer printing; structured
// logs carry the server and lifecycle events.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging settings.
type Config struct {
	// Level is the minimum level: debug, info, warn, error (default info).
	Level string

	// Format is "json" or "console" (default console).
	Format string

	// Output defaults to os.Stderr.
	Output io.Writer
}

// New builds a configured zerolog.Logger.
func New(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if strings.ToLower(cfg.Format) != "json" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
