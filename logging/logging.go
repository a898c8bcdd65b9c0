// Package logging configures the global zerolog logger and derives the
// per-component loggers.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nvr-ai/redscan/config"
)

// Setup installs the global logger described by cfg, writing to stderr and,
// when enabled, to the embedded Logdy UI. An invalid level falls back to info
// with a warning.
func Setup(cfg *config.Config) {
	var extra []io.Writer
	if cfg.LogdyEnabled {
		w, _ := StartLogdy(cfg)
		extra = append(extra, w)
	}
	log.Logger = New(cfg, os.Stderr, extra...)
}

// New builds a logger for cfg without touching the global one.
//
// Arguments:
//   - cfg: Level and format.
//   - out: Primary destination.
//   - extra: Additional raw JSON destinations, such as the Logdy tee.
//
// Returns:
//   - zerolog.Logger: Console formatted when cfg.LogFormat is "console".
func New(cfg *config.Config, out io.Writer, extra ...io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	primary := out
	if cfg.LogFormat == "console" {
		primary = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05.000", NoColor: out != os.Stderr}
	}

	writers := append([]io.Writer{primary}, extra...)
	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger().Level(level)

	if err != nil {
		logger.Warn().Str("level", cfg.LogLevel).Msg("Invalid log level, using info")
	}
	return logger
}

// NewServiceLogger returns the global logger tagged with the run and the
// component name.
func NewServiceLogger(runID, service string) zerolog.Logger {
	return log.With().Str("run_id", runID).Str("service", service).Logger()
}

// WithSource tags a logger with the frame source name.
func WithSource(base zerolog.Logger, source string) zerolog.Logger {
	return base.With().Str("source", source).Logger()
}
