package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"toolrent-content/config"

	"github.com/rs/zerolog"
)

// New creates the service logger. "pretty" format writes human readable
// console output, anything else writes JSON lines.
func New(cfg config.LogConfig) zerolog.Logger {
	return NewWithWriter(cfg, os.Stdout)
}

func NewWithWriter(cfg config.LogConfig, out io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if cfg.Format == "pretty" {
		return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).
			Level(level).
			With().
			Timestamp().
			Caller().
			Str("service", "toolrent-content").
			Logger()
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "toolrent-content").
		Logger()
}
