package config

import (
	"os"

	"github.com/rs/zerolog"
)

// LoggingConfig contains logging settings shared by both binaries
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// NewLogger builds the process logger. Format "console" gives the
// human-readable writer for terminals; anything else is JSON lines.
// Unknown levels fall back to info rather than failing startup.
func NewLogger(cfg LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout})
	} else {
		logger = zerolog.New(os.Stdout)
	}

	return logger.With().Timestamp().Logger().Level(level)
}
