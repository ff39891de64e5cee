// Package logging configures the global zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/j-taylor87/dcmpress/internal/config"
)

// Setup points the global logger at a console writer on stderr and, when cfg.File is set, at a
// rotated log file as well. The returned closer releases the log file.
func Setup(cfg config.LoggingConfig) (io.Closer, error) {
	return setup(cfg, os.Stderr)
}

func setup(cfg config.LoggingConfig, console io.Writer) (io.Closer, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	consoleWriter := zerolog.ConsoleWriter{Out: console}
	if cfg.File == "" {
		log.Logger = zerolog.New(consoleWriter).With().Timestamp().Logger()
		return io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	fileWriter := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}

	log.Logger = zerolog.New(io.MultiWriter(consoleWriter, fileWriter)).With().Timestamp().Logger()
	log.Debug().
		Str("file", cfg.File).
		Str("level", level.String()).
		Msg("File logging initialized")
	return fileWriter, nil
}
