// Package logging builds the process logger from user configuration.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/SmokySkyline/chutes-omnivocal-public/internal/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits for the session log file.
const (
	maxSizeMB  = 20
	maxBackups = 3
	maxAgeDays = 30
)

// Configure returns a logrus logger writing to the rotated log file from
// cfg.Paths, optionally teed to stderr. Transcribed text goes to stdout,
// so the logger never does.
func Configure(cfg *config.Config) (*logrus.Logger, error) {
	if err := config.MustStatePaths(cfg); err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetLevel(parseLevel(cfg.Logging.Level))
	if strings.EqualFold(cfg.Logging.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	var out io.Writer = &lumberjack.Logger{
		Filename:   cfg.Paths.LogPath,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
	}
	if cfg.Logging.Stdout {
		out = io.MultiWriter(os.Stderr, out)
	}
	logger.SetOutput(out)
	return logger, nil
}

func parseLevel(s string) logrus.Level {
	lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// NewTestLogger returns a silent logger for tests.
func NewTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
