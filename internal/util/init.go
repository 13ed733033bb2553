// Package util provides initialization utilities for logger and
// configuration, shared by every blocksync binary.
package util

import (
	"io"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
)

// InitLogger initializes and returns a zerolog logger writing to w. It
// supports both JSON (production) and pretty console (development) output.
// Helper binaries (cmd/blocksync-readhelper, cmd/blocksync-writehelper)
// must pass os.Stderr: their stdout is the wire protocol itself and cannot
// carry a single stray log byte.
func InitLogger(service string, w io.Writer) *zerolog.Logger {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var logger zerolog.Logger
	if isTerminal(w) {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: w}).
			With().
			Timestamp().
			Caller().
			Logger()
	} else {
		logger = zerolog.New(w).
			With().
			Timestamp().
			Str("service", service).
			Logger()
	}

	return &logger
}

// InitConfig initializes and returns a koanf configuration instance.
// It loads configuration from the TOML file and allows environment variable
// overrides.
func InitConfig(logger *zerolog.Logger, configPath string) *koanf.Koanf {
	ko := koanf.New(".")

	if err := ko.Load(file.Provider(configPath), toml.Parser()); err != nil {
		logger.Fatal().
			Err(err).
			Str("path", configPath).
			Msg("failed to load config file")
	}

	// Environment variables like BLOCKSYNC_SYNC_WORKERS override
	// sync.workers. Every underscore after the prefix becomes a key
	// separator, so keys that themselves contain an underscore (such as
	// sync.hash_algo) cannot be set from the environment.
	if err := ko.Load(env.Provider("BLOCKSYNC_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "BLOCKSYNC_")
		return strings.Replace(strings.ToLower(s), "_", ".", -1)
	}), nil); err != nil {
		logger.Warn().
			Err(err).
			Msg("failed to load environment variables")
	}

	logger.Info().
		Str("config_file", configPath).
		Msg("configuration loaded successfully")

	return ko
}

// UpdateLogLevel updates the global log level based on configuration.
func UpdateLogLevel(ko *koanf.Koanf, logger *zerolog.Logger) {
	levelStr := ko.String("logging.level")
	if levelStr == "" {
		levelStr = "info"
	}

	var level zerolog.Level
	switch strings.ToLower(levelStr) {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn", "warning":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	default:
		level = zerolog.InfoLevel
		logger.Warn().
			Str("configured_level", levelStr).
			Str("using_level", "info").
			Msg("unknown log level, defaulting to info")
	}

	zerolog.SetGlobalLevel(level)
	logger.Info().
		Str("level", level.String()).
		Msg("log level set")
}

// isTerminal checks if w is a terminal (for pretty console output).
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
