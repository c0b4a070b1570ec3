// Package logging builds the zerolog loggers spsync writes with. Defaults
// come from a profile and can be overridden from the environment.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

// Environment variables read by Load.
const (
	EnvLogLevel     = "SPSYNC_LOG_LEVEL"
	EnvLogFormat    = "SPSYNC_LOG_FORMAT"
	EnvLogNoColor   = "SPSYNC_LOG_NOCOLOR"
	EnvLogTimestamp = "SPSYNC_LOG_TIMESTAMP"
)

// Output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

// Config controls the logger New builds.
type Config struct {
	Level     string `env:"SPSYNC_LOG_LEVEL"`
	Format    string `env:"SPSYNC_LOG_FORMAT"`
	NoColor   bool   `env:"SPSYNC_LOG_NOCOLOR"`
	Timestamp bool   `env:"SPSYNC_LOG_TIMESTAMP"`
}

// DefaultConfig returns the settings for profile before any environment
// override.
func DefaultConfig(profile Profile) Config {
	switch profile {
	case ProfileTest:
		return Config{Level: "debug", Format: FormatConsole, NoColor: true}
	default:
		return Config{Level: "info", Format: FormatConsole, Timestamp: true}
	}
}

// Load returns the profile defaults with the SPSYNC_LOG_* variables that
// are set applied on top.
func Load(profile Profile) (Config, error) {
	cfg := DefaultConfig(profile)
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// New builds a logger writing to w, or to stderr when w is nil. An
// unrecognised level falls back to info.
func New(cfg Config, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if !strings.EqualFold(cfg.Format, FormatJSON) {
		cw := zerolog.ConsoleWriter{Out: w, NoColor: cfg.NoColor, TimeFormat: time.RFC3339}
		if !cfg.Timestamp {
			cw.PartsExclude = []string{zerolog.TimestampFieldName}
		}
		w = cw
	}

	level, ok := parseLevel(cfg.Level)
	if !ok {
		level = zerolog.InfoLevel
	}
	ctx := zerolog.New(w).Level(level).With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	return ctx.Logger()
}

// Configure loads the configuration for profile and builds its logger.
func Configure(profile Profile, w io.Writer) (zerolog.Logger, error) {
	cfg, err := Load(profile)
	if err != nil {
		return zerolog.Nop(), err
	}
	return New(cfg, w), nil
}

func parseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}
