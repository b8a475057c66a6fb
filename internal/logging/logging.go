// Package logging builds the process-wide zerolog root logger.
package logging

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecosnap/ecosnap-server/internal/config"
)

// New builds the root logger from LOG_LEVEL and LOG_FORMAT. The console
// writer is the default in DEV; production deployments get raw JSON.
func New(env string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	level := parseLevel(config.GetEnv("LOG_LEVEL", "info"))

	format := strings.ToLower(config.GetEnv("LOG_FORMAT", ""))
	if format == "" {
		if env == "DEV" {
			format = "console"
		} else {
			format = "json"
		}
	}

	var out = zerolog.New(os.Stdout)
	if format == "console" {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	return out.Level(level).With().Timestamp().Str("service", "ecosnap").Logger()
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
