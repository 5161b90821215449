// Package logging configures the global zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init initializes the global logger with configuration from environment variables.
// AURA_LOG_LEVEL controls the log level: debug, info, warn, error (default: info)
// AURA_LOG_FORMAT selects console (default) or json output.
func Init() {
	zerolog.SetGlobalLevel(ParseLevel(os.Getenv("AURA_LOG_LEVEL")))
	log.Logger = NewLogger(os.Stderr, os.Getenv("AURA_LOG_FORMAT"))
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// NewLogger builds a logger writing to w. Lambda uses "json" so CloudWatch
// can index fields; everything else gets the console writer.
func NewLogger(w io.Writer, format string) zerolog.Logger {
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return zerolog.New(w).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger()
}
