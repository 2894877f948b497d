// Package logging provides the leveled diagnostic logger shared by every
// command. Diagnostics always go to stderr so that --json output on stdout
// stays machine readable.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var logger zerolog.Logger

func init() {
	logger = newLogger(os.Stderr, false)

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		if level, err := zerolog.ParseLevel(lvl); err == nil {
			zerolog.SetGlobalLevel(level)
		}
	}
}

func newLogger(w io.Writer, noColor bool) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    noColor,
	}
	return zerolog.New(output).With().Timestamp().Logger()
}

// SetOutput redirects log output, mostly for tests.
func SetOutput(w io.Writer) {
	logger = newLogger(w, true)
}

// SetDebug switches between debug and info level.
func SetDebug(enabled bool) {
	if enabled {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// DebugEnabled reports whether debug messages are emitted.
func DebugEnabled() bool {
	return zerolog.GlobalLevel() <= zerolog.DebugLevel
}

func Debugf(format string, args ...interface{}) {
	logger.Debug().Msgf(format, args...)
}

func Infof(format string, args ...interface{}) {
	logger.Info().Msgf(format, args...)
}

func Warnf(format string, args ...interface{}) {
	logger.Warn().Msgf(format, args...)
}

// Check returns a debug event tagged with the check name, for structured
// fields such as command lines and exit codes.
func Check(name string) *zerolog.Event {
	return logger.Debug().Str("check", name)
}
