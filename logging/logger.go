// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init sets the global level and output. JSON output writes raw zerolog lines,
// otherwise a console writer on stderr is used.
func Init(debug, json bool) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if json {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.DateTime,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// Component returns a child of the global logger tagged with component.
func Component(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// SetOutput sends log lines to w instead of stderr, e.g. a log file while a
// progress bar owns the terminal. Console lines are written without colour.
func SetOutput(w io.Writer, json bool) {
	if json {
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
		return
	}
	output := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}
