// Package logger configures zerolog for the backup tool.
package logger

import (
	"io"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	zpkgerrors "github.com/rs/zerolog/pkgerrors"
)

// ConsoleTimeFormat is the timestamp layout of human-readable output.
const ConsoleTimeFormat = "2006-01-02 15:04:05"

type stackTracer interface{ StackTrace() pkgerrors.StackTrace }

// installStackMarshalers makes .Stack() on error events print a stack,
// attaching one to plain errors where needed.
func installStackMarshalers() {
	zerolog.ErrorStackMarshaler = func(err error) interface{} {
		if _, ok := err.(stackTracer); !ok {
			err = pkgerrors.WithStack(err)
		}
		return zpkgerrors.MarshalStack(err)
	}
	zerolog.ErrorMarshalFunc = func(err error) interface{} {
		if _, ok := err.(stackTracer); ok {
			return err
		}
		return pkgerrors.WithStack(err)
	}
}

// New returns a JSON logger writing to w, tagged with serviceName.
func New(w io.Writer, serviceName string) zerolog.Logger {
	installStackMarshalers()
	return zerolog.New(w).With().
		Str("service", serviceName).
		Timestamp().
		Logger()
}

// NewConsole returns a plain-text logger for interactive use.
func NewConsole(w io.Writer) zerolog.Logger {
	installStackMarshalers()
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: ConsoleTimeFormat,
		NoColor:    true,
	}).With().Timestamp().Logger()
}

// Level maps the CLI verbosity flags to a level. debug wins over quiet.
func Level(quiet, debug bool) zerolog.Level {
	switch {
	case debug:
		return zerolog.DebugLevel
	case quiet:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}
