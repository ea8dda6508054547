package core

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger provides structured logging for the CLI and, optionally, the
// detection engine.
type Logger struct {
	zl zerolog.Logger
}

// NewLogger creates a console logger. With debug set, probe-level
// diagnostics are emitted too.
func NewLogger(debug bool) *Logger {
	return newLogger(debug, zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	})
}

// NewLoggerTo creates a logger writing to an arbitrary sink. Used by
// tests and by callers embedding the library.
func NewLoggerTo(debug bool, w io.Writer) *Logger {
	return newLogger(debug, w)
}

func newLogger(debug bool, w io.Writer) *Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return &Logger{
		zl: zerolog.New(w).Level(level).With().Timestamp().Logger(),
	}
}

// Debug logs debug messages.
func (l *Logger) Debug(format string, v ...interface{}) {
	l.zl.Debug().Msgf(format, v...)
}

// Info logs info messages.
func (l *Logger) Info(format string, v ...interface{}) {
	l.zl.Info().Msgf(format, v...)
}

// Warn logs warning messages.
func (l *Logger) Warn(format string, v ...interface{}) {
	l.zl.Warn().Msgf(format, v...)
}

// Error logs error messages.
func (l *Logger) Error(format string, v ...interface{}) {
	l.zl.Error().Msgf(format, v...)
}
