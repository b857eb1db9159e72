// Package logging wraps zerolog with the fields gitdl attaches to log lines.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a wrapper around zerolog.Logger.
type Logger struct {
	zerolog.Logger
}

// Options contains options for creating a logger.
type Options struct {
	Level  string
	Format string // "pretty" or "json"
	Output io.Writer
}

// New creates a logger with the given options.
func New(opts Options) *Logger {
	var output io.Writer = os.Stderr
	if opts.Output != nil {
		output = opts.Output
	}

	if opts.Format == "pretty" {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	logger := zerolog.New(output).
		Level(ParseLevel(opts.Level)).
		With().
		Timestamp().
		Logger()

	return &Logger{Logger: logger}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithComponent returns a logger with a component field.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger: l.Logger.With().Str("component", component).Logger(),
	}
}

// WithProject returns a logger carrying the project name and work ID of one
// pipeline run.
func (l *Logger) WithProject(project, workID string) *Logger {
	return &Logger{
		Logger: l.Logger.With().Str("project", project).Str("work_id", workID).Logger(),
	}
}

// WithRequestID returns a logger with a request_id field.
func (l *Logger) WithRequestID(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With().Str("request_id", id).Logger(),
	}
}
