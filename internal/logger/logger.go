package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ContextKey is the type for context keys used by the logger
type ContextKey string

const (
	// LoggerKey is the context key for the logger instance
	LoggerKey ContextKey = "logger"
)

// Options controls the level and output format of a logger.
type Options struct {
	// Level is a zerolog level name (debug, info, warn, error). Empty means info.
	Level string
	// Format is "console" or "json". Empty means console.
	Format string
}

// New creates a new structured logger with default configuration
func New() zerolog.Logger {
	return NewWithOptions(os.Stdout, Options{})
}

// NewWithOptions creates a logger writing to w with the given level and format.
// Unknown levels fall back to info.
func NewWithOptions(w io.Writer, opts Options) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if strings.EqualFold(opts.Format, "json") {
		return zerolog.New(w).Level(level).With().Timestamp().Caller().Logger()
	}
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).Level(level).With().Timestamp().Caller().Logger()
}

// NewWithWriter creates a new structured JSON logger with a custom writer
func NewWithWriter(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Caller().Logger()
}

// WithContext adds the logger to the context
func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from the context or returns a default logger
func FromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(LoggerKey).(zerolog.Logger); ok {
		return logger
	}
	return New()
}

// WithFields adds structured fields to a logger
func WithFields(logger zerolog.Logger, fields map[string]interface{}) zerolog.Logger {
	ctx := logger.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return ctx.Logger()
}
