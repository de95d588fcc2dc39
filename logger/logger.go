package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger represents a structured logger
type Logger struct {
	logger zerolog.Logger
}

// Fields represents log fields
type Fields map[string]interface{}

var (
	// Default is the default logger instance
	Default *Logger
)

// Init initializes the default logger on stdout
func Init() {
	InitWithWriter(os.Stdout)
}

// InitWithWriter initializes the default logger on the given writer.
// Production runs emit JSON lines, everything else a console format.
func InitWithWriter(out io.Writer) {
	level := getLogLevel()

	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(level)

	if os.Getenv("XBDEAL_ENVIRONMENT") != "production" {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	Default = &Logger{logger: zerolog.New(out).With().Timestamp().Logger()}

	Default.Debug().
		Str("level", level.String()).
		Msg("Logger initialized")
}

// Nop returns a logger that discards every event
func Nop() *Logger {
	return &Logger{logger: zerolog.Nop()}
}

// getLogLevel returns the log level from environment variable
func getLogLevel() zerolog.Level {
	levelStr := os.Getenv("LOG_LEVEL")
	if levelStr == "" {
		if os.Getenv("XBDEAL_ENVIRONMENT") == "production" {
			return zerolog.InfoLevel
		}
		return zerolog.DebugLevel
	}

	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// WithFields creates a new logger with fields
func (l *Logger) WithFields(fields Fields) *Logger {
	newLogger := l.logger.With()
	for k, v := range fields {
		newLogger = newLogger.Interface(k, v)
	}
	return &Logger{logger: newLogger.Logger()}
}

// WithField creates a new logger with a single field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{logger: l.logger.With().Interface(key, value).Logger()}
}

// Debug returns a debug event
func (l *Logger) Debug() *zerolog.Event {
	return l.logger.Debug()
}

// Info returns an info event
func (l *Logger) Info() *zerolog.Event {
	return l.logger.Info()
}

// Warn returns a warn event
func (l *Logger) Warn() *zerolog.Event {
	return l.logger.Warn()
}

// Error returns an error event
func (l *Logger) Error() *zerolog.Event {
	return l.logger.Error()
}

// Fatal returns a fatal event
func (l *Logger) Fatal() *zerolog.Event {
	return l.logger.Fatal()
}

// Global functions for printf-style call sites

// Debug logs a debug message
func Debug(format string, v ...interface{}) {
	ensure().Debug().Msgf(format, v...)
}

// Info logs an info message
func Info(format string, v ...interface{}) {
	ensure().Info().Msgf(format, v...)
}

// Warn logs a warning message
func Warn(format string, v ...interface{}) {
	ensure().Warn().Msgf(format, v...)
}

// Error logs an error message
func Error(format string, v ...interface{}) {
	ensure().Error().Msgf(format, v...)
}

// ForCategory creates a logger for the crawl of a single listing category
func ForCategory(category string) *Logger {
	return ensure().WithField("category", category)
}

// ForResolver creates a logger for detail page resolution
func ForResolver() *Logger {
	return ensure().WithField("component", "resolver")
}

// ForWorker creates a logger for the worker
func ForWorker() *Logger {
	return ensure().WithField("component", "worker")
}

// ForSink creates a logger for an output sink
func ForSink(kind string) *Logger {
	return ensure().WithFields(Fields{"component": "sink", "sink": kind})
}

// ForCache creates a logger for the cache
func ForCache() *Logger {
	return ensure().WithField("component", "cache")
}

// LogError is a convenience method for logging errors with context
func LogError(component string, err error, format string, v ...interface{}) {
	ensure().Error().
		Str("component", component).
		Err(err).
		Msg(fmt.Sprintf(format, v...))
}

func ensure() *Logger {
	if Default == nil {
		Init()
	}
	return Default
}
