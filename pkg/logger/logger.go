// Package logger wraps zerolog with the field names used across batch runs.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hal2001/BatchGetSymbols/pkg/config"
)

// Field keys shared by every component
// ⭐ SSOT: log field names are declared here only
const (
	FieldModule = "module"
	FieldRunID  = "run_id"
	FieldTicker = "ticker"
	FieldSource = "source"
	FieldJob    = "job"
)

// Logger is a structured logger wrapper around zerolog
// ⭐ SSOT: all logging goes through this package
type Logger struct {
	zlog zerolog.Logger
}

// New creates a Logger from config
// ⭐ SSOT: zerolog instances are created only here
// Logs go to stderr so command output on stdout stays clean.
func New(cfg *config.Config) *Logger {
	var output io.Writer = os.Stderr
	if cfg.LogFormat == "console" || cfg.LogFormat == "pretty" {
		output = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}
	}

	zerolog.SetGlobalLevel(parseLogLevel(cfg.LogLevel))

	return &Logger{zlog: zerolog.New(output).
		With().
		Timestamp().
		Str("env", cfg.Env).
		Logger()}
}

// NewWithWriter creates a JSON logger writing to w at the given level
// The level applies to this logger only, unlike New.
func NewWithWriter(w io.Writer, levelStr string) *Logger {
	return &Logger{zlog: zerolog.New(w).
		Level(parseLogLevel(levelStr)).
		With().
		Timestamp().
		Logger()}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

func parseLogLevel(levelStr string) zerolog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	}
	return zerolog.InfoLevel
}

func (l *Logger) Debug(msg string) { l.zlog.Debug().Msg(msg) }
func (l *Logger) Info(msg string)  { l.zlog.Info().Msg(msg) }
func (l *Logger) Warn(msg string)  { l.zlog.Warn().Msg(msg) }
func (l *Logger) Error(msg string) { l.zlog.Error().Msg(msg) }

// Fatal logs and exits the process
func (l *Logger) Fatal(msg string) { l.zlog.Fatal().Msg(msg) }

// WithField returns a child logger with one more field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{zlog: l.zlog.With().Interface(key, value).Logger()}
}

// WithFields returns a child logger with several more fields
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	ctx := l.zlog.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{zlog: ctx.Logger()}
}

// WithError returns a child logger carrying err
func (l *Logger) WithError(err error) *Logger {
	return &Logger{zlog: l.zlog.With().Err(err).Logger()}
}

// WithModule tags every entry with the emitting component
func (l *Logger) WithModule(name string) *Logger {
	return &Logger{zlog: l.zlog.With().Str(FieldModule, name).Logger()}
}

// WithRun tags every entry with a batch run id
func (l *Logger) WithRun(runID string) *Logger {
	return &Logger{zlog: l.zlog.With().Str(FieldRunID, runID).Logger()}
}

// WithTicker tags every entry with a ticker and the source it is fetched from
func (l *Logger) WithTicker(ticker, source string) *Logger {
	return &Logger{zlog: l.zlog.With().
		Str(FieldTicker, ticker).
		Str(FieldSource, source).
		Logger()}
}

// WithJob tags every entry with a scheduler job name
func (l *Logger) WithJob(name string) *Logger {
	return &Logger{zlog: l.zlog.With().Str(FieldJob, name).Logger()}
}
