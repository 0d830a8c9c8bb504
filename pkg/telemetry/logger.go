// Package telemetry provides this module's structured logger: every
// component needs somewhere to write operational messages.
package telemetry

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Level is a logging severity.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Format selects the log line encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Config configures a Logger.
type Config struct {
	Level  Level
	Format Format
	Output io.Writer
}

// Logger wraps zerolog with a field-pair calling convention (key, value,
// key, value, ...). Within this module, pkg/controller and the impairctl
// CLI log through it.
type Logger struct {
	zl zerolog.Logger
}

// New builds a Logger. An empty Output defaults to os.Stdout; an empty
// Level defaults to info.
func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	var output io.Writer = cfg.Output
	if cfg.Format == FormatText {
		output = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: time.RFC3339}
	}

	zl := zerolog.New(output).With().Timestamp().Logger()
	zl = zl.Level(levelToZerolog(cfg.Level))

	return &Logger{zl: zl}
}

func levelToZerolog(l Level) zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *Logger) event(e *zerolog.Event, msg string, fields ...any) {
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, fields[i+1])
	}
	e.Msg(msg)
}

func (l *Logger) Debug(msg string, fields ...any) { l.event(l.zl.Debug(), msg, fields...) }
func (l *Logger) Info(msg string, fields ...any) { l.event(l.zl.Info(), msg, fields...) }
func (l *Logger) Warn(msg string, fields ...any) { l.event(l.zl.Warn(), msg, fields...) }
func (l *Logger) Error(msg string, fields ...any) { l.event(l.zl.Error(), msg, fields...) }

// With returns a child Logger carrying an additional field on every
// subsequent entry, e.g. resource := logger.With("resource", ref.String()).
func (l *Logger) With(key string, value any) *Logger {
	return &Logger{zl: l.zl.With().Interface(key, value).Logger()}
}
