// Package logging wraps zerolog with key/value helpers used across CETS.
package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger with convenience methods
type Logger struct {
	zl     zerolog.Logger
	fields map[string]interface{}
}

var global = NewDevelopment()

// NewProduction creates a production logger with JSON output
func NewProduction() *Logger {
	return NewWithWriter(os.Stdout, zerolog.InfoLevel)
}

// NewDevelopment creates a development logger with pretty console output
func NewDevelopment() *Logger {
	return NewWithWriter(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}, zerolog.DebugLevel)
}

// NewNop creates a logger that discards everything
func NewNop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// NewWithWriter creates a logger with custom writer
func NewWithWriter(w io.Writer, level zerolog.Level) *Logger {
	zl := zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()

	return &Logger{zl: zl}
}

// SetGlobal sets the global logger instance
func SetGlobal(logger *Logger) {
	global = logger
}

// Global returns the global logger instance
func Global() *Logger {
	return global
}

// Level reports the minimum level the logger emits
func (l *Logger) Level() zerolog.Level {
	return l.zl.GetLevel()
}

// write attaches stored fields then key/value pairs; error values are
// rendered with Error() so they survive JSON encoding.
func (l *Logger) write(e *zerolog.Event, msg string, fields []interface{}) {
	if e == nil {
		return
	}
	for k, v := range l.fields {
		e.Interface(k, v)
	}
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		if err, ok := fields[i+1].(error); ok {
			e.Str(key, err.Error())
			continue
		}
		e.Interface(key, fields[i+1])
	}
	e.Msg(msg)
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields ...interface{}) {
	l.write(l.zl.Debug(), msg, fields)
}

// Info logs an info message
func (l *Logger) Info(msg string, fields ...interface{}) {
	l.write(l.zl.Info(), msg, fields)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields ...interface{}) {
	l.write(l.zl.Warn(), msg, fields)
}

// Error logs an error message
func (l *Logger) Error(msg string, fields ...interface{}) {
	l.write(l.zl.Error(), msg, fields)
}

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(msg string, fields ...interface{}) {
	l.write(l.zl.Fatal(), msg, fields)
}

// With creates a child logger with additional fields
func (l *Logger) With(fields ...interface{}) *Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields)/2)
	for k, v := range l.fields {
		merged[k] = v
	}
	for i := 0; i+1 < len(fields); i += 2 {
		if key, ok := fields[i].(string); ok {
			merged[key] = fields[i+1]
		}
	}

	return &Logger{zl: l.zl, fields: merged}
}

// WithContext returns a logger carrying the request and job IDs found in ctx
func (l *Logger) WithContext(ctx context.Context) *Logger {
	fields := extractContextFields(ctx)
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}

// Sync flushes any buffered log entries (no-op for zerolog)
func (l *Logger) Sync() error {
	return nil
}

// Debug logs a debug message using global logger
func Debug(msg string, fields ...interface{}) {
	global.Debug(msg, fields...)
}

// Info logs an info message using global logger
func Info(msg string, fields ...interface{}) {
	global.Info(msg, fields...)
}

// Warn logs a warning message using global logger
func Warn(msg string, fields ...interface{}) {
	global.Warn(msg, fields...)
}

// Error logs an error message using global logger
func Error(msg string, fields ...interface{}) {
	global.Error(msg, fields...)
}

// Fatal logs a fatal message and exits using global logger
func Fatal(msg string, fields ...interface{}) {
	global.Fatal(msg, fields...)
}

// With creates a child logger with additional fields using global logger
func With(fields ...interface{}) *Logger {
	return global.With(fields...)
}

// Common field constructors - return key-value pairs

// String creates a string field (returns key, value)
func String(key, val string) (string, interface{}) {
	return key, val
}

// Int creates an int field
func Int(key string, val int) (string, interface{}) {
	return key, val
}

// Int64 creates an int64 field
func Int64(key string, val int64) (string, interface{}) {
	return key, val
}

// Float64 creates a float64 field
func Float64(key string, val float64) (string, interface{}) {
	return key, val
}

// Err creates an error field
func Err(err error) (string, interface{}) {
	return "error", err
}

// Duration creates a duration field
func Duration(key string, val time.Duration) (string, interface{}) {
	return key, val
}
