package logging

import (
	"context"
)

type contextKey string

const (
	loggerKey    contextKey = "logger"
	requestIDKey contextKey = "request_id"
	jobIDKey     contextKey = "job_id"
)

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the logger from context, falls back to global
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(loggerKey).(*Logger); ok {
		return logger
	}
	return global
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestID returns the request ID stored in ctx, if any
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithJobID tags the context with the analysis job being processed
func WithJobID(ctx context.Context, jobID string) context.Context {
	return context.WithValue(ctx, jobIDKey, jobID)
}

func extractContextFields(ctx context.Context) []interface{} {
	var fields []interface{}

	if requestID, ok := ctx.Value(requestIDKey).(string); ok && requestID != "" {
		k, v := String("request_id", requestID)
		fields = append(fields, k, v)
	}

	if jobID, ok := ctx.Value(jobIDKey).(string); ok && jobID != "" {
		k, v := String("job_id", jobID)
		fields = append(fields, k, v)
	}

	return fields
}

// InfoCtx logs an info message with context
func InfoCtx(ctx context.Context, msg string, fields ...interface{}) {
	FromContext(ctx).WithContext(ctx).Info(msg, fields...)
}

// WarnCtx logs a warning message with context
func WarnCtx(ctx context.Context, msg string, fields ...interface{}) {
	FromContext(ctx).WithContext(ctx).Warn(msg, fields...)
}

// ErrorCtx logs an error message with context
func ErrorCtx(ctx context.Context, msg string, fields ...interface{}) {
	FromContext(ctx).WithContext(ctx).Error(msg, fields...)
}
