package logging

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request ID in and out of the API
const RequestIDHeader = "X-Request-ID"

// MiddlewareConfig defines configuration for logging middleware
type MiddlewareConfig struct {
	// SkipPaths are served without a log line
	SkipPaths []string

	// AdditionalFields adds custom fields to log entries
	AdditionalFields func(c *fiber.Ctx) []interface{}
}

// DefaultMiddlewareConfig skips the probe and scrape endpoints
func DefaultMiddlewareConfig() MiddlewareConfig {
	return MiddlewareConfig{
		SkipPaths: []string{"/health", "/metrics"},
	}
}

// FiberMiddleware returns a Fiber middleware for request logging
func FiberMiddleware(logger *Logger) fiber.Handler {
	return FiberMiddlewareWithConfig(logger, DefaultMiddlewareConfig())
}

// FiberMiddlewareWithConfig returns a Fiber middleware with custom config
func FiberMiddlewareWithConfig(logger *Logger, cfg MiddlewareConfig) fiber.Handler {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		requestID := c.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(RequestIDHeader, requestID)

		ctx := WithRequestID(c.UserContext(), requestID)
		ctx = WithLogger(ctx, logger)
		c.SetUserContext(ctx)

		if _, ok := skip[c.Path()]; ok {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()
		duration := time.Since(start)
		statusCode := c.Response().StatusCode()

		k1, v1 := String("method", c.Method())
		k2, v2 := String("path", c.Path())
		k3, v3 := String("ip", c.IP())
		k4, v4 := Int("status", statusCode)
		k5, v5 := Int64("duration_ms", duration.Milliseconds())
		k6, v6 := String("request_id", requestID)

		fields := []interface{}{k1, v1, k2, v2, k3, v3, k4, v4, k5, v5, k6, v6}
		if cfg.AdditionalFields != nil {
			fields = append(fields, cfg.AdditionalFields(c)...)
		}

		if err != nil {
			kErr, vErr := Err(err)
			fields = append(fields, kErr, vErr)
			logger.Error("Request failed", fields...)
			return err
		}

		switch {
		case statusCode >= 500:
			logger.Error("Server error", fields...)
		case statusCode >= 400:
			logger.Warn("Client error", fields...)
		default:
			logger.Info("Request completed", fields...)
		}

		return nil
	}
}
