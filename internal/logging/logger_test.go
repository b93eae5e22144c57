package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/cets/internal/config"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, zerolog.InfoLevel).With("component", "engine")

	logger.Warn("sample skipped", "sample", 2, "error", errors.New("constant series"))

	entry := decode(t, &buf)
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "sample skipped", entry["message"])
	assert.Equal(t, "engine", entry["component"])
	assert.Equal(t, float64(2), entry["sample"])
	assert.Equal(t, "constant series", entry["error"])
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, zerolog.InfoLevel)

	logger.Debug("hidden")
	assert.Zero(t, buf.Len())
	assert.Equal(t, zerolog.InfoLevel, logger.Level())
}

func TestLogger_WithContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, zerolog.InfoLevel)

	ctx := WithJobID(WithRequestID(context.Background(), "req-1"), "job-9")
	ctx = WithLogger(ctx, logger)
	InfoCtx(ctx, "job started")

	entry := decode(t, &buf)
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "job-9", entry["job_id"])
	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Same(t, logger, FromContext(ctx))
}

func TestNewFromConfig(t *testing.T) {
	logger, err := NewFromConfig(config.LoggingConfig{Level: "warn", Format: "json", OutputPath: "stderr"})
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, logger.Level())

	logger, err = NewFromConfig(config.LoggingConfig{Level: "bogus"})
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, logger.Level())
}

func TestFiberMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, zerolog.InfoLevel)

	app := fiber.New()
	app.Use(FiberMiddleware(logger))
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/v1/testers", func(c *fiber.Ctx) error {
		return c.SendString(RequestID(c.UserContext()))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
	assert.Zero(t, buf.Len(), "health checks are not logged")

	req := httptest.NewRequest("GET", "/v1/testers", nil)
	req.Header.Set(RequestIDHeader, "abc")
	resp, err = app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "abc", string(body))

	entry := decode(t, &buf)
	assert.Equal(t, "/v1/testers", entry["path"])
	assert.Equal(t, "abc", entry["request_id"])
}
