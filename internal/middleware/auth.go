package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/cets/internal/logging"
	"github.com/soltixdb/cets/internal/models"
)

// MinAPIKeyLength is the minimum required length for API keys
const MinAPIKeyLength = 32

// APIKeyHeader is the preferred header carrying the key
const APIKeyHeader = "X-API-Key"

// ValidateAPIKey checks if an API key meets the security requirements
func ValidateAPIKey(key string) bool {
	return len(key) >= MinAPIKeyLength && strings.TrimSpace(key) != ""
}

// APIKeyAuth creates an API key authentication middleware. Keys are read
// from X-API-Key, "Authorization: Bearer <key>" or a bare Authorization
// header. Keys shorter than MinAPIKeyLength are ignored.
func APIKeyAuth(logger *logging.Logger, apiKeys []string, enabled bool) fiber.Handler {
	if !enabled {
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	var keys [][]byte
	for _, key := range apiKeys {
		if key == "" {
			continue
		}
		if !ValidateAPIKey(key) {
			logger.Warn("API key does not meet security requirements",
				"key_length", len(key),
				"min_required", MinAPIKeyLength,
				"key_prefix", maskAPIKey(key))
			continue
		}
		keys = append(keys, []byte(key))
	}
	if len(keys) == 0 {
		logger.Error("No valid API keys configured, every request will be rejected",
			"total_keys", len(apiKeys),
			"min_required_length", MinAPIKeyLength)
	}

	return func(c *fiber.Ctx) error {
		apiKey := extractAPIKey(c)
		if apiKey == "" {
			logger.Warn("API key missing", requestFields(c)...)
			return unauthorized(c, "API key is required. Provide it via X-API-Key header or Authorization header.")
		}

		if !matchKey(keys, apiKey) {
			logger.Warn("Invalid API key", append(requestFields(c), "api_key_prefix", maskAPIKey(apiKey))...)
			return unauthorized(c, "Invalid API key.")
		}

		logger.Debug("API key authenticated", requestFields(c)...)
		return c.Next()
	}
}

func extractAPIKey(c *fiber.Ctx) string {
	if key := c.Get(APIKeyHeader); key != "" {
		return key
	}
	auth := c.Get(fiber.HeaderAuthorization)
	if after, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return after
	}
	return auth
}

// matchKey compares in constant time against every configured key
func matchKey(keys [][]byte, candidate string) bool {
	c := []byte(candidate)
	found := 0
	for _, k := range keys {
		found |= subtle.ConstantTimeCompare(k, c)
	}
	return found == 1
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "UNAUTHORIZED",
			Message: message,
		},
	})
}

func requestFields(c *fiber.Ctx) []interface{} {
	fields := []interface{}{"path", c.Path(), "method", c.Method(), "ip", c.IP()}
	if id := logging.RequestID(c.UserContext()); id != "" {
		fields = append(fields, "request_id", id)
	}
	return fields
}

// maskAPIKey masks API key for logging (show only first 4 chars)
func maskAPIKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return key[:4] + "****"
}
