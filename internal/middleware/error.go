package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/cets/internal/logging"
	"github.com/soltixdb/cets/internal/models"
)

// errorCodes maps framework statuses to API error codes
var errorCodes = map[int]string{
	fiber.StatusBadRequest:            "INVALID_REQUEST",
	fiber.StatusNotFound:              "NOT_FOUND",
	fiber.StatusMethodNotAllowed:      "METHOD_NOT_ALLOWED",
	fiber.StatusRequestTimeout:        "REQUEST_TIMEOUT",
	fiber.StatusRequestEntityTooLarge: "PAYLOAD_TOO_LARGE",
	fiber.StatusUnprocessableEntity:   "UNPROCESSABLE",
	fiber.StatusServiceUnavailable:    "SERVICE_UNAVAILABLE",
}

// ErrorHandler returns the fiber error handler rendering models.ErrorResponse
func ErrorHandler(logger *logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		message := "Internal Server Error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
			message = fe.Message
		}

		code, ok := errorCodes[status]
		if !ok {
			code = "ERROR"
		}

		fields := append(requestFields(c), "status", status, "error", err)
		if status >= fiber.StatusInternalServerError {
			logger.Error("Request error", fields...)
		} else {
			logger.Warn("Request rejected", fields...)
		}

		return c.Status(status).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    code,
				Message: message,
				Path:    c.Path(),
			},
		})
	}
}
