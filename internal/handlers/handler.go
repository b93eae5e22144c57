package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/cets/internal/logging"
	"github.com/soltixdb/cets/internal/models"
	"github.com/soltixdb/cets/internal/services"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Handler contains all HTTP handlers
type Handler struct {
	logger             *logging.Logger
	correlationService *services.CorrelationService
	jobService         *services.JobService
}

// New creates a new handler instance. jobService may be nil, in which case
// the job endpoints answer 503.
func New(logger *logging.Logger, correlationService *services.CorrelationService, jobService *services.JobService) *Handler {
	return &Handler{
		logger:             logger,
		correlationService: correlationService,
		jobService:         jobService,
	}
}

// statusFor maps service error codes to HTTP statuses
func statusFor(code string) int {
	switch code {
	case services.CodeInvalidRequest, services.CodeInvalidTester, services.CodeInvalidParams:
		return fiber.StatusBadRequest
	case services.CodeDegenerateInput:
		return fiber.StatusUnprocessableEntity
	case services.CodeJobNotFound:
		return fiber.StatusNotFound
	case services.CodeQueueUnavailable:
		return fiber.StatusServiceUnavailable
	case services.CodeAnalysisTimeout:
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusInternalServerError
	}
}

// writeServiceError renders err as models.ErrorResponse
func writeServiceError(c *fiber.Ctx, err error, fallbackCode string) error {
	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) {
		return c.Status(statusFor(svcErr.Code)).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    svcErr.Code,
				Message: svcErr.Message,
				Details: svcErr.Details,
			},
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    fallbackCode,
			Message: err.Error(),
		},
	})
}

// parseCorrelateRequest decodes the request body
func parseCorrelateRequest(c *fiber.Ctx) (*models.CorrelateRequest, error) {
	var req models.CorrelateRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_JSON",
				Message: "Failed to parse JSON body",
				Details: map[string]interface{}{"error": err.Error()},
			},
		})
	}
	return &req, nil
}
