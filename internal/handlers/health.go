package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/cets/internal/models"
)

// Health reports liveness along with the testers this process can run
// and, on the router, whether asynchronous jobs are accepted.
func (h *Handler) Health(c *fiber.Ctx) error {
	resp := models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   Version,
	}
	if h.correlationService != nil {
		resp.Testers = h.correlationService.Testers()
		resp.Jobs = &models.JobsHealth{Queue: "disabled"}
		if h.jobService != nil {
			resp.Jobs = &models.JobsHealth{Queue: "enabled", Tracked: h.jobService.Tracked()}
		}
	}
	return c.JSON(resp)
}

// NotFound handles 404 errors
func (h *Handler) NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "NOT_FOUND",
			Message: "Route not found",
			Path:    c.Path(),
		},
	})
}
