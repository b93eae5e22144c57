package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/cets/internal/models"
)

// ListTesters returns the registered correlation testers
// GET /v1/testers
func (h *Handler) ListTesters(c *fiber.Ctx) error {
	return c.JSON(models.TestersResponse{
		Testers: h.correlationService.Testers(),
		Default: h.correlationService.DefaultTester(),
	})
}
