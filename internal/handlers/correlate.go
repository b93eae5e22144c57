package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/cets/internal/logging"
	"github.com/soltixdb/cets/internal/models"
)

// Correlate runs an analysis synchronously
// POST /v1/correlate
func (h *Handler) Correlate(c *fiber.Ctx) error {
	req, err := parseCorrelateRequest(c)
	if req == nil {
		return err
	}

	ctx := c.UserContext()
	report, err := h.correlationService.Execute(ctx, req)
	if err != nil {
		logging.WarnCtx(ctx, "Correlation request failed", "tester", req.Tester, "error", err)
		return writeServiceError(c, err, "ANALYSIS_FAILED")
	}

	return c.JSON(models.CorrelateResponse{
		RequestID: logging.RequestID(ctx),
		Report:    report,
	})
}
