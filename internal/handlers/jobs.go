package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/cets/internal/logging"
	"github.com/soltixdb/cets/internal/models"
	"github.com/soltixdb/cets/internal/services"
)

// SubmitJob queues an analysis for the workers
// POST /v1/jobs
func (h *Handler) SubmitJob(c *fiber.Ctx) error {
	if h.jobService == nil {
		return writeServiceError(c, services.NewServiceError(services.CodeQueueUnavailable, "job queue is not configured"), "")
	}

	req, err := parseCorrelateRequest(c)
	if req == nil {
		return err
	}

	ctx := c.UserContext()
	job, err := h.jobService.Submit(ctx, req, logging.RequestID(ctx))
	if err != nil {
		return writeServiceError(c, err, "JOB_SUBMIT_FAILED")
	}

	c.Location("/v1/jobs/" + job.ID)
	return c.Status(fiber.StatusAccepted).JSON(models.JobAcceptedResponse{
		JobID:  job.ID,
		Status: models.JobQueued,
	})
}

// GetJob returns the state of a queued analysis
// GET /v1/jobs/:id
func (h *Handler) GetJob(c *fiber.Ctx) error {
	if h.jobService == nil {
		return writeServiceError(c, services.NewServiceError(services.CodeQueueUnavailable, "job queue is not configured"), "")
	}

	job, err := h.jobService.Get(c.Params("id"))
	if err != nil {
		return writeServiceError(c, err, "JOB_LOOKUP_FAILED")
	}
	return c.JSON(job)
}
