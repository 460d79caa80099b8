package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"bert-gateway/models"
	"bert-gateway/services"
)

type JobHandler struct {
	queue *services.JobQueue
}

func NewJobHandler(queue *services.JobQueue) *JobHandler {
	return &JobHandler{queue: queue}
}

// CreateJob godoc
// @Summary Queue an analysis job
// @Description Run a function from a script session over a data session asynchronously
// @Tags jobs
// @Accept json
// @Produce json
// @Param request body models.CreateJobRequest true "Job to run"
// @Success 200 {object} models.CreateJobResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /jobs [post]
func (h *JobHandler) CreateJob(c *fiber.Ctx) error {
	var req models.CreateJobRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	job, err := h.queue.Enqueue(c.UserContext(), &req)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return jobErrorResponse(c, err, "Sesiones inválidas o expiradas")
		}
		return jobErrorResponse(c, err, "")
	}

	return c.JSON(models.CreateJobResponse{
		Success: true,
		JobID:   job.ID,
		Status:  job.Status,
		Message: "Análisis encolado para procesamiento",
	})
}

// GetJob godoc
// @Summary Get job status
// @Description Poll the status, progress and result of a job
// @Tags jobs
// @Produce json
// @Param jobId path string true "Job ID"
// @Success 200 {object} models.JobStatusResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /jobs/{jobId} [get]
func (h *JobHandler) GetJob(c *fiber.Ctx) error {
	job, err := h.queue.Status(c.Params("jobId"))
	if err != nil {
		return jobErrorResponse(c, err, "")
	}

	return c.JSON(models.JobStatusResponse{
		Success:     true,
		JobID:       job.ID,
		Status:      job.Status,
		Progress:    job.Progress,
		Result:      job.Result,
		Error:       job.Error,
		CreatedAt:   job.CreatedAt,
		CompletedAt: job.CompletedAt,
	})
}
