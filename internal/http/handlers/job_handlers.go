package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/phambaophuc/product-copy-generator/internal/models"
	"github.com/phambaophuc/product-copy-generator/internal/services/storage"
	"go.uber.org/zap"
)

// CreateJob archives the uploads and queues a batch generation.
func (h *Handler) CreateJob(c *gin.Context) {
	if !h.requireGenerator(c) {
		return
	}
	if h.queue == nil || h.archive == nil || !h.archive.ArchiveEnabled() {
		h.respondError(c, http.StatusServiceUnavailable, "async jobs are not available")
		return
	}

	images, cfg, ok := h.parseGenerationRequest(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	jobID := uuid.NewString()

	stored, err := h.archive.UploadImages(ctx, "jobs/"+jobID, images)
	if err != nil {
		h.logger.Error("Failed to archive job images", zap.String("job_id", jobID), zap.Error(err))
		h.respondError(c, http.StatusBadGateway, "failed to store images")
		return
	}

	now := h.now()
	job := &models.GenerationJob{
		ID:        jobID,
		Images:    stored,
		Config:    cfg.Clamp(),
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.queue.PublishJob(ctx, job); err != nil {
		h.logger.Error("Failed to publish job", zap.String("job_id", jobID), zap.Error(err))
		h.respondError(c, http.StatusServiceUnavailable, "failed to queue job")
		return
	}

	c.JSON(http.StatusAccepted, models.APIResponse{
		Success: true,
		Data:    job,
		Message: "job queued",
	})
}

func (h *Handler) GetJob(c *gin.Context) {
	if h.jobs == nil {
		h.respondError(c, http.StatusServiceUnavailable, "async jobs are not available")
		return
	}

	job, err := h.jobs.GetJob(c.Request.Context(), c.Param("id"))
	if errors.Is(err, storage.ErrJobNotFound) {
		h.respondError(c, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		h.logger.Error("Failed to load job", zap.String("job_id", c.Param("id")), zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, "failed to load job")
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    job,
	})
}
