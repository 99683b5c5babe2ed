package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/product-copy-generator/internal/failure"
	"github.com/phambaophuc/product-copy-generator/internal/models"
	"go.uber.org/zap"
)

// GenerateBatch runs one generation per uploaded image. Partial results are a
// success; a batch where every image failed answers 502.
func (h *Handler) GenerateBatch(c *gin.Context) {
	if !h.requireGenerator(c) {
		return
	}

	images, cfg, ok := h.parseGenerationRequest(c)
	if !ok {
		return
	}

	result, err := h.generator.RunBatch(c.Request.Context(), images, cfg)
	if result == nil {
		h.respondError(c, statusForError(err), err.Error())
		return
	}
	if err != nil {
		h.logger.Warn("Batch ended early", zap.Error(err))
	}

	statusCode := http.StatusOK
	if result.Outcome() == models.OutcomeFailed {
		statusCode = http.StatusBadGateway
	}

	c.JSON(statusCode, models.APIResponse{
		Success: result.Outcome() != models.OutcomeFailed,
		Data:    result,
		Message: result.Summary(),
	})
}

// GenerateSingle sends every uploaded image in one request for a single
// product, with one automatic retry on a malformed or truncated response.
func (h *Handler) GenerateSingle(c *gin.Context) {
	if !h.requireGenerator(c) {
		return
	}

	images, cfg, ok := h.parseGenerationRequest(c)
	if !ok {
		return
	}

	result, err := h.generator.RunSingle(c.Request.Context(), images, cfg)
	if err != nil {
		h.logger.Error("Single generation failed",
			zap.String("kind", string(failure.KindOf(err))),
			zap.Error(err))
		h.respondError(c, statusForError(err), err.Error())
		return
	}

	message := "content generated"
	if result.Retried {
		message = "content generated after retrying with reduced settings and the first image only"
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    result,
		Message: message,
	})
}

func (h *Handler) parseGenerationRequest(c *gin.Context) ([]models.UploadedImage, models.GenerationConfig, bool) {
	files, err := h.parseMultipartFiles(c)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, err.Error())
		return nil, models.GenerationConfig{}, false
	}

	cfg, err := h.parseGenerationConfig(c)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, err.Error())
		return nil, cfg, false
	}

	images, err := h.loadImages(files)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, "Invalid image: "+err.Error())
		return nil, cfg, false
	}

	return images, cfg, true
}
