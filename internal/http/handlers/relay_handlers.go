package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/product-copy-generator/internal/models"
	"github.com/phambaophuc/product-copy-generator/internal/services/processor"
	"go.uber.org/zap"
)

// RelayGenerate is the server-side counterpart of the relay transport: one
// uncached generation answered in the relay envelope. Extraction failures
// still carry the upstream response so the caller can classify them.
func (h *Handler) RelayGenerate(c *gin.Context) {
	timestamp := h.now().UTC().Format(time.RFC3339)

	if !h.requireGenerator(c) {
		return
	}

	var req models.RelayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.relayFailure(c, http.StatusBadRequest, "invalid request body: "+err.Error(), nil, timestamp)
		return
	}
	if len(req.Images) > h.config.Storage.MaxFiles {
		h.relayFailure(c, http.StatusBadRequest, fmt.Sprintf("too many images: %d (maximum %d)", len(req.Images), h.config.Storage.MaxFiles), nil, timestamp)
		return
	}

	images, err := h.decodeRelayImages(req.Images)
	if err != nil {
		h.relayFailure(c, http.StatusBadRequest, err.Error(), nil, timestamp)
		return
	}

	resp, product, err := h.generator.RunRelay(c.Request.Context(), images, h.withDefaults(req.Config))
	if err != nil {
		h.logger.Error("Relay generation failed", zap.Error(err))
		h.relayFailure(c, http.StatusInternalServerError, err.Error(), resp, timestamp)
		return
	}

	c.JSON(http.StatusOK, models.RelayEnvelope{
		Data: &models.RelayData{
			Success:   true,
			Content:   product,
			Response:  resp,
			Timestamp: timestamp,
			ProcessingInfo: models.ProcessingInfo{
				ImagesCount: len(images),
				ModelUsed:   h.generator.Model(),
			},
		},
	})
}

func (h *Handler) decodeRelayImages(in []models.RelayImage) ([]models.UploadedImage, error) {
	images := make([]models.UploadedImage, 0, len(in))
	for i, ri := range in {
		name := fmt.Sprintf("image_%d", i+1)

		uriType, payload := processor.SplitDataURI(ri.Payload())
		declared := ri.MIMEType
		if declared == "" {
			declared = uriType
		}

		raw, err := processor.Decode(models.EncodedImage{MIMEType: declared, Data: payload})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		mimeType, err := h.processor.Validate(raw, declared)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		images = append(images, processor.NewUploadedImage(name, mimeType, raw))
	}
	return images, nil
}

func (h *Handler) relayFailure(c *gin.Context, statusCode int, message string, resp *models.RawResponse, timestamp string) {
	c.JSON(statusCode, models.RelayEnvelope{
		Error: &models.RelayError{
			Code:      models.RelayCodeImageProcessing,
			Message:   message,
			Timestamp: timestamp,
			Response:  resp,
		},
	})
}
