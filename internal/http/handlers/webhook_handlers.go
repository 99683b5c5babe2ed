package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/product-copy-generator/internal/models"
	"github.com/phambaophuc/product-copy-generator/internal/services/webhook"
	"go.uber.org/zap"
)

// SendBatchWebhook forwards a batch result and its original images to a
// webhook as one multipart request.
func (h *Handler) SendBatchWebhook(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		h.respondError(c, http.StatusBadRequest, fmt.Sprintf("failed to parse form data: %v", err))
		return
	}

	url := c.PostForm(webhookURLParamKey)
	if url == "" {
		url = h.config.Webhook.DefaultURL
	}
	if err := webhook.ValidateURL(url); err != nil {
		h.respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var result models.BatchResult
	if err := json.Unmarshal([]byte(c.PostForm(contentParamKey)), &result); err != nil {
		h.respondError(c, http.StatusBadRequest, "content must be a batch result JSON document")
		return
	}

	cfg, err := h.parseGenerationConfig(c)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	files := form.File[imagesParamKey]
	if len(files) > h.config.Storage.MaxFiles {
		h.respondError(c, http.StatusBadRequest, fmt.Sprintf("too many images: %d (maximum %d)", len(files), h.config.Storage.MaxFiles))
		return
	}
	images, err := h.originalImages(files)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, "Invalid image: "+err.Error())
		return
	}

	delivery, err := h.webhooks.SendBatch(c.Request.Context(), url, &result, images, cfg.Clamp(), h.config.Gemini.Mode)
	if err != nil {
		h.logger.Error("Batch webhook failed", zap.Error(err))
		h.respondError(c, webhookStatus(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    delivery,
		Message: "webhook delivered",
	})
}

// SendProductWebhook relays one product as JSON, answering in the relay
// envelope.
func (h *Handler) SendProductWebhook(c *gin.Context) {
	timestamp := h.now().UTC().Format(time.RFC3339)

	var req models.WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.webhookFailure(c, http.StatusBadRequest, "invalid request body: "+err.Error(), timestamp)
		return
	}
	if req.WebhookURL == "" || req.Content == nil {
		h.webhookFailure(c, http.StatusBadRequest, "webhookUrl and content are required", timestamp)
		return
	}
	if err := webhook.ValidateURL(req.WebhookURL); err != nil {
		h.webhookFailure(c, http.StatusBadRequest, err.Error(), timestamp)
		return
	}

	delivery, err := h.webhooks.SendProduct(c.Request.Context(), req.WebhookURL, req.Content, req.Images)
	if err != nil {
		h.logger.Error("Product webhook failed", zap.Error(err))
		h.webhookFailure(c, http.StatusInternalServerError, err.Error(), timestamp)
		return
	}

	fields := make([]string, 0, len(req.Content))
	for k := range req.Content {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	c.JSON(http.StatusOK, models.WebhookEnvelope{
		Data: &models.WebhookData{
			Success:    true,
			WebhookURL: req.WebhookURL,
			SentAt:     timestamp,
			Response: models.WebhookResponse{
				Status: delivery.StatusCode,
				Data:   delivery.Data,
			},
			PayloadSent: models.PayloadSummary{
				ContentFields: fields,
				ImagesCount:   len(req.Images),
			},
		},
	})
}

func (h *Handler) webhookFailure(c *gin.Context, statusCode int, message, timestamp string) {
	c.JSON(statusCode, models.WebhookEnvelope{
		Error: &models.RelayError{
			Code:      models.RelayCodeWebhookSend,
			Message:   message,
			Timestamp: timestamp,
		},
	})
}

func webhookStatus(err error) int {
	var de *webhook.DeliveryError
	if errors.As(err, &de) {
		return http.StatusBadGateway
	}
	return http.StatusServiceUnavailable
}
