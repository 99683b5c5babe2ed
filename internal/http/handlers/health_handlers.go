package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/product-copy-generator/internal/models"
	"go.uber.org/zap"
)

// HealthCheck
func (h *Handler) HealthCheck(c *gin.Context) {
	services := make(map[string]string)
	for _, reporter := range h.health {
		for name, status := range reporter.HealthCheck(c.Request.Context()) {
			services[name] = status
		}
	}

	if h.config.GeneratorReady() {
		services["generator"] = "healthy"
	} else {
		services["generator"] = "not configured"
	}

	overall := h.calculateOverallHealth(services)

	statusCode := http.StatusOK
	if overall == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, models.APIResponse{
		Success: overall == "healthy",
		Data: models.HealthCheck{
			Status:    overall,
			Timestamp: time.Now(),
			Generator: h.config.Gemini.Mode,
			Services:  services,
		},
	})
}

// GetStats collects cache and queue statistics. A failing subsystem is
// reported inline rather than failing the request.
func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"timestamp": time.Now(),
	}

	for name, fn := range h.stats {
		value, err := fn(c.Request.Context())
		if err != nil {
			h.logger.Warn("Failed to collect stats", zap.String("subsystem", name), zap.Error(err))
			stats[name] = "unavailable: " + err.Error()
			continue
		}
		stats[name] = value
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    stats,
	})
}
