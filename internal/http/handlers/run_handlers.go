package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/product-copy-generator/internal/models"
	"github.com/phambaophuc/product-copy-generator/internal/repository"
	"go.uber.org/zap"
)

const defaultStatsWindow = 24 * time.Hour

// ListRuns supports ?mode=, ?status=, ?since=<duration> and ?limit=.
func (h *Handler) ListRuns(c *gin.Context) {
	if h.runs == nil {
		h.respondError(c, http.StatusServiceUnavailable, "run log is not available")
		return
	}

	filter := repository.RunFilter{
		Mode:   c.Query("mode"),
		Status: c.Query("status"),
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			h.respondError(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		filter.Limit = limit
	}

	if raw := c.Query("since"); raw != "" {
		window, err := time.ParseDuration(raw)
		if err != nil {
			h.respondError(c, http.StatusBadRequest, "since must be a duration such as 24h")
			return
		}
		filter.Since = h.now().Add(-window)
	}

	runs, err := h.runs.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list runs", zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, "failed to list runs")
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    runs,
	})
}

// RunStats aggregates the run log over ?since= (default 24h).
func (h *Handler) RunStats(c *gin.Context) {
	if h.runs == nil {
		h.respondError(c, http.StatusServiceUnavailable, "run log is not available")
		return
	}

	window := defaultStatsWindow
	if raw := c.Query("since"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			h.respondError(c, http.StatusBadRequest, "since must be a duration such as 24h")
			return
		}
		window = d
	}

	stats, err := h.runs.Stats(c.Request.Context(), h.now().Add(-window))
	if err != nil {
		h.logger.Error("Failed to aggregate runs", zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, "failed to aggregate runs")
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    stats,
	})
}
