package collect

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kinetiq-id/kinetiq/internal/sample"
	"github.com/kinetiq-id/kinetiq/internal/validation"
)

// Handler provides HTTP endpoints for telemetry ingestion
type Handler struct {
	collector *Collector
	logger    *slog.Logger
}

// NewHandler creates a new collection handler
func NewHandler(collector *Collector, logger *slog.Logger) *Handler {
	return &Handler{collector: collector, logger: logger}
}

// RegisterRoutes sets up collection routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/biometrics/collect", h.CollectMobile)
	r.POST("/biometrics/collect/web", h.CollectWeb)
}

// CollectMobile handles POST /biometrics/collect
func (h *Handler) CollectMobile(c *gin.Context) {
	var payload sample.MobilePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body",
		})
		return
	}
	if errs := validation.Validate(
		validation.Required("user_id", payload.UserID),
		validation.ValidIdentifier("user_id", payload.UserID),
		validation.Required("session_id", payload.SessionID),
		validation.ValidIdentifier("session_id", payload.SessionID),
	); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"message": errs.Error(),
			"details": errs,
		})
		return
	}

	receipt, err := h.collector.IngestMobile(c.Request.Context(), &payload)
	if err != nil {
		h.logger.Error("mobile collection failed", "user_id", payload.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "collection_error",
			"message": "Failed to ingest sample",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":  "collected",
		"receipt": receipt,
	})
}

// CollectWeb handles POST /biometrics/collect/web
func (h *Handler) CollectWeb(c *gin.Context) {
	var payload sample.WebPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body",
		})
		return
	}
	if errs := validation.Validate(
		validation.Required("user_id", payload.UserID),
		validation.ValidIdentifier("user_id", payload.UserID),
		validation.Required("session_id", payload.SessionID),
		validation.ValidIdentifier("session_id", payload.SessionID),
	); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"message": errs.Error(),
			"details": errs,
		})
		return
	}

	receipt, err := h.collector.IngestWeb(c.Request.Context(), &payload)
	if err != nil {
		h.logger.Error("web collection failed", "user_id", payload.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "collection_error",
			"message": "Failed to ingest sample",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":  "collected",
		"receipt": receipt,
	})
}
