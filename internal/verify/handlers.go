package verify

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kinetiq-id/kinetiq/internal/pagination"
	"github.com/kinetiq-id/kinetiq/internal/profile"
	"github.com/kinetiq-id/kinetiq/internal/sample"
	"github.com/kinetiq-id/kinetiq/internal/validation"
)

// Handler provides HTTP endpoints for verification
type Handler struct {
	engine   *Engine
	audit    Store
	profiles profile.Store
	logger   *slog.Logger
}

// NewHandler creates a new verification handler
func NewHandler(engine *Engine, audit Store, profiles profile.Store, logger *slog.Logger) *Handler {
	return &Handler{engine: engine, audit: audit, profiles: profiles, logger: logger}
}

// RegisterRoutes sets up verification routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/biometrics/verify", h.VerifyMobile)
	r.POST("/biometrics/verify/web", h.VerifyWeb)
	r.POST("/biometrics/verify/cross-platform", h.VerifyCrossPlatform)
	r.GET("/users/:userId/verifications", h.History)
}

// VerifyMobileRequest wraps a mobile payload with the verification context.
type VerifyMobileRequest struct {
	sample.MobilePayload
	VerificationType string `json:"verification_type"`
}

// VerifyMobile handles POST /biometrics/verify
func (h *Handler) VerifyMobile(c *gin.Context) {
	var req VerifyMobileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body",
		})
		return
	}
	s, err := sample.FromMobile(c.Request.Context(), &req.MobilePayload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_sample",
			"message": err.Error(),
		})
		return
	}
	h.respond(c, s, req.VerificationType)
}

// VerifyWebRequest wraps a web payload with the verification context.
type VerifyWebRequest struct {
	sample.WebPayload
	VerificationType string `json:"verification_type"`
}

// VerifyWeb handles POST /biometrics/verify/web
func (h *Handler) VerifyWeb(c *gin.Context) {
	var req VerifyWebRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body",
		})
		return
	}
	s, err := sample.FromWeb(c.Request.Context(), &req.WebPayload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_sample",
			"message": err.Error(),
		})
		return
	}
	h.respond(c, s, req.VerificationType)
}

// CrossPlatformRequest dispatches on the platform tag; Data carries the
// platform-shaped payload.
type CrossPlatformRequest struct {
	Platform         string          `json:"platform" binding:"required"`
	VerificationType string          `json:"verification_type"`
	Data             json.RawMessage `json:"data" binding:"required"`
}

// VerifyCrossPlatform handles POST /biometrics/verify/cross-platform
func (h *Handler) VerifyCrossPlatform(c *gin.Context) {
	var req CrossPlatformRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body",
		})
		return
	}
	if !validation.IsValidPlatform(req.Platform) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_platform",
			"message": "platform must be one of mobile, web, desktop",
		})
		return
	}

	var (
		s   *sample.Sample
		err error
	)
	if sample.Platform(req.Platform) == sample.PlatformMobile {
		var payload sample.MobilePayload
		if err := json.Unmarshal(req.Data, &payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_sample",
				"message": "data does not match mobile payload shape",
			})
			return
		}
		s, err = sample.FromMobile(c.Request.Context(), &payload)
	} else {
		var payload sample.WebPayload
		if err := json.Unmarshal(req.Data, &payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_sample",
				"message": "data does not match web payload shape",
			})
			return
		}
		s, err = sample.FromWeb(c.Request.Context(), &payload)
		if s != nil {
			s.Platform = sample.Platform(req.Platform)
		}
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_sample",
			"message": err.Error(),
		})
		return
	}
	h.respond(c, s, req.VerificationType)
}

// respond runs the engine and writes the decision. Users without an
// enrolled profile get a 400 up front; past that point the engine fails
// closed internally, so the endpoint answers 200 with a result.
func (h *Handler) respond(c *gin.Context, s *sample.Sample, vtype string) {
	t := Type(vtype)
	if vtype == "" {
		t = TypeLogin
	}
	if !t.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_verification_type",
			"message": "verification_type must be one of login, transaction, continuous, challenge",
		})
		return
	}
	if _, err := h.profiles.Get(c.Request.Context(), s.UserID); err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "not_enrolled",
				"message": "No behavioral profile found. Complete enrollment first.",
			})
			return
		}
		// Other store errors fall through; the engine fails closed.
	}
	result := h.engine.Verify(c.Request.Context(), s, t)
	c.JSON(http.StatusOK, result)
}

// History handles GET /users/:userId/verifications
// Supports cursor pagination via ?cursor= from a previous page.
func (h *Handler) History(c *gin.Context) {
	userID := c.Param("userId")
	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	cursor, err := pagination.Decode(c.Query("cursor"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_cursor",
			"message": "cursor is malformed",
		})
		return
	}

	// Fetch one extra row to detect whether another page exists.
	results, err := h.audit.ListByUser(c.Request.Context(), userID, cursor, limit+1)
	if err != nil {
		h.logger.Error("verification history query failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "history_error",
			"message": "Failed to retrieve verification history",
		})
		return
	}

	results, next, hasMore := pagination.ComputePage(results, limit, func(r *Result) (time.Time, string) {
		return r.EvaluatedAt, r.ID
	})
	if results == nil {
		results = []*Result{}
	}

	c.JSON(http.StatusOK, gin.H{
		"results":     results,
		"count":       len(results),
		"next_cursor": next,
		"has_more":    hasMore,
	})
}
