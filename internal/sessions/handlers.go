package sessions

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kinetiq-id/kinetiq/internal/idgen"
	"github.com/kinetiq-id/kinetiq/internal/sample"
	"github.com/kinetiq-id/kinetiq/internal/validation"
)

// Handler provides HTTP endpoints for session lifecycle
type Handler struct {
	store  Store
	logger *slog.Logger
}

// NewHandler creates a new session handler
func NewHandler(store Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// RegisterRoutes sets up session routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/sessions", h.StartSession)
	r.POST("/sessions/:sessionId/end", h.EndSession)
	r.GET("/sessions/:sessionId", h.GetSession)
	r.GET("/users/:userId/sessions", h.ListSessions)
}

// StartSessionRequest opens a collection session.
type StartSessionRequest struct {
	SessionID   string `json:"session_id"`
	UserID      string `json:"user_id" binding:"required"`
	Platform    string `json:"platform" binding:"required"`
	SessionType string `json:"session_type"`
}

// StartSession handles POST /sessions
func (h *Handler) StartSession(c *gin.Context) {
	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body",
		})
		return
	}
	if errs := validation.Validate(
		validation.ValidIdentifier("user_id", req.UserID),
		validation.ValidIdentifier("session_id", req.SessionID),
		validation.ValidPlatform("platform", req.Platform),
	); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"message": errs.Error(),
			"details": errs,
		})
		return
	}

	st := SessionType(req.SessionType)
	if req.SessionType == "" {
		st = TypeOnboarding
	}
	if !st.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_session_type",
			"message": "session_type must be one of onboarding, login, transaction, continuous",
		})
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = idgen.WithPrefix("sess_")
	}

	sess, err := h.store.GetOrCreate(c.Request.Context(), sessionID, req.UserID, sample.Platform(req.Platform), st)
	if err != nil {
		h.logger.Error("session create failed", "user_id", req.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "session_error",
			"message": "Failed to start session",
		})
		return
	}

	c.JSON(http.StatusCreated, sess)
}

// GetSession handles GET /sessions/:sessionId
func (h *Handler) GetSession(c *gin.Context) {
	sessionID := c.Param("sessionId")

	sess, err := h.store.Get(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "session_not_found",
				"message": "No session with this id",
			})
			return
		}
		h.logger.Error("session lookup failed", "session_id", sessionID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "session_error",
			"message": "Failed to retrieve session",
		})
		return
	}

	c.JSON(http.StatusOK, sess)
}

// EndSession handles POST /sessions/:sessionId/end
func (h *Handler) EndSession(c *gin.Context) {
	sessionID := c.Param("sessionId")

	sess, err := h.store.End(c.Request.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "session_not_found",
				"message": "No session with this id",
			})
		case errors.Is(err, ErrEnded):
			c.JSON(http.StatusConflict, gin.H{
				"error":   "session_ended",
				"message": "Session is already ended",
			})
		default:
			h.logger.Error("session end failed", "session_id", sessionID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "session_error",
				"message": "Failed to end session",
			})
		}
		return
	}

	c.JSON(http.StatusOK, sess)
}

// ListSessions handles GET /users/:userId/sessions
func (h *Handler) ListSessions(c *gin.Context) {
	userID := c.Param("userId")
	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	out, err := h.store.ListByUser(c.Request.Context(), userID, limit)
	if err != nil {
		h.logger.Error("session list failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "session_error",
			"message": "Failed to list sessions",
		})
		return
	}
	if out == nil {
		out = []*Session{}
	}

	c.JSON(http.StatusOK, gin.H{
		"sessions": out,
		"count":    len(out),
	})
}
