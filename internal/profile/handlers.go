package profile

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler provides HTTP endpoints for profile inspection
type Handler struct {
	store  Store
	logger *slog.Logger
}

// NewHandler creates a new profile handler
func NewHandler(store Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// RegisterRoutes sets up profile routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/users/:userId/profile", h.GetProfile)
}

// GetProfile handles GET /users/:userId/profile
func (h *Handler) GetProfile(c *gin.Context) {
	userID := c.Param("userId")

	p, err := h.store.Get(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "profile_not_found",
				"message": "No behavioral profile exists for this user",
			})
			return
		}
		h.logger.Error("profile lookup failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "profile_error",
			"message": "Failed to retrieve profile",
		})
		return
	}

	c.JSON(http.StatusOK, p)
}
