// README: Device token registration for push delivery.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"copool/internal/http/middleware"
)

// DeviceTokenStore records the push token a user's current device reports.
type DeviceTokenStore interface {
	UpsertDeviceToken(ctx context.Context, userID, token string) error
}

type DeviceHandler struct {
	tokens DeviceTokenStore
}

func NewDeviceHandler(tokens DeviceTokenStore) *DeviceHandler {
	return &DeviceHandler{tokens: tokens}
}

type registerDeviceReq struct {
	Token string `json:"token"`
}

func (h *DeviceHandler) Register(c *gin.Context) {
	var req registerDeviceReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		writeError(c, http.StatusBadRequest, "token is required")
		return
	}
	if err := h.tokens.UpsertDeviceToken(c.Request.Context(), middleware.CallerUID(c), req.Token); err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "registered"})
}
