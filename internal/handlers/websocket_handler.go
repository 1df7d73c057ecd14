package handlers

import (
	"net/http"

	"launchpad-backend/internal/services"

	"github.com/gin-gonic/gin"
)

// WebSocketHandler upgrades mint-page clients to the live push stream.
type WebSocketHandler struct {
	push *services.WebSocketPushService
}

func NewWebSocketHandler(push *services.WebSocketPushService) *WebSocketHandler {
	return &WebSocketHandler{push: push}
}

// HandleWebSocket handles GET /api/ws.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	if h.push == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error":   "WebSocket push is not enabled",
		})
		return
	}
	h.push.HandleUpgrade(c.Writer, c.Request)
}

// StatusHandler handles GET /api/ws/status.
func (h *WebSocketHandler) StatusHandler(c *gin.Context) {
	connected := 0
	if h.push != nil {
		connected = h.push.ClientCount()
	}
	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"connected_clients": connected,
	})
}
