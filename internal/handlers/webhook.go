package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agoralabs/agora-backend/internal/logger"
	"github.com/agoralabs/agora-backend/internal/ws"
)

// WebhookHandler accepts attestation pushes from the registry. When the
// payload names an invitation id, the waiting browser connection is notified.
type WebhookHandler struct {
	log     *logger.Logger
	manager *ws.Manager
}

func NewWebhookHandler(log *logger.Logger, manager *ws.Manager) *WebhookHandler {
	return &WebhookHandler{
		log:     log.With("handler", "WebhookHandler"),
		manager: manager,
	}
}

func (wh *WebhookHandler) Receive(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read request body"})
		return
	}
	if len(raw) == 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "request body is empty"})
		return
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body is not valid JSON"})
		return
	}
	if len(payload) == 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "request body is empty"})
		return
	}

	if id, ok := payload["invitationId"].(string); ok && id != "" {
		delivered := wh.manager.Send(id, payload)
		wh.log.Debug("Webhook forwarded", "invitationId", id, "delivered", delivered)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Data received successfully"})
}
