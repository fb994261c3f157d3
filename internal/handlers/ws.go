package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/agoralabs/agora-backend/internal/logger"
	"github.com/agoralabs/agora-backend/internal/ws"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type WSHandler struct {
	log     *logger.Logger
	manager *ws.Manager
}

func NewWSHandler(log *logger.Logger, manager *ws.Manager) *WSHandler {
	return &WSHandler{
		log:     log.With("handler", "WSHandler"),
		manager: manager,
	}
}

// Connect upgrades the request and keeps the connection registered under the
// given id until the peer goes away.
func (wh *WSHandler) Connect(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "connection id required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		wh.log.Warn("Websocket upgrade failed", "id", id, "error", err)
		return
	}
	wh.manager.Add(id, conn)
	defer func() {
		wh.manager.Remove(id)
		_ = conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			wh.log.Debug("Websocket closed", "id", id, "error", err)
			return
		}
	}
}
