package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"kioskagent/hub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Displays and control panels connect from kiosk-local origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// RegisterChannelRoutes registers the websocket channel endpoint.
func RegisterChannelRoutes(r *gin.Engine, h *hub.Hub) {
	r.GET("/ws", func(c *gin.Context) { handleChannel(c, h) })
}

// handleChannel upgrades the connection and attaches it to the hub.
func handleChannel(c *gin.Context, h *hub.Hub) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("⚠️  Websocket upgrade failed: %v", err)
		return
	}

	role := c.Query("role")
	if role == "" {
		role = "display"
	}
	h.Attach(conn, role)
}
