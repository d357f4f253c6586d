package websocket

import (
	"context"
	"net/http"
	"strings"
	"time"

	"harbor-chat/internal/broadcast"
	"harbor-chat/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Handler upgrades authenticated requests to WebSocket connections.
// Identity is established by upstream auth middleware, which sets the
// X-User-ID header on the proxied request.
type Handler struct {
	hub       *Hub
	namespace string
}

func NewHandler(hub *Hub, namespace string) *Handler {
	return &Handler{hub: hub, namespace: namespace}
}

func (h *Handler) Connect(c *gin.Context) {
	userID, err := uuid.Parse(strings.TrimSpace(c.GetHeader("X-User-ID")))
	if err != nil {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	// Each connection observes exactly its own private channel.
	client := NewClient(conn, userID.String(), []string{
		broadcast.PrivateUserChannel(h.namespace, userID),
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h.hub.Register(client)
	go client.WriteLoop(ctx)

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	}

	h.hub.Unregister(client)
}
