package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// SubscriberFunc resolves the authenticated caller of an upgrade request.
// Returning an error aborts the upgrade; the error is left to gin's error
// chain.
type SubscriberFunc func(c *gin.Context) (*Subscriber, error)

type Config struct {
	ReadBufferSize  int
	WriteBufferSize int
	SendBufferSize  int
	AllowedOrigins  []string
}

type Handler struct {
	hub        *Hub
	upgrader   websocket.Upgrader
	subscriber SubscriberFunc
	sendBuffer int
}

func NewHandler(hub *Hub, subscriber SubscriberFunc, config Config) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     originChecker(config.AllowedOrigins),
		},
		subscriber: subscriber,
		sendBuffer: config.SendBufferSize,
	}
}

func (h *Handler) HandleWebSocket(c *gin.Context) {
	subscriber, err := h.subscriber(c)
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.hub.log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	client := NewClient(h.hub, conn, *subscriber, h.sendBuffer)
	select {
	case h.hub.register <- client:
	case <-h.hub.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}
