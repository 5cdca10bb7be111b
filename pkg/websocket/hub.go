package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"hotelops/pkg/events"
	"hotelops/pkg/logger"
)

var ErrHubClosed = errors.New("websocket hub closed")

// Hub owns every client and room. Membership only changes on the Run
// goroutine; the mutex guards reads from other goroutines.
type Hub struct {
	clients    map[*Client]bool
	rooms      map[string]map[*Client]bool
	broadcast  chan delivery
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mutex      sync.RWMutex
	log        *logger.Logger
}

type Message struct {
	Type      string      `json:"type"`
	Key       string      `json:"key,omitempty"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data"`
}

type delivery struct {
	rooms []string
	data  []byte
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		broadcast:  make(chan delivery, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log,
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case d := <-h.broadcast:
			h.deliver(d)
		}
	}
}

// Publish pushes the event to every client in its rooms. Events without
// rooms reach nobody.
func (h *Hub) Publish(ctx context.Context, event events.Event) error {
	if len(event.Rooms) == 0 {
		return nil
	}

	data, err := json.Marshal(Message{
		Type:      event.Type,
		Key:       event.Key,
		Timestamp: event.OccurredAt.Unix(),
		Data:      event.Payload,
	})
	if err != nil {
		return err
	}

	select {
	case h.broadcast <- delivery{rooms: event.Rooms, data: data}:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) RoomSize(roomID string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.rooms[roomID])
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	h.clients[client] = true
	for _, roomID := range client.subscriber.Rooms {
		if h.rooms[roomID] == nil {
			h.rooms[roomID] = make(map[*Client]bool)
		}
		h.rooms[roomID][client] = true
	}
	h.mutex.Unlock()

	h.log.WithFields(map[string]interface{}{
		"user_id": client.subscriber.UserID,
		"rooms":   client.subscriber.Rooms,
	}).Debug("Websocket client registered")

	welcome, _ := json.Marshal(Message{
		Type:      "welcome",
		Timestamp: time.Now().Unix(),
		Data:      map[string]interface{}{"rooms": client.subscriber.Rooms},
	})
	h.sendToClient(client, welcome)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.removeLocked(client)
}

func (h *Hub) deliver(d delivery) {
	seen := make(map[*Client]bool)
	var slow []*Client

	h.mutex.RLock()
	for _, roomID := range d.rooms {
		for client := range h.rooms[roomID] {
			if seen[client] {
				continue
			}
			seen[client] = true
			select {
			case client.send <- d.data:
			default:
				slow = append(slow, client)
			}
		}
	}
	h.mutex.RUnlock()

	if len(slow) == 0 {
		return
	}
	h.mutex.Lock()
	for _, client := range slow {
		h.log.WithField("user_id", client.subscriber.UserID).Warn("Dropping slow websocket client")
		h.removeLocked(client)
	}
	h.mutex.Unlock()
}

func (h *Hub) sendToClient(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		h.mutex.Lock()
		h.removeLocked(client)
		h.mutex.Unlock()
	}
}

func (h *Hub) removeLocked(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)

	for _, roomID := range client.subscriber.Rooms {
		if room, exists := h.rooms[roomID]; exists {
			delete(room, client)
			if len(room) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
}

func (h *Hub) shutdown() {
	close(h.done)

	h.mutex.Lock()
	defer h.mutex.Unlock()
	for client := range h.clients {
		h.removeLocked(client)
	}
}
