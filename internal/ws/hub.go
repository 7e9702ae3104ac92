package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"social-service/internal/logging"
	"social-service/internal/models"
	"social-service/internal/observability"
)

// Conn is the connection handle the hub manages. Satisfied by
// *websocket.Conn; tests substitute fakes.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type client struct {
	conn  Conn
	epoch uint64

	// gorilla/websocket permits a single concurrent writer per connection.
	writeMu sync.Mutex
}

// Hub maps a user to its single live websocket connection. Registration is
// last-writer-wins; entries are epoch-tagged so a stale disconnect cannot
// evict a newer connection.
type Hub struct {
	mu        sync.RWMutex
	clients   map[int]*client
	lastEpoch uint64
	logger    logging.Logger
}

// NewHub creates an empty hub.
func NewHub(logger logging.Logger) *Hub {
	return &Hub{clients: make(map[int]*client), logger: logger}
}

// Register binds the user to the connection, evicting and closing any
// previous one. The returned epoch must be passed to the matching Unregister.
func (h *Hub) Register(userID int, conn Conn) uint64 {
	h.mu.Lock()
	h.lastEpoch++
	epoch := h.lastEpoch
	prev := h.clients[userID]
	h.clients[userID] = &client{conn: conn, epoch: epoch}
	h.mu.Unlock()

	if prev != nil {
		prev.conn.Close()
	}
	return epoch
}

// Unregister removes the user's entry only while it still carries the given
// epoch.
func (h *Hub) Unregister(userID int, epoch uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cl, ok := h.clients[userID]; ok && cl.epoch == epoch {
		delete(h.clients, userID)
	}
}

// IsOnline reports whether the user has a live connection.
func (h *Hub) IsOnline(userID int) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// Notify delivers an event to the user's live connection. Delivery is
// best-effort: an offline user drops the event silently, and a write failure
// closes and removes the connection.
func (h *Hub) Notify(userID int, event models.Event) bool {
	h.mu.RLock()
	cl := h.clients[userID]
	h.mu.RUnlock()

	if cl == nil {
		observability.IncNotification(event.Type, "dropped")
		return false
	}

	payload, err := json.Marshal(event)
	if err != nil {
		observability.IncNotification(event.Type, "error")
		return false
	}

	if err := h.write(cl, payload); err != nil {
		h.logger.Warnf("websocket write error: %v", err)
		cl.conn.Close()
		h.Unregister(userID, cl.epoch)
		observability.IncNotification(event.Type, "error")
		return false
	}
	observability.IncNotification(event.Type, "delivered")
	return true
}

// Broadcast delivers an event to every live connection, pruning any that
// fail to accept the write.
func (h *Hub) Broadcast(event models.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	targets := make(map[int]*client, len(h.clients))
	for userID, cl := range h.clients {
		targets[userID] = cl
	}
	h.mu.RUnlock()

	for userID, cl := range targets {
		if err := h.write(cl, payload); err != nil {
			h.logger.Warnf("websocket write error: %v", err)
			cl.conn.Close()
			h.Unregister(userID, cl.epoch)
			observability.IncNotification(event.Type, "error")
			continue
		}
		observability.IncNotification(event.Type, "delivered")
	}
}

func (h *Hub) write(cl *client, payload []byte) error {
	cl.writeMu.Lock()
	defer cl.writeMu.Unlock()
	return cl.conn.WriteMessage(websocket.TextMessage, payload)
}
