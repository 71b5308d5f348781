// Package ws maintains the websocket feed that pushes normalized messages
// to connected CRM front-end clients.
package ws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"tgcrm/internal/model"
	"tgcrm/internal/observability"
)

// Event is the frame pushed to every connected front-end client when the
// poller normalizes a new message. It mirrors the parser output: the
// message plus the upserted chat.
type Event struct {
	Type    string           `json:"type"`
	Message *model.Message   `json:"message,omitempty"`
	Chat    *model.ChatGroup `json:"chat,omitempty"`
}

// Hub tracks connected front-end clients. Broadcast failures drop the
// client; the front-end reconnects and recovers state over REST.
type Hub struct {
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
	log     *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
		log:     log.With("component", "ws_hub"),
	}
}

// AddClient registers a front-end websocket connection.
func (h *Hub) AddClient(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = true
	count := len(h.clients)
	h.mu.Unlock()

	observability.SetWSConnections(count)
	h.log.Debug("Front-end client connected", "clients", count)
}

// RemoveClient removes a front-end websocket connection.
func (h *Hub) RemoveClient(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	count := len(h.clients)
	h.mu.Unlock()

	observability.SetWSConnections(count)
	h.log.Debug("Front-end client disconnected", "clients", count)
}

// BroadcastMessage pushes one normalized message and its chat to every
// connected client.
func (h *Hub) BroadcastMessage(msg model.Message, chat model.ChatGroup) {
	payload, err := json.Marshal(Event{Type: "message", Message: &msg, Chat: &chat})
	if err != nil {
		h.log.Error("Failed to marshal ws event", "error", err)
		return
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.log.Warn("Websocket write failed, dropping client", "error", err)
			_ = conn.Close()
			h.RemoveClient(conn)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
