// Package events pushes session transitions to connected UI clients over
// WebSocket.
package events

import (
	"log/slog"
	"sync"

	"github.com/ashureev/coach-finder/internal/session"
)

// sendBuffer is the number of undelivered messages a client may lag behind
// before messages to it are dropped.
const sendBuffer = 8

// Message is the JSON frame sent to clients.
type Message struct {
	Type          string `json:"type"`
	Event         string `json:"event,omitempty"`
	UserID        string `json:"userId,omitempty"`
	Authenticated bool   `json:"authenticated"`
	AutoLoggedOut bool   `json:"autoLoggedOut"`
}

type client struct {
	id   string
	send chan Message
}

// Hub fans session events out to every registered client.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]*client)}
}

// Attach subscribes the hub to mgr's transitions.
func (h *Hub) Attach(mgr *session.Manager) {
	mgr.Subscribe(func(ev session.Event) {
		h.Broadcast(Message{
			Type:          "session",
			Event:         ev.Kind.String(),
			UserID:        ev.UserID,
			Authenticated: ev.Kind == session.EventSignedIn || ev.Kind == session.EventRestored,
			AutoLoggedOut: ev.Kind == session.EventExpired,
		})
	})
}

// Register adds a client and returns its message channel. Registering an id
// that is already present replaces the old client and closes its channel.
func (h *Hub) Register(id string) <-chan Message {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.clients[id]; ok {
		close(existing.send)
	}
	c := &client{id: id, send: make(chan Message, sendBuffer)}
	h.clients[id] = c
	slog.Info("Event client registered", "client_id", id)
	return c.send
}

// Unregister removes the client registered under id with channel ch and
// closes the channel. A stale ch left over from a replaced client is ignored.
func (h *Hub) Unregister(id string, ch <-chan Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[id]; ok && (<-chan Message)(c.send) == ch {
		close(c.send)
		delete(h.clients, id)
		slog.Info("Event client unregistered", "client_id", id)
	}
}

// Broadcast queues msg for every client without blocking. Clients whose
// buffer is full miss the message.
func (h *Hub) Broadcast(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			slog.Warn("Event client lagging, dropping message", "client_id", id, "event", msg.Event)
		}
	}
}

// Len returns the number of registered clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
