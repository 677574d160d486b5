package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ashureev/coach-finder/internal/session"
	"github.com/coder/websocket"
	"github.com/google/uuid"
)

const writeTimeout = 5 * time.Second

// Handler upgrades requests to WebSocket and streams session messages.
type Handler struct {
	hub            *Hub
	mgr            *session.Manager
	originPatterns []string
}

// NewHandler creates a handler. originPatterns are passed to the WebSocket
// origin check; an empty list only allows same-origin clients.
func NewHandler(hub *Hub, mgr *session.Manager, originPatterns []string) *Handler {
	return &Handler{hub: hub, mgr: mgr, originPatterns: originPatterns}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "ip", r.RemoteAddr)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "stream ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr)
		}
	}()

	id := uuid.NewString()
	msgs := h.hub.Register(id)
	defer h.hub.Unregister(id, msgs)

	// The client never sends; CloseRead handles control frames and cancels
	// ctx when the peer goes away.
	ctx := ws.CloseRead(r.Context())

	snap := h.mgr.Snapshot()
	if err := writeMessage(ctx, ws, Message{
		Type:          "state",
		UserID:        snap.UserID,
		Authenticated: snap.Authenticated(),
		AutoLoggedOut: snap.AutoLoggedOut,
	}); err != nil {
		slog.Debug("Failed to send initial state", "error", err, "client_id", id)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			if err := writeMessage(ctx, ws, msg); err != nil {
				slog.Debug("WebSocket write error", "error", err, "client_id", id)
				return
			}
		}
	}
}

func writeMessage(ctx context.Context, ws *websocket.Conn, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return ws.Write(ctx, websocket.MessageText, data)
}
