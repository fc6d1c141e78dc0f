package obs

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Hub fans ingested events out to connected WebSocket clients. Slow or
// broken connections are dropped rather than blocking ingestion.
type Hub struct {
	upgrader websocket.Upgrader
	conns    map[*websocket.Conn]struct{}
	connMux  sync.Mutex
	logger   *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns:  make(map[*websocket.Conn]struct{}),
		logger: logger,
	}
}

// Handler upgrades the request and keeps the connection open until the
// client goes away.
func (h *Hub) Handler(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	h.connMux.Lock()
	h.conns[conn] = struct{}{}
	h.connMux.Unlock()

	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast sends the event to every connected client.
func (h *Hub) Broadcast(ev Event) {
	h.connMux.Lock()
	defer h.connMux.Unlock()
	for conn := range h.conns {
		if err := conn.WriteJSON(ev); err != nil {
			delete(h.conns, conn)
			conn.Close()
		}
	}
}

// Close disconnects all clients.
func (h *Hub) Close() {
	h.connMux.Lock()
	defer h.connMux.Unlock()
	for conn := range h.conns {
		conn.Close()
		delete(h.conns, conn)
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.connMux.Lock()
	if _, ok := h.conns[conn]; ok {
		delete(h.conns, conn)
		conn.Close()
	}
	h.connMux.Unlock()
}
