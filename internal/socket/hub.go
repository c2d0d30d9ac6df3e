// server/internal/socket/hub.go
package socket

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Hub keeps the live WebSocket connections, keyed by user id. Consumers and
// outlet managers connect here to receive their notification copies as they
// are dispatched.
type Hub struct {
	clients map[string]*websocket.Conn
	mu      sync.RWMutex
	log     *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*websocket.Conn),
		log:     log,
	}
}

// Register adds a client connection. An existing connection for the same user
// is replaced.
func (h *Hub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.clients[userID]; ok {
		old.Close()
	}
	h.clients[userID] = conn
	h.log.Info("websocket client registered", zap.String("userId", userID))
}

// Unregister removes a client connection.
func (h *Hub) Unregister(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[userID]; ok {
		delete(h.clients, userID)
		h.log.Info("websocket client unregistered", zap.String("userId", userID))
	}
}

// SendJSON pushes a message to one user. An offline user is not an error.
func (h *Hub) SendJSON(userID string, payload any) error {
	h.mu.RLock()
	conn, ok := h.clients[userID]
	h.mu.RUnlock()
	if !ok {
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}
