package ipc

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The control surface binds to localhost; the renderer is the only
		// expected client.
		return true
	},
}

// Hub mirrors every boundary message to the attached renderer windows over a
// local websocket. Stale clients are dropped on write failure.
type Hub struct {
	logger *slog.Logger

	mu      sync.Mutex
	clients map[string]*websocket.Conn
}

// NewHub creates an empty Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[string]*websocket.Conn),
	}
}

// Make sure we conform to the interface
var _ Sink = (*Hub)(nil)

// ServeHTTP upgrades a renderer request and keeps the client registered
// until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("failed to upgrade renderer connection", "error", err)
		return
	}
	defer conn.Close()

	clientID := uuid.New().String()
	h.logger.Info("renderer attached", "clientId", clientID)

	h.mu.Lock()
	h.clients[clientID] = conn
	h.mu.Unlock()

	defer func() {
		h.logger.Info("renderer detached", "clientId", clientID)
		h.remove(clientID)
	}()

	// The renderer sends nothing on this socket; the loop only detects the
	// disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("renderer closed unexpectedly", "clientId", clientID, "error", err)
			}
			return
		}
	}
}

// Send broadcasts one boundary message to every attached renderer.
func (h *Hub) Send(msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal boundary message: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for clientID, conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.logger.Warn("dropping stale renderer client", "clientId", clientID, "error", err)
			conn.Close()
			delete(h.clients, clientID)
		}
	}
	return nil
}

// ClientCount reports how many renderers are attached.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) remove(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, clientID)
}
