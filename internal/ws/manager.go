package ws

import (
	"sync"

	"github.com/gorilla/websocket"

	"github.com/agoralabs/agora-backend/internal/logger"
)

// Manager maps invitation ids to live websocket connections so webhook
// deliveries can be pushed to the browser that is waiting on them. There are
// no retry or ordering guarantees; a send to an absent id is a no-op.
type Manager struct {
	mu          sync.RWMutex
	log         *logger.Logger
	connections map[string]*websocket.Conn
}

func NewManager(log *logger.Logger) *Manager {
	return &Manager{
		log:         log.With("component", "WSManager"),
		connections: make(map[string]*websocket.Conn),
	}
}

func (m *Manager) Add(id string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.connections[id]; ok {
		_ = old.Close()
	}
	m.connections[id] = conn
	m.log.Debug("Connection added", "id", id)
}

func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.connections, id)
	m.log.Debug("Connection removed", "id", id)
}

// Send writes a JSON payload to the connection registered under id. Returns
// false when no connection is registered or the write fails.
func (m *Manager) Send(id string, payload interface{}) bool {
	m.mu.RLock()
	conn, ok := m.connections[id]
	m.mu.RUnlock()

	if !ok {
		m.log.Debug("No connection for id", "id", id)
		return false
	}
	if err := conn.WriteJSON(payload); err != nil {
		m.log.Warn("Websocket write failed", "id", id, "error", err)
		return false
	}
	return true
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}
