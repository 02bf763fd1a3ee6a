package connections

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// TimeoutConfig holds the various timeout settings for WebSocket connections
type TimeoutConfig struct {
	ReadWait  time.Duration
	WriteWait time.Duration
}

// Manager tracks open run-stream connections so they can be closed on shutdown
type Manager struct {
	mu          sync.Mutex
	connections map[*websocket.Conn]struct{}
	timeouts    TimeoutConfig
}

var DefaultTimeouts = TimeoutConfig{
	ReadWait:  30 * time.Second,
	WriteWait: 10 * time.Second,
}

func NewManager(timeouts TimeoutConfig) *Manager {
	return &Manager{
		connections: make(map[*websocket.Conn]struct{}),
		timeouts:    timeouts,
	}
}

// AddConnection registers a new WebSocket connection
func (m *Manager) AddConnection(conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connections[conn] = struct{}{}
}

// RemoveConnection removes a WebSocket connection
func (m *Manager) RemoveConnection(conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.connections, conn)
}

// GetConnectionCount returns the current number of active connections
func (m *Manager) GetConnectionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.connections)
}

// HasConnection checks if a specific connection exists
func (m *Manager) HasConnection(conn *websocket.Conn) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, exists := m.connections[conn]
	return exists
}

func (m *Manager) GetTimeouts() TimeoutConfig {
	return m.timeouts
}

// WriteJSON sends v on conn within the configured write deadline
func (m *Manager) WriteJSON(conn *websocket.Conn, v interface{}) error {
	if err := conn.SetWriteDeadline(time.Now().Add(m.timeouts.WriteWait)); err != nil {
		return err
	}
	return conn.WriteJSON(v)
}

// CloseAll sends a going-away close frame to every connection and forgets them
func (m *Manager) CloseAll() {
	m.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(m.connections))
	for conn := range m.connections {
		conns = append(conns, conn)
	}
	m.connections = make(map[*websocket.Conn]struct{})
	m.mu.Unlock()

	deadline := time.Now().Add(m.timeouts.WriteWait)
	for _, conn := range conns {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"), deadline)
		conn.Close()
	}
}
