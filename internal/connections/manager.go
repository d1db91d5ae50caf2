package connections

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/inboxpilot/gateway/internal/logger"
)

// TimeoutConfig holds the various timeout settings for WebSocket connections
type TimeoutConfig struct {
	PongWait   time.Duration
	PingPeriod time.Duration
	WriteWait  time.Duration
}

// DefaultTimeouts provides sensible default timeout values
var DefaultTimeouts = TimeoutConfig{
	PongWait:   30 * time.Second,
	PingPeriod: 27 * time.Second, // (PongWait * 9) / 10
	WriteWait:  10 * time.Second,
}

// Event is one snapshot lifecycle notification pushed to dashboard clients
type Event struct {
	Type       string `json:"type"`
	SnapshotID string `json:"snapshot_id,omitempty"`
	Message    string `json:"message,omitempty"`
}

const (
	EventSnapshotCreated = "snapshot.created"
	EventSnapshotReady   = "snapshot.ready"
)

// Manager tracks dashboard WebSocket connections per session and fans
// events out to them
type Manager struct {
	mu          sync.RWMutex
	connections map[*websocket.Conn]string // conn -> session ID
	timeouts    TimeoutConfig
}

// NewManager creates a new connection manager with the specified timeouts
func NewManager(timeouts TimeoutConfig) *Manager {
	return &Manager{
		connections: make(map[*websocket.Conn]string),
		timeouts:    timeouts,
	}
}

// AddConnection registers a WebSocket connection for a session
func (m *Manager) AddConnection(conn *websocket.Conn, sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connections[conn] = sessionID
}

// RemoveConnection removes a WebSocket connection
func (m *Manager) RemoveConnection(conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.connections, conn)
}

// ConnectionCount returns the current number of active connections
func (m *Manager) ConnectionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}

// SessionConnectionCount returns how many connections one session holds
func (m *Manager) SessionConnectionCount(sessionID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, sid := range m.connections {
		if sid == sessionID {
			count++
		}
	}
	return count
}

// NotifySession sends an event to every connection belonging to a session.
// Dead connections are dropped from the registry.
func (m *Manager) NotifySession(sessionID string, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error(logger.EVENTS, "Failed to marshal event %s: %v", event.Type, err)
		return
	}

	m.mu.RLock()
	targets := make([]*websocket.Conn, 0)
	for conn, sid := range m.connections {
		if sid == sessionID {
			targets = append(targets, conn)
		}
	}
	m.mu.RUnlock()

	for _, conn := range targets {
		conn.SetWriteDeadline(time.Now().Add(m.timeouts.WriteWait))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			logger.Warn(logger.EVENTS, "Failed to push event to session %s, dropping connection: %v", sessionID, err)
			conn.Close()
			m.RemoveConnection(conn)
		}
	}
}

// GetTimeouts returns the current timeout configuration
func (m *Manager) GetTimeouts() TimeoutConfig {
	return m.timeouts
}
