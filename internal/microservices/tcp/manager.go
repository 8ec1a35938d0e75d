package tcp

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"vcontroller/internal/logging"
)

type ConnectionManager struct {
	clients map[string]*ClientConnection
	// key: client ID
	mu     sync.RWMutex
	logger *slog.Logger
}

// constructor for ConnectionManager
func NewConnectionManager(logger *slog.Logger) *ConnectionManager {
	return &ConnectionManager{
		clients: make(map[string]*ClientConnection),
		logger:  logging.OrDefault(logger),
	}
}

// method to add a new connection
func (m *ConnectionManager) AddConnection(client *ClientConnection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[client.ID] = client
	m.logger.Info("client_added",
		"client_id", client.ID,
		"remote_addr", client.RemoteAddr(),
	)
}

// method to remove a connection
func (m *ConnectionManager) RemoveConnection(client *ClientConnection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[client.ID]; !ok {
		return
	}
	delete(m.clients, client.ID)
	m.logger.Info("client_removed",
		"client_id", client.ID,
	)
}

func (m *ConnectionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// CloseAllConnections stops every tracked worker and waits for each to exit.
// Workers remove themselves, so the lock is not held while waiting.
func (m *ConnectionManager) CloseAllConnections() {
	m.mu.RLock()
	clients := make([]*ClientConnection, 0, len(m.clients))
	for _, c := range m.clients {
		clients = append(clients, c)
	}
	m.mu.RUnlock()

	for _, c := range clients {
		c.Stop()
	}
	for _, c := range clients {
		<-c.Done()
		m.logger.Info("client_connection_closed",
			"client_id", c.ID,
		)
	}
}

// ConnectionInfo describes one live connection.
type ConnectionInfo struct {
	ID          string    `json:"id"`
	RemoteAddr  string    `json:"remote_addr"`
	ConnectedAt time.Time `json:"connected_at"`
	State       string    `json:"state"`
	Frames      uint64    `json:"frames"`
}

// Snapshot lists live connections, oldest first.
func (m *ConnectionManager) Snapshot() []ConnectionInfo {
	m.mu.RLock()
	out := make([]ConnectionInfo, 0, len(m.clients))
	for _, c := range m.clients {
		out = append(out, c.Info())
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].ConnectedAt.Before(out[j].ConnectedAt)
	})
	return out
}
