// Package client sends key events to a relay server.
package client

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"vcontroller/internal/protocol"
)

const DefaultDialTimeout = 10 * time.Second

var ErrNotConnected = errors.New("not connected")

// TCPClient holds one connection to the relay server. The protocol has no
// replies, so the client only writes.
type TCPClient struct {
	serverAddr string
	conn       net.Conn
	connected  bool
	stats      ConnectionStats
	mu         sync.Mutex
}

// ConnectionStats holds connection statistics
type ConnectionStats struct {
	ConnectedAt  time.Time
	MessagesSent int
	BytesSent    int
}

// NewTCPClient creates a new TCP client
func NewTCPClient(serverAddr string) *TCPClient {
	return &TCPClient{serverAddr: serverAddr}
}

// Connect establishes connection to TCP server
func (c *TCPClient) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}
	conn, err := net.DialTimeout("tcp", c.serverAddr, DefaultDialTimeout)
	if err != nil {
		return fmt.Errorf("could not connect to %s: %w", c.serverAddr, err)
	}
	c.conn = conn
	c.connected = true
	c.stats = ConnectionStats{ConnectedAt: time.Now()}
	return nil
}

// Send encodes msg and writes it as one frame.
func (c *TCPClient) Send(msg protocol.Message) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	if len(data) > protocol.MaxFrameSize {
		return fmt.Errorf("frame of %d bytes exceeds %d", len(data), protocol.MaxFrameSize)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return ErrNotConnected
	}
	n, err := c.conn.Write(data)
	c.stats.BytesSent += n
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	c.stats.MessagesSent++
	return nil
}

// Disconnect closes the connection
func (c *TCPClient) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil
	}
	c.connected = false
	return c.conn.Close()
}

// IsConnected returns connection status
func (c *TCPClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// GetStats returns connection statistics
func (c *TCPClient) GetStats() ConnectionStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *TCPClient) Addr() string { return c.serverAddr }
