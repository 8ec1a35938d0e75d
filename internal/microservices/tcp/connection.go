package tcp

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"vcontroller/internal/protocol"
)

type ConnState int32

const (
	ConnRunning ConnState = iota
	ConnStopping
	ConnClosed
)

func (s ConnState) String() string {
	switch s {
	case ConnRunning:
		return "RUNNING"
	case ConnStopping:
		return "STOPPING"
	case ConnClosed:
		return "CLOSED"
	default:
		return fmt.Sprintf("ConnState(%d)", int32(s))
	}
}

type ConnectionOptions struct {
	ReadTimeout time.Duration
	Limiter     *rate.Limiter // nil disables rate limiting
}

type ClientConnection struct {
	ID          string // unique identifier = key in map
	conn        net.Conn
	Manager     *ConnectionManager
	Limiter     *rate.Limiter
	dispatcher  Dispatcher
	readTimeout time.Duration
	logger      *slog.Logger
	connectedAt time.Time

	state    atomic.Int32
	stopping atomic.Bool
	frames   atomic.Uint64
	done     chan struct{}
}

// constructor for Connection
func NewClientConnection(conn net.Conn, manager *ConnectionManager, dispatcher Dispatcher, opts ConnectionOptions) *ClientConnection {
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}
	id := uuid.NewString()
	return &ClientConnection{
		ID:          id,
		conn:        conn,
		Manager:     manager,
		Limiter:     opts.Limiter,
		dispatcher:  dispatcher,
		readTimeout: opts.ReadTimeout,
		logger:      manager.logger.With("client_id", id),
		connectedAt: time.Now(),
		done:        make(chan struct{}),
	}
}

// Listen reads frames until the peer leaves, asks to stop, or Stop is called.
// It owns the socket and closes it on return.
func (c *ClientConnection) Listen() {
	defer c.finish()

	c.logger.Info("client_started_listening",
		"remote_addr", c.RemoteAddr(),
	)

	buf := make([]byte, protocol.MaxFrameSize)
	for !c.stopping.Load() {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
			c.logger.Error("client_set_deadline_failed", "error", err)
			return
		}
		// Stop may have poked the deadline before it was reset above
		if c.stopping.Load() {
			return
		}

		n, err := c.conn.Read(buf)
		if n > 0 {
			if c.handleChunk(buf[:n]) {
				return
			}
		}
		if err == nil {
			continue
		}

		var netErr net.Error
		switch {
		case errors.As(err, &netErr) && netErr.Timeout():
			c.logger.Debug("client_idle")
			continue
		case errors.Is(err, io.EOF):
			c.logger.Info("client_disconnected")
		case isExpectedCloseError(err):
		default:
			c.logger.Error("client_read_error", "error", err)
		}
		return
	}
}

// handleChunk processes every frame in one read. It reports whether the
// worker must stop.
func (c *ClientConnection) handleChunk(chunk []byte) bool {
	for _, frame := range protocol.SplitFrames(chunk) {
		if c.stopping.Load() {
			return true
		}

		if c.Limiter != nil && !c.Limiter.Allow() {
			c.logger.Warn("rate_limit_exceeded", "size", len(frame))
			continue
		}

		msg, err := protocol.Decode(frame)
		if err != nil {
			if errors.Is(err, protocol.ErrMissingField) {
				c.logger.Warn("incomplete_message_received", "error", err.Error())
			} else {
				c.logger.Warn("invalid_json_received", "error", err.Error())
			}
			continue
		}
		c.frames.Add(1)

		if msg.IsStopController() {
			c.logger.Info("stop_controller_received")
			return true
		}
		c.dispatcher.Dispatch(msg)
	}
	return false
}

// Stop makes Listen return at its next check and wakes a blocked read.
func (c *ClientConnection) Stop() {
	if !c.stopping.CompareAndSwap(false, true) {
		return
	}
	c.state.CompareAndSwap(int32(ConnRunning), int32(ConnStopping))
	_ = c.conn.SetReadDeadline(time.Now())
}

func (c *ClientConnection) finish() {
	c.stopping.Store(true)
	c.state.Store(int32(ConnStopping))
	if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
		c.logger.Warn("client_close_failed", "error", err)
	}
	c.Manager.RemoveConnection(c)
	c.state.Store(int32(ConnClosed))
	c.logger.Info("client_connection_finished", "frames", c.frames.Load())
	close(c.done)
}

// Done is closed once the worker has released its socket.
func (c *ClientConnection) Done() <-chan struct{} { return c.done }

func (c *ClientConnection) State() ConnState { return ConnState(c.state.Load()) }

func (c *ClientConnection) RemoteAddr() string {
	if addr := c.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

func (c *ClientConnection) Info() ConnectionInfo {
	return ConnectionInfo{
		ID:          c.ID,
		RemoteAddr:  c.RemoteAddr(),
		ConnectedAt: c.connectedAt,
		State:       c.State().String(),
		Frames:      c.frames.Load(),
	}
}

// Check for connection closed errors which are expected during shutdown
// On Windows: "wsarecv: An established connection was aborted by the software in your host machine."
//
//	"wsarecv: An existing connection was forcibly closed by the remote host."
//
// On Linux: "use of closed network connection", "connection reset by peer"
func isExpectedCloseError(err error) bool {
	if errors.Is(err, net.ErrClosed) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "closed network connection") ||
		strings.Contains(msg, "connection reset by peer") ||
		strings.Contains(msg, "connection was aborted") ||
		strings.Contains(msg, "forcibly closed")
}
