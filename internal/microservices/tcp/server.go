package tcp

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"vcontroller/internal/logging"
	"vcontroller/internal/protocol"
)

// Dispatcher receives every valid message a client sends, except the
// STOP_CONTROLLER request that ends the sender's own connection.
type Dispatcher interface {
	Dispatch(msg protocol.Message)
}

// DispatchFunc adapts a function to Dispatcher.
type DispatchFunc func(protocol.Message)

func (f DispatchFunc) Dispatch(msg protocol.Message) { f(msg) }

const (
	DefaultMaxPending    = 3
	DefaultAcceptTimeout = time.Second
	DefaultReadTimeout   = 5 * time.Second
)

type ServerConfig struct {
	Addr          string
	MaxPending    int           // listen backlog
	AcceptTimeout time.Duration // bounded wait of the accept loop
	ReadTimeout   time.Duration // bounded wait of each connection worker

	// RateLimit is frames per second per connection; zero disables it.
	RateLimit float64
	RateBurst int

	Logger *slog.Logger
}

func (c *ServerConfig) applyDefaults() {
	if c.MaxPending <= 0 {
		c.MaxPending = DefaultMaxPending
	}
	if c.AcceptTimeout <= 0 {
		c.AcceptTimeout = DefaultAcceptTimeout
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.RateBurst <= 0 {
		c.RateBurst = 1
	}
	c.Logger = logging.OrDefault(c.Logger)
}

type ServerState int32

const (
	StateIdle ServerState = iota
	StateAccepting
	StateShuttingDown
	StateStopped
)

func (s ServerState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateAccepting:
		return "ACCEPTING"
	case StateShuttingDown:
		return "SHUTTING_DOWN"
	case StateStopped:
		return "STOPPED"
	default:
		return fmt.Sprintf("ServerState(%d)", int32(s))
	}
}

// BindError is returned when the listening socket cannot be set up.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("failed to bind %s: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }

var (
	ErrNotListening  = errors.New("server is not listening")
	ErrServerStarted = errors.New("server already serving or closed")
)

type deadlineListener interface {
	net.Listener
	SetDeadline(t time.Time) error
}

// server struct and methods
type TCPServer struct {
	cfg        ServerConfig
	manager    *ConnectionManager
	dispatcher Dispatcher
	logger     *slog.Logger

	mu         sync.Mutex
	listener   deadlineListener
	acceptDone chan struct{} // closed when the accept loop returns

	state     atomic.Int32
	stopping  atomic.Bool
	closeOnce sync.Once
	closeErr  error
	// one per connection worker goroutine
	wg sync.WaitGroup
}

// constructor for Server
func NewServer(cfg ServerConfig, dispatcher Dispatcher) *TCPServer {
	cfg.applyDefaults()
	return &TCPServer{
		cfg:        cfg,
		manager:    NewConnectionManager(cfg.Logger),
		dispatcher: dispatcher,
		logger:     cfg.Logger,
	}
}

// Listen binds the configured address with SO_REUSEADDR and the configured
// backlog.
func (s *TCPServer) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return nil
	}
	if ServerState(s.state.Load()) != StateIdle {
		return ErrServerStarted
	}

	ln, err := listen(s.cfg.Addr, s.cfg.MaxPending)
	if err != nil {
		return &BindError{Addr: s.cfg.Addr, Err: err}
	}
	dl, ok := ln.(deadlineListener)
	if !ok {
		ln.Close()
		return &BindError{Addr: s.cfg.Addr, Err: fmt.Errorf("listener %T has no accept deadline", ln)}
	}
	s.listener = dl
	s.logger.Info("tcp_server_listening",
		"addr", dl.Addr().String(),
		"backlog", s.cfg.MaxPending,
	)
	return nil
}

// Serve runs the accept loop until Stop or Close is called.
func (s *TCPServer) Serve() error {
	s.mu.Lock()
	ln := s.listener
	if ln == nil {
		s.mu.Unlock()
		return ErrNotListening
	}
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateAccepting)) {
		s.mu.Unlock()
		return ErrServerStarted
	}
	done := make(chan struct{})
	s.acceptDone = done
	s.mu.Unlock()

	defer close(done)
	defer s.state.CompareAndSwap(int32(StateAccepting), int32(StateShuttingDown))

	for !s.stopping.Load() {
		// the deadline keeps the loop responsive to stop requests
		if err := ln.SetDeadline(time.Now().Add(s.cfg.AcceptTimeout)); err != nil {
			if s.stopping.Load() {
				break
			}
			return fmt.Errorf("failed to set accept deadline: %w", err)
		}
		if s.stopping.Load() {
			break
		}

		conn, err := ln.Accept()
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if s.stopping.Load() || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Warn("accept_failed", "error", err)
			continue
		}
		if s.stopping.Load() {
			conn.Close()
			break
		}
		s.handleConnection(conn)
	}

	s.logger.Info("tcp_server_accept_loop_stopped")
	return nil
}

// Start binds and serves. It blocks until the server is stopped.
func (s *TCPServer) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// handle connections/lifecycle of single client connection
func (s *TCPServer) handleConnection(conn net.Conn) {
	var limiter *rate.Limiter
	if s.cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.cfg.RateLimit), s.cfg.RateBurst)
	}
	client := NewClientConnection(conn, s.manager, s.dispatcher, ConnectionOptions{
		ReadTimeout: s.cfg.ReadTimeout,
		Limiter:     limiter,
	})
	s.manager.AddConnection(client)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		client.Listen()
	}()
}

// Stop asks the accept loop to exit. Connection workers keep running.
func (s *TCPServer) Stop() {
	if !s.stopping.CompareAndSwap(false, true) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		// wake a blocked Accept
		_ = s.listener.SetDeadline(time.Now())
	}
}

// Close stops accepting, stops and joins every connection worker, then
// releases the listening socket. It is safe to call more than once and from
// any goroutine other than a connection worker.
func (s *TCPServer) Close() error {
	s.closeOnce.Do(func() {
		s.Stop()

		s.mu.Lock()
		done, ln := s.acceptDone, s.listener
		s.mu.Unlock()

		if done != nil {
			<-done
		}
		s.state.Store(int32(StateShuttingDown))

		s.manager.CloseAllConnections()
		s.wg.Wait()

		if ln != nil {
			if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
				s.closeErr = err
			}
		}
		s.state.Store(int32(StateStopped))
		s.logger.Info("tcp_server_stopped")
	})
	return s.closeErr
}

// Addr is the bound address, or nil before Listen.
func (s *TCPServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *TCPServer) State() ServerState {
	return ServerState(s.state.Load())
}

// Manager tracks the live connection workers.
func (s *TCPServer) Manager() *ConnectionManager { return s.manager }
