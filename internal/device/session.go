package device

import (
	"fmt"
	"sync"

	"vcontroller/internal/keymap"
)

// Session is the single device handle shared by every connection. Emit calls
// and reloads are serialized so no event is written to a device that is being
// torn down.
type Session struct {
	mu    sync.Mutex
	sink  InputSink
	cfg   Config
	table *keymap.Table
	dev   Device
	open  bool
	gen   uint64
}

func NewSession(sink InputSink, cfg Config, table *keymap.Table) *Session {
	return &Session{sink: sink, cfg: cfg, table: table}
}

// Open creates the device. Opening an open session is a no-op.
func (s *Session) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open {
		return nil
	}
	return s.openLocked()
}

// Close destroys the device. Closing a closed session is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

// Reload destroys and recreates the device under one lock hold. The session
// is left closed when the reopen fails.
func (s *Session) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.closeLocked(); err != nil {
		return err
	}
	return s.openLocked()
}

// Emit writes a key transition on the current device.
func (s *Session) Emit(code keymap.KeyCode, value int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ErrSessionClosed
	}
	if err := s.dev.Emit(code, value); err != nil {
		return fmt.Errorf("failed to emit key %d=%d: %w", code, value, err)
	}
	return nil
}

func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Generation counts successful opens; a reload bumps it by one.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

func (s *Session) Table() *keymap.Table { return s.table }

func (s *Session) Config() Config { return s.cfg }

func (s *Session) openLocked() error {
	dev, err := s.sink.Open(s.cfg, s.table.Codes())
	if err != nil {
		return fmt.Errorf("failed to open device %q: %w", s.cfg.Name, err)
	}
	s.dev = dev
	s.open = true
	s.gen++
	return nil
}

func (s *Session) closeLocked() error {
	if !s.open {
		return nil
	}
	dev := s.dev
	s.dev = nil
	s.open = false
	if err := dev.Destroy(); err != nil {
		return fmt.Errorf("failed to destroy device %q: %w", s.cfg.Name, err)
	}
	return nil
}
