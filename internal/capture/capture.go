// Package capture observes local key presses and releases.
package capture

import (
	"fmt"
	"sync"
)

type Edge int

const (
	Pressed Edge = iota
	Released
)

func (e Edge) String() string {
	switch e {
	case Pressed:
		return "PRESSED"
	case Released:
		return "RELEASED"
	default:
		return fmt.Sprintf("Edge(%d)", int(e))
	}
}

// Event is one key transition. Key is the printable character for ordinary
// keys and "Key.<name>" for special keys.
type Event struct {
	Key     string
	Special bool
	Edge    Edge
}

// Source produces key events until stopped. Events is closed when the source
// ends.
type Source interface {
	Start() error
	Stop() error
	Events() <-chan Event
}

// ReplaySource emits a fixed sequence of events, then closes its channel.
type ReplaySource struct {
	events []Event
	ch     chan Event
	stop   chan struct{}
	once   sync.Once
}

func NewReplaySource(events ...Event) *ReplaySource {
	return &ReplaySource{
		events: events,
		ch:     make(chan Event),
		stop:   make(chan struct{}),
	}
}

// Taps builds a press then release pair for each key name.
func Taps(keys ...string) []Event {
	out := make([]Event, 0, 2*len(keys))
	for _, k := range keys {
		special := len(k) > 4 && k[:4] == "Key."
		out = append(out,
			Event{Key: k, Special: special, Edge: Pressed},
			Event{Key: k, Special: special, Edge: Released},
		)
	}
	return out
}

func (s *ReplaySource) Start() error {
	go func() {
		defer close(s.ch)
		for _, ev := range s.events {
			select {
			case s.ch <- ev:
			case <-s.stop:
				return
			}
		}
	}()
	return nil
}

func (s *ReplaySource) Stop() error {
	s.once.Do(func() { close(s.stop) })
	return nil
}

func (s *ReplaySource) Events() <-chan Event { return s.ch }
