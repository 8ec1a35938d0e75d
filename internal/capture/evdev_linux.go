//go:build linux

package capture

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	evdev "github.com/holoplot/go-evdev"

	"vcontroller/internal/logging"
)

var ErrNoKeyboard = errors.New("no keyboard found under /dev/input")

// FindKeyboard returns the path of the first input device that can type both
// KEY_A and KEY_ENTER.
func FindKeyboard() (string, error) {
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		return "", fmt.Errorf("list input devices: %w", err)
	}
	for _, p := range paths {
		dev, err := evdev.Open(p.Path)
		if err != nil {
			continue
		}
		codes := dev.CapableEvents(evdev.EV_KEY)
		dev.Close()
		if slices.Contains(codes, evdev.KEY_A) && slices.Contains(codes, evdev.KEY_ENTER) {
			return p.Path, nil
		}
	}
	return "", ErrNoKeyboard
}

// EvdevSource reads a Linux keyboard device. The process needs read access
// to the device node.
type EvdevSource struct {
	path   string
	logger *slog.Logger

	dev      *evdev.InputDevice
	events   chan Event
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewEvdevSource reads from path, or from the first keyboard found when path
// is empty.
func NewEvdevSource(path string, logger *slog.Logger) *EvdevSource {
	return &EvdevSource{
		path:   path,
		logger: logging.OrDefault(logger),
		events: make(chan Event, 64),
		stop:   make(chan struct{}),
	}
}

func (s *EvdevSource) Start() error {
	path := s.path
	if path == "" {
		found, err := FindKeyboard()
		if err != nil {
			return err
		}
		path = found
	}

	dev, err := evdev.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	s.dev = dev
	name, _ := dev.Name()
	s.logger.Info("keyboard_opened", "path", path, "name", name)

	s.wg.Add(1)
	go s.run()
	return nil
}

func (s *EvdevSource) run() {
	defer s.wg.Done()
	defer close(s.events)

	var tr Translator
	for {
		ev, err := s.dev.ReadOne()
		if err != nil {
			select {
			case <-s.stop:
			default:
				s.logger.Error("keyboard_read_failed", "error", err)
			}
			return
		}
		if ev.Type != evdev.EV_KEY {
			continue
		}
		out, ok := tr.Translate(ev.Code, ev.Value)
		if !ok {
			continue
		}
		select {
		case s.events <- out:
		case <-s.stop:
			return
		}
	}
}

// Stop closes the device, which unblocks the reader, and waits for it.
func (s *EvdevSource) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.stop)
		if s.dev != nil {
			err = s.dev.Close()
			s.wg.Wait()
		}
	})
	return err
}

func (s *EvdevSource) Events() <-chan Event { return s.events }
