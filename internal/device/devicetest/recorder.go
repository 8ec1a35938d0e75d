// Package devicetest provides an in-memory InputSink for tests.
package devicetest

import (
	"errors"
	"sync"

	"vcontroller/internal/device"
	"vcontroller/internal/keymap"
)

var ErrInjected = errors.New("injected failure")

// Emission is one key transition written to a recorded device.
type Emission struct {
	Device int // index of the device in Recorder.Opened order
	Code   keymap.KeyCode
	Value  int32
}

// Recorder is a device.InputSink that records every open, emit and destroy.
type Recorder struct {
	mu        sync.Mutex
	opened    []device.Config
	codes     [][]keymap.KeyCode
	emissions []Emission
	destroyed []int

	// FailOpenAfter makes Open fail once that many devices exist. Zero
	// disables it.
	FailOpenAfter int
	FailDestroy   bool
	FailEmit      bool
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Open(cfg device.Config, codes []keymap.KeyCode) (device.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailOpenAfter > 0 && len(r.opened) >= r.FailOpenAfter {
		return nil, ErrInjected
	}
	r.opened = append(r.opened, cfg)
	r.codes = append(r.codes, append([]keymap.KeyCode(nil), codes...))
	return &recordedDevice{rec: r, idx: len(r.opened) - 1}, nil
}

// Opened returns how many devices were created.
func (r *Recorder) Opened() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.opened)
}

// Config returns the config passed to the i-th Open.
func (r *Recorder) Config(i int) device.Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opened[i]
}

// Codes returns the capabilities advertised by the i-th device.
func (r *Recorder) Codes(i int) []keymap.KeyCode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.codes[i]
}

func (r *Recorder) Emissions() []Emission {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Emission(nil), r.emissions...)
}

func (r *Recorder) Destroyed() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.destroyed...)
}

type recordedDevice struct {
	rec *Recorder
	idx int
}

func (d *recordedDevice) Emit(code keymap.KeyCode, value int32) error {
	d.rec.mu.Lock()
	defer d.rec.mu.Unlock()
	if d.rec.FailEmit {
		return ErrInjected
	}
	d.rec.emissions = append(d.rec.emissions, Emission{Device: d.idx, Code: code, Value: value})
	return nil
}

func (d *recordedDevice) Destroy() error {
	d.rec.mu.Lock()
	defer d.rec.mu.Unlock()
	if d.rec.FailDestroy {
		return ErrInjected
	}
	d.rec.destroyed = append(d.rec.destroyed, d.idx)
	return nil
}
