//go:build linux

package device

import (
	"fmt"

	evdev "github.com/holoplot/go-evdev"

	"vcontroller/internal/keymap"
)

var synReport = evdev.InputEvent{
	Type:  evdev.EV_SYN,
	Code:  evdev.SYN_REPORT,
	Value: 0,
}

// EvdevSink creates uinput devices. It needs write access to /dev/uinput.
type EvdevSink struct{}

func NewEvdevSink() *EvdevSink { return &EvdevSink{} }

func (EvdevSink) Open(cfg Config, codes []keymap.KeyCode) (Device, error) {
	id := evdev.InputID{
		BusType: uint16(cfg.Bus),
		Vendor:  cfg.Vendor,
		Product: cfg.Product,
		Version: cfg.Version,
	}
	caps := map[evdev.EvType][]evdev.EvCode{
		evdev.EV_KEY: codes,
	}
	dev, err := evdev.CreateDevice(cfg.Name, id, caps)
	if err != nil {
		return nil, fmt.Errorf("uinput: %w", err)
	}
	return &evdevDevice{dev: dev}, nil
}

type evdevDevice struct {
	dev *evdev.InputDevice
}

func (d *evdevDevice) Emit(code keymap.KeyCode, value int32) error {
	if err := d.dev.WriteOne(&evdev.InputEvent{Type: evdev.EV_KEY, Code: code, Value: value}); err != nil {
		return err
	}
	return d.dev.WriteOne(&synReport)
}

func (d *evdevDevice) Destroy() error {
	return d.dev.Close()
}
