// Package device owns the virtual input device that replays key events.
package device

import (
	"errors"
	"fmt"
	"strings"

	"vcontroller/internal/keymap"
)

var ErrSessionClosed = errors.New("device session is closed")

// BusType is the bus a virtual device reports to the kernel.
type BusType uint16

const (
	BusPCI       BusType = 0x01
	BusISAPnP    BusType = 0x02
	BusUSB       BusType = 0x03
	BusHIL       BusType = 0x04
	BusBluetooth BusType = 0x05
	BusVirtual   BusType = 0x06
)

var busNames = map[string]BusType{
	"pci":       BusPCI,
	"isapnp":    BusISAPnP,
	"usb":       BusUSB,
	"hil":       BusHIL,
	"bluetooth": BusBluetooth,
	"virtual":   BusVirtual,
}

// ParseBusType accepts the lower-case bus names used in configuration.
func ParseBusType(s string) (BusType, error) {
	b, ok := busNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("unknown bus type %q", s)
	}
	return b, nil
}

func (b BusType) String() string {
	for name, v := range busNames {
		if v == b {
			return name
		}
	}
	return fmt.Sprintf("bus(%d)", uint16(b))
}

// Config identifies the virtual device.
type Config struct {
	Name    string
	Bus     BusType
	Vendor  uint16
	Product uint16
	Version uint16
}

// DefaultConfig matches what the relay has always advertised.
func DefaultConfig() Config {
	return Config{
		Name:    "virtual_controller",
		Bus:     BusUSB,
		Vendor:  0,
		Product: 0,
		Version: 1,
	}
}

// Device is an open virtual input device.
type Device interface {
	// Emit writes one key transition (1 down, 0 up) followed by a sync report.
	Emit(code keymap.KeyCode, value int32) error
	Destroy() error
}

// InputSink creates devices that advertise the given key codes.
type InputSink interface {
	Open(cfg Config, codes []keymap.KeyCode) (Device, error)
}
