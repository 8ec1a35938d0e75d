//go:build !linux

package device

import (
	"errors"

	"vcontroller/internal/keymap"
)

var errUnsupported = errors.New("uinput devices are only available on linux")

type EvdevSink struct{}

func NewEvdevSink() *EvdevSink { return &EvdevSink{} }

func (EvdevSink) Open(Config, []keymap.KeyCode) (Device, error) {
	return nil, errUnsupported
}
