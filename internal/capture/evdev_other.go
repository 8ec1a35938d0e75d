//go:build !linux

package capture

import (
	"errors"
	"log/slog"
)

var ErrNoKeyboard = errors.New("keyboard capture is only supported on linux")

func FindKeyboard() (string, error) { return "", ErrNoKeyboard }

type EvdevSource struct{}

func NewEvdevSource(string, *slog.Logger) *EvdevSource { return &EvdevSource{} }

func (*EvdevSource) Start() error { return ErrNoKeyboard }

func (*EvdevSource) Stop() error { return nil }

func (*EvdevSource) Events() <-chan Event { return nil }
