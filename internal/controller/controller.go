// Package controller turns decoded protocol messages into device actions.
package controller

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"vcontroller/internal/device"
	"vcontroller/internal/logging"
	"vcontroller/internal/protocol"
)

var ErrUnknownKey = errors.New("unknown key")

const (
	keyDown int32 = 1
	keyUp   int32 = 0
)

// Controller is the single dispatcher shared by every connection worker.
// Dispatch may be called from any goroutine.
type Controller struct {
	name         string
	session      *device.Session
	logger       *slog.Logger
	onFatal      func(error)
	onStopServer func()
}

type Option func(*Controller)

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// OnFatal is called when the device cannot be reopened or destroyed, after the
// controller has logged the diagnostic.
func OnFatal(fn func(error)) Option {
	return func(c *Controller) { c.onFatal = fn }
}

// OnStopServer is called when a client asks the whole server to stop. It must
// not block on the connection that delivered the request.
func OnStopServer(fn func()) Option {
	return func(c *Controller) { c.onStopServer = fn }
}

func New(name string, session *device.Session, opts ...Option) *Controller {
	c := &Controller{name: name, session: session}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.OrDefault(c.logger).With("controller", name)
	return c
}

// Start opens the virtual device.
func (c *Controller) Start() error {
	if err := c.session.Open(); err != nil {
		return err
	}
	cfg := c.session.Config()
	c.logger.Info("device_opened",
		"device", cfg.Name,
		"bus", cfg.Bus.String(),
		"profile", c.session.Table().Name(),
		"keys", c.session.Table().Len(),
	)
	return nil
}

// Stop destroys the virtual device.
func (c *Controller) Stop() error {
	if err := c.session.Close(); err != nil {
		c.fatal(err)
		return err
	}
	c.logger.Info("device_closed")
	return nil
}

// Reload closes and reopens the device with the same profile.
func (c *Controller) Reload() error {
	if err := c.session.Reload(); err != nil {
		c.fatal(err)
		return err
	}
	c.logger.Info("device_reloaded", "generation", c.session.Generation())
	return nil
}

// Dispatch applies one message. Invalid, non-OK and unsupported messages are
// logged and dropped; nothing is reported back to the caller.
func (c *Controller) Dispatch(msg protocol.Message) {
	if !msg.IsValid() {
		c.logger.Warn("message_invalid", "message", msg.String())
		return
	}
	if !msg.IsOK() {
		c.logger.Info("message_not_ok", "message", msg.String(), "status", msg.Status.String())
		return
	}

	switch msg.Title {
	case protocol.TitleControl:
		c.dispatchControl(msg)
	case protocol.TitleEvent:
		c.dispatchEvent(msg)
	default:
		c.logger.Warn("unsupported_title", "title", string(msg.Title))
	}
}

func (c *Controller) dispatchControl(msg protocol.Message) {
	switch msg.Action {
	case protocol.ActionReloadDevice:
		c.logger.Info("reload_requested")
		_ = c.Reload()
	case protocol.ActionStopServer:
		c.logger.Info("stop_server_requested")
		if c.onStopServer != nil {
			c.onStopServer()
		}
	default:
		c.logger.Warn("unsupported_control_action", "action", string(msg.Action))
	}
}

func (c *Controller) dispatchEvent(msg protocol.Message) {
	key := strings.ToUpper(msg.Value)

	var value int32
	switch msg.Action {
	case protocol.ActionPressed:
		value = keyDown
	case protocol.ActionReleased:
		value = keyUp
	default:
		c.logger.Warn("unsupported_event_action", "key", key, "action", string(msg.Action))
		return
	}

	if err := c.emit(key, value); err != nil {
		if errors.Is(err, ErrUnknownKey) {
			c.logger.Warn("unknown_key", "key", key)
			return
		}
		c.logger.Error("emit_failed", "key", key, "error", err)
		return
	}
	c.logger.Debug("key_event", "key", key, "action", string(msg.Action))
}

// Click presses and releases a key.
func (c *Controller) Click(name string) error {
	key := strings.ToUpper(name)
	if err := c.emit(key, keyDown); err != nil {
		return err
	}
	return c.emit(key, keyUp)
}

func (c *Controller) emit(key string, value int32) error {
	code, ok := c.session.Table().Lookup(key)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return c.session.Emit(code, value)
}

// ListKeys returns the logical key names of the active profile.
func (c *Controller) ListKeys() []string {
	return c.session.Table().ListKeys()
}

func (c *Controller) Name() string { return c.name }

// Status is a point-in-time view of the controller.
type Status struct {
	Name       string `json:"name"`
	Profile    string `json:"profile"`
	Device     string `json:"device"`
	Open       bool   `json:"open"`
	Generation uint64 `json:"generation"`
}

func (c *Controller) Status() Status {
	return Status{
		Name:       c.name,
		Profile:    c.session.Table().Name(),
		Device:     c.session.Config().Name,
		Open:       c.session.IsOpen(),
		Generation: c.session.Generation(),
	}
}

func (c *Controller) fatal(err error) {
	logging.Fatal(c.logger, "device", err)
	if c.onFatal != nil {
		c.onFatal(err)
	}
}
