package client

import (
	"context"
	"log/slog"

	"vcontroller/internal/capture"
	"vcontroller/internal/logging"
	"vcontroller/internal/protocol"
)

// Sentinel keys, acted on when released. Their press is still relayed.
const (
	KeyReloadDevice   = "Key.backspace"
	KeyStopController = "T"
	KeyStopServer     = "Key.esc"
)

// Sender is what the relay writes messages to.
type Sender interface {
	Send(msg protocol.Message) error
}

type Relay struct {
	source capture.Source
	sender Sender
	logger *slog.Logger
}

func NewRelay(source capture.Source, sender Sender, logger *slog.Logger) *Relay {
	return &Relay{source: source, sender: sender, logger: logging.OrDefault(logger)}
}

// Run forwards events until the source ends, ctx is done, a stop sentinel is
// released, or a send fails. The source is started and stopped by Run.
func (r *Relay) Run(ctx context.Context) error {
	if err := r.source.Start(); err != nil {
		return err
	}
	defer r.source.Stop()

	events := r.source.Events()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				r.logger.Info("key_source_closed")
				return nil
			}
			msg, last := r.translate(ev)
			r.logger.Info("sending_message", "message", msg.String())
			if err := r.sender.Send(msg); err != nil {
				return err
			}
			if last {
				return nil
			}
		}
	}
}

// translate maps an event to the message to send and reports whether it ends
// the relay.
func (r *Relay) translate(ev capture.Event) (protocol.Message, bool) {
	if ev.Edge == capture.Pressed {
		return protocol.NewEvent(ev.Key, protocol.ActionPressed), false
	}

	switch ev.Key {
	case KeyReloadDevice:
		r.logger.Info("requesting_device_reload")
		return protocol.NewControl(protocol.ActionReloadDevice), false
	case KeyStopController:
		r.logger.Info("requesting_connection_stop")
		return protocol.NewControl(protocol.ActionStopController), true
	case KeyStopServer:
		r.logger.Info("requesting_server_stop")
		return protocol.NewControl(protocol.ActionStopServer), true
	default:
		return protocol.NewEvent(ev.Key, protocol.ActionReleased), false
	}
}
