package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"testing"
	"time"

	evdev "github.com/holoplot/go-evdev"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vcontroller/internal/capture"
	"vcontroller/internal/controller"
	"vcontroller/internal/device"
	"vcontroller/internal/device/devicetest"
	"vcontroller/internal/keymap"
	"vcontroller/internal/microservices/tcp"
	"vcontroller/internal/protocol"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type recordingSender struct {
	mu   sync.Mutex
	sent []protocol.Message
	err  error
}

func (s *recordingSender) Send(msg protocol.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func press(k string) protocol.Message   { return protocol.NewEvent(k, protocol.ActionPressed) }
func release(k string) protocol.Message { return protocol.NewEvent(k, protocol.ActionReleased) }

func TestRelayTranslatesEvents(t *testing.T) {
	src := capture.NewReplaySource(capture.Taps("a", "Key.enter", "Key.backspace")...)
	sender := &recordingSender{}

	require.NoError(t, NewRelay(src, sender, quiet).Run(context.Background()))

	assert.Equal(t, []protocol.Message{
		press("a"), release("a"),
		press("Key.enter"), release("Key.enter"),
		press("Key.backspace"), protocol.NewControl(protocol.ActionReloadDevice),
	}, sender.sent)
}

func TestRelayStopsOnSentinels(t *testing.T) {
	tests := []struct {
		key  string
		want protocol.Action
	}{
		{KeyStopController, protocol.ActionStopController},
		{KeyStopServer, protocol.ActionStopServer},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			src := capture.NewReplaySource(capture.Taps(tt.key, "a")...)
			sender := &recordingSender{}

			require.NoError(t, NewRelay(src, sender, quiet).Run(context.Background()))

			require.Len(t, sender.sent, 2, "events after the sentinel are not sent")
			assert.Equal(t, press(tt.key), sender.sent[0])
			assert.Equal(t, protocol.NewControl(tt.want), sender.sent[1])
			assert.Equal(t, protocol.ControlValue, sender.sent[1].Value)
		})
	}
}

func TestRelayLowerCaseTIsOrdinary(t *testing.T) {
	src := capture.NewReplaySource(capture.Taps("t")...)
	sender := &recordingSender{}

	require.NoError(t, NewRelay(src, sender, quiet).Run(context.Background()))
	assert.Equal(t, []protocol.Message{press("t"), release("t")}, sender.sent)
}

func TestRelaySendError(t *testing.T) {
	src := capture.NewReplaySource(capture.Taps("a")...)
	boom := errors.New("broken pipe")

	err := NewRelay(src, &recordingSender{err: boom}, quiet).Run(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestRelayContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := capture.NewReplaySource(capture.Taps("a", "b", "c")...)
	assert.NoError(t, NewRelay(src, &recordingSender{}, quiet).Run(ctx))
}

func TestTCPClientSend(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		data, _ := io.ReadAll(conn)
		received <- data
	}()

	c := NewTCPClient(ln.Addr().String())
	assert.ErrorIs(t, c.Send(press("a")), ErrNotConnected)

	require.NoError(t, c.Connect())
	assert.True(t, c.IsConnected())
	require.NoError(t, c.Send(press("a")))

	var invalid *protocol.EncodingError
	assert.ErrorAs(t, c.Send(protocol.Message{}), &invalid)

	stats := c.GetStats()
	assert.Equal(t, 1, stats.MessagesSent)
	require.NoError(t, c.Disconnect())
	require.NoError(t, c.Disconnect())

	select {
	case data := <-received:
		assert.JSONEq(t, `{"title":"EVENT","value":"a","action":"PRESSED","status":0}`, string(data))
		assert.Equal(t, len(data), stats.BytesSent)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive the frame")
	}
}

func TestTCPClientConnectRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	assert.Error(t, NewTCPClient(addr).Connect())
}

func TestRelayEndToEnd(t *testing.T) {
	table, err := keymap.NewRegistry().Profile(keymap.ProfileJoystick)
	require.NoError(t, err)
	rec := devicetest.NewRecorder()

	var server *tcp.TCPServer
	stopped := make(chan struct{})
	ctrl := controller.New("Player 1", device.NewSession(rec, device.DefaultConfig(), table),
		controller.WithLogger(quiet),
		controller.OnStopServer(func() {
			go func() {
				server.Close()
				close(stopped)
			}()
		}),
	)
	require.NoError(t, ctrl.Start())

	server = tcp.NewServer(tcp.ServerConfig{
		Addr:          "127.0.0.1:0",
		AcceptTimeout: 50 * time.Millisecond,
		ReadTimeout:   100 * time.Millisecond,
		Logger:        quiet,
	}, ctrl)
	require.NoError(t, server.Listen())
	go server.Serve()
	defer server.Close()

	c := NewTCPClient(server.Addr().String())
	require.NoError(t, c.Connect())
	defer c.Disconnect()

	src := capture.NewReplaySource(capture.Taps("a", "Key.esc")...)
	require.NoError(t, NewRelay(src, c, quiet).Run(context.Background()))

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.Equal(t, tcp.StateStopped, server.State())

	em := rec.Emissions()
	require.GreaterOrEqual(t, len(em), 2)
	assert.Equal(t, devicetest.Emission{Code: evdev.KEY_A, Value: 1}, em[0])
	assert.Equal(t, devicetest.Emission{Code: evdev.KEY_A, Value: 0}, em[1])
}
