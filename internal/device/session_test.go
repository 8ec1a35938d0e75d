package device_test

import (
	"sync"
	"testing"

	evdev "github.com/holoplot/go-evdev"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vcontroller/internal/device"
	"vcontroller/internal/device/devicetest"
	"vcontroller/internal/keymap"
)

func newTestSession(t *testing.T) (*device.Session, *devicetest.Recorder) {
	t.Helper()
	rec := devicetest.NewRecorder()
	table := keymap.NewTable("t", map[string]keymap.KeyCode{
		"a": evdev.KEY_A,
		"b": evdev.KEY_B,
	})
	return device.NewSession(rec, device.DefaultConfig(), table), rec
}

func TestSessionOpenAdvertisesTableCodes(t *testing.T) {
	s, rec := newTestSession(t)

	require.NoError(t, s.Open())
	require.NoError(t, s.Open(), "second open is a no-op")

	assert.True(t, s.IsOpen())
	assert.Equal(t, 1, rec.Opened())
	assert.Equal(t, []keymap.KeyCode{evdev.KEY_A, evdev.KEY_B}, rec.Codes(0))

	cfg := rec.Config(0)
	assert.Equal(t, "virtual_controller", cfg.Name)
	assert.Equal(t, device.BusUSB, cfg.Bus)
	assert.Equal(t, uint16(1), cfg.Version)
}

func TestSessionEmitRequiresOpen(t *testing.T) {
	s, rec := newTestSession(t)

	err := s.Emit(evdev.KEY_A, 1)
	require.ErrorIs(t, err, device.ErrSessionClosed)
	assert.Empty(t, rec.Emissions())

	require.NoError(t, s.Open())
	require.NoError(t, s.Emit(evdev.KEY_A, 1))
	require.NoError(t, s.Emit(evdev.KEY_A, 0))

	assert.Equal(t, []devicetest.Emission{
		{Device: 0, Code: evdev.KEY_A, Value: 1},
		{Device: 0, Code: evdev.KEY_A, Value: 0},
	}, rec.Emissions())

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Emit(evdev.KEY_A, 1), device.ErrSessionClosed)
	assert.Equal(t, []int{0}, rec.Destroyed())
}

func TestSessionReloadSwapsDevice(t *testing.T) {
	s, rec := newTestSession(t)
	require.NoError(t, s.Open())
	require.NoError(t, s.Emit(evdev.KEY_A, 1))

	require.NoError(t, s.Reload())
	require.NoError(t, s.Emit(evdev.KEY_B, 1))

	assert.Equal(t, 2, rec.Opened())
	assert.Equal(t, uint64(2), s.Generation())
	assert.Equal(t, []int{0}, rec.Destroyed())

	emissions := rec.Emissions()
	require.Len(t, emissions, 2)
	assert.Equal(t, 0, emissions[0].Device)
	assert.Equal(t, 1, emissions[1].Device)
}

func TestSessionReloadFailureLeavesSessionClosed(t *testing.T) {
	s, rec := newTestSession(t)
	rec.FailOpenAfter = 1
	require.NoError(t, s.Open())

	err := s.Reload()
	require.ErrorIs(t, err, devicetest.ErrInjected)
	assert.False(t, s.IsOpen())
	assert.ErrorIs(t, s.Emit(evdev.KEY_A, 1), device.ErrSessionClosed)
}

func TestSessionEmitDuringReload(t *testing.T) {
	s, rec := newTestSession(t)
	require.NoError(t, s.Open())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = s.Emit(evdev.KEY_A, 1)
			}
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Reload())
		}()
	}
	wg.Wait()

	destroyed := make(map[int]bool)
	for _, idx := range rec.Destroyed() {
		destroyed[idx] = true
	}
	last := rec.Opened() - 1
	assert.False(t, destroyed[last])
	assert.Len(t, rec.Emissions(), 8*50)
}

func TestParseBusType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    device.BusType
		wantErr bool
	}{
		{"usb", device.BusUSB, false},
		{"USB", device.BusUSB, false},
		{" bluetooth ", device.BusBluetooth, false},
		{"virtual", device.BusVirtual, false},
		{"pci", device.BusPCI, false},
		{"isapnp", device.BusISAPnP, false},
		{"hil", device.BusHIL, false},
		{"serial", 0, true},
	}
	for _, tt := range tests {
		got, err := device.ParseBusType(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.want, mustParse(t, got.String()))
	}
}

func mustParse(t *testing.T, s string) device.BusType {
	t.Helper()
	b, err := device.ParseBusType(s)
	require.NoError(t, err)
	return b
}
