package device

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/patgov/audiomon/internal/errors"
)

func testDevices() []Device {
	return []Device{
		{ID: 0, UID: "built-in-microphone", Name: "Built-in Microphone", ChannelCount: 1},
		{ID: 1, UID: "usb-audio-codec", Name: "USB Audio CODEC", ChannelCount: 2},
		{ID: 2, UID: "hdmi-out", Name: "HDMI Out", ChannelCount: 0},
	}
}

func TestEnumerateFiltersAndSorts(t *testing.T) {
	backend := NewMockBackend()
	backend.SetDevices(testDevices(), "usb-audio-codec")

	r := NewRegistry(backend)
	devices, err := r.Enumerate()
	require.NoError(t, err)

	// Zero-channel device filtered; default first.
	require.Len(t, devices, 2)
	assert.Equal(t, "usb-audio-codec", devices[0].UID)
	assert.True(t, devices[0].IsDefault)
	assert.Equal(t, "built-in-microphone", devices[1].UID)
}

func TestEnumerateExclusion(t *testing.T) {
	backend := NewMockBackend()
	backend.SetDevices(testDevices(), "")

	r := NewRegistry(backend, WithExcluded([]string{"usb"}))
	devices, err := r.Enumerate()
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "built-in-microphone", devices[0].UID)
}

func TestEnumerateFailureAdvisory(t *testing.T) {
	backend := NewMockBackend()
	backend.SetEnumerateError(apperrors.New(apperrors.CodeHALError, "driver error -50"))

	var advised error
	r := NewRegistry(backend, WithHALErrorHook(func(err error) { advised = err }))

	devices, err := r.Enumerate()
	assert.Error(t, err)
	assert.Empty(t, devices)
	require.Error(t, advised, "HAL error hook should fire")
	assert.True(t, apperrors.IsCode(advised, apperrors.CodeHALError))
}

func TestWatchDetectsHotPlug(t *testing.T) {
	backend := NewMockBackend()
	backend.SetDevices(testDevices()[:1], "built-in-microphone")

	r := NewRegistry(backend, WithPollInterval(10*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Watch(ctx)

	time.Sleep(30 * time.Millisecond)
	backend.SetDevices(testDevices(), "built-in-microphone")

	select {
	case evt := <-r.Events():
		assert.Equal(t, ListChanged, evt.Type)
		assert.Len(t, evt.Devices, 2)
	case <-time.After(2 * time.Second):
		t.Fatal("no ListChanged event after hot-plug")
	}
}

func TestWatchDetectsDefaultChange(t *testing.T) {
	backend := NewMockBackend()
	backend.SetDevices(testDevices(), "built-in-microphone")

	r := NewRegistry(backend, WithPollInterval(10*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Watch(ctx)

	time.Sleep(30 * time.Millisecond)
	backend.SetDevices(testDevices(), "usb-audio-codec")

	deadline := time.After(2 * time.Second)
	for {
		select {
		case evt := <-r.Events():
			if evt.Type == DefaultChanged {
				assert.Equal(t, "usb-audio-codec", evt.Default.UID)
				return
			}
		case <-deadline:
			t.Fatal("no DefaultChanged event")
		}
	}
}

func TestMockStreamLifecycle(t *testing.T) {
	backend := NewMockBackend()
	backend.SetDevices(testDevices(), "")

	var got []float32
	stream, err := backend.OpenStream(testDevices()[0], 48000, 1, 512, func(samples []float32, _ int) {
		got = append(got, samples...)
	})
	require.NoError(t, err)

	require.NoError(t, stream.Start())
	backend.LastStream().Push([]float32{0.1, 0.2})
	require.NoError(t, stream.Stop())
	backend.LastStream().Push([]float32{0.3}) // ignored while stopped

	assert.Equal(t, []float32{0.1, 0.2}, got)
}
