package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patgov/audiomon/internal/device"
	apperrors "github.com/patgov/audiomon/internal/errors"
)

func testDevice() device.Device {
	return device.Device{ID: 0, UID: "usb-audio-codec", Name: "USB Audio CODEC", ChannelCount: 2, SampleRate: 48000}
}

func newTestEngine() (*Engine, *device.MockBackend) {
	backend := device.NewMockBackend()
	backend.SetDevices([]device.Device{testDevice()}, "usb-audio-codec")
	return New(backend), backend
}

func TestStartPublishesStreamInfo(t *testing.T) {
	e, backend := newTestEngine()
	e.InstallBufferCallback(func([]float32, int) {})

	info, err := e.Start(testDevice())
	require.NoError(t, err)

	assert.Equal(t, "USB Audio CODEC", info.DeviceName)
	assert.Equal(t, 2, info.Channels)
	assert.Equal(t, 48000.0, info.SampleRate)
	assert.Equal(t, Running, e.State())
	assert.True(t, backend.LastStream().Running())
}

func TestStartZeroChannelsIsTransient(t *testing.T) {
	e, _ := newTestEngine()

	dev := testDevice()
	dev.ChannelCount = 0
	_, err := e.Start(dev)

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeDeviceZeroChannels))
	assert.True(t, apperrors.IsRetryable(err), "zero channels must be retryable, not fatal")
	assert.Equal(t, Stopped, e.State())
}

func TestStartTearsDownPriorStream(t *testing.T) {
	e, backend := newTestEngine()

	_, err := e.Start(testDevice())
	require.NoError(t, err)
	first := backend.LastStream()

	_, err = e.Start(testDevice())
	require.NoError(t, err)

	assert.True(t, first.Closed(), "prior stream must be closed on restart")
	assert.True(t, backend.LastStream().Running())
	assert.Equal(t, 2, backend.OpenCount())
}

func TestStartOpenFailure(t *testing.T) {
	e, backend := newTestEngine()
	backend.SetOpenError(apperrors.New(apperrors.CodeStreamOpenFailed, "device busy"))

	_, err := e.Start(testDevice())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeStreamOpenFailed))
	assert.Equal(t, Stopped, e.State())
	assert.Equal(t, StreamInfo{}, e.Info())
}

func TestConcurrentStartRefused(t *testing.T) {
	// While one Start is in flight a second must be refused, not queued.
	backend := device.NewMockBackend()
	backend.SetDevices([]device.Device{testDevice()}, "usb-audio-codec")
	e := New(backend)

	// Drive the state by hand: mark Starting, then observe the guard.
	e.mu.Lock()
	e.state = Starting
	e.mu.Unlock()

	_, err := e.Start(testDevice())
	assert.True(t, apperrors.IsCode(err, apperrors.CodeAlreadyStarting))
}

func TestConcurrentStartsAtMostOneWins(t *testing.T) {
	e, backend := newTestEngine()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.Start(testDevice())
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, apperrors.IsCode(err, apperrors.CodeAlreadyStarting))
		}
	}
	assert.GreaterOrEqual(t, succeeded, 1)
	assert.Equal(t, Running, e.State())
	assert.True(t, backend.LastStream().Running())
}

func TestStopIdempotent(t *testing.T) {
	e, backend := newTestEngine()

	_, err := e.Start(testDevice())
	require.NoError(t, err)

	e.Stop()
	assert.Equal(t, Stopped, e.State())
	assert.True(t, backend.LastStream().Closed())

	e.Stop() // second stop is a no-op
	assert.Equal(t, Stopped, e.State())
}

func TestReinstallTapReopensStream(t *testing.T) {
	e, backend := newTestEngine()
	e.InstallBufferCallback(func([]float32, int) {})

	_, err := e.Start(testDevice())
	require.NoError(t, err)
	first := backend.LastStream()

	require.NoError(t, e.ReinstallTap())

	assert.True(t, first.Closed())
	assert.True(t, backend.LastStream().Running())
	assert.Equal(t, Running, e.State())
}

func TestReinstallTapRequiresRunning(t *testing.T) {
	e, _ := newTestEngine()
	err := e.ReinstallTap()
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotRunning))
}

func TestBufferCallbackReceivesData(t *testing.T) {
	e, backend := newTestEngine()

	var mu sync.Mutex
	var frames int
	e.InstallBufferCallback(func(samples []float32, channels int) {
		mu.Lock()
		frames += len(samples) / channels
		mu.Unlock()
	})

	_, err := e.Start(testDevice())
	require.NoError(t, err)

	backend.LastStream().Push(make([]float32, 1024))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 512, frames)
}

func TestSmallBufferForWirelessDevices(t *testing.T) {
	bt := device.Device{UID: "airpods-pro", Name: "AirPods Pro", ChannelCount: 1, SampleRate: 24000}
	backend := device.NewMockBackend()
	backend.SetDevices([]device.Device{bt, testDevice()}, "")
	e := New(backend)

	_, err := e.Start(bt)
	require.NoError(t, err)
	assert.Equal(t, SmallFramesPerBuffer, backend.LastFramesPerBuffer())

	_, err = e.Start(testDevice())
	require.NoError(t, err)
	assert.Equal(t, DefaultFramesPerBuffer, backend.LastFramesPerBuffer())
}
