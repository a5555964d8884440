package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patgov/audiomon/internal/device"
	apperrors "github.com/patgov/audiomon/internal/errors"
	"github.com/patgov/audiomon/internal/resilience"
	"github.com/patgov/audiomon/internal/sched"
	"github.com/patgov/audiomon/internal/watchdog"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func testDevice(id int, name string, channels int) device.Device {
	return device.Device{
		ID:           id,
		UID:          device.MakeUID(name),
		Name:         name,
		ChannelCount: channels,
		SampleRate:   44100,
	}
}

func testParams() Params {
	p := DefaultParams()
	p.RetargetDebounce = 10 * time.Millisecond
	p.FollowUpDelay = 30 * time.Millisecond
	p.RecoveryDelay = 5 * time.Millisecond
	p.BluetoothAdoptDelay = 20 * time.Millisecond
	p.AdoptConfirmTimeout = 200 * time.Millisecond
	p.AdoptRecheck = 10 * time.Millisecond
	p.SilenceFallbackAfter = 50 * time.Millisecond
	p.MaxStartAttempts = 3
	return p
}

// quietWatchdogParams keeps the detectors out of lifecycle tests that feed
// long silence on purpose.
func quietWatchdogParams() watchdog.Params {
	p := watchdog.DefaultParams()
	p.WarmupFrames = 1 << 20
	p.FlatMinRun = 1 << 20
	p.DeadSilenceMinRun = 1 << 20
	return p
}

func fastRetryConfig() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxRetries: 3,
		BaseDelay:  2 * time.Millisecond,
		MaxDelay:   10 * time.Millisecond,
	}
}

func startCoordinator(t *testing.T, mock *device.MockBackend, opts ...Option) *Coordinator {
	t.Helper()
	base := []Option{
		WithParams(testParams()),
		WithRetryConfig(fastRetryConfig()),
		WithRegistryOptions(device.WithPollInterval(15 * time.Millisecond)),
	}
	c := New(mock, append(base, opts...)...)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return c
}

func TestSelectionIdempotence(t *testing.T) {
	mock := device.NewMockBackend()
	builtin := testDevice(1, "MacBook Pro Microphone", 1)
	usb := testDevice(2, "USB Audio Interface", 2)
	mock.SetDevices([]device.Device{builtin, usb}, builtin.UID)

	c := startCoordinator(t, mock)

	c.SelectDevice(usb)
	c.SelectDevice(usb)

	require.Eventually(t, func() bool {
		return c.Status().Running
	}, waitFor, tick)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, mock.OpenCount(), "identical re-selection must not retarget twice")
	assert.Equal(t, usb.UID, c.Status().SelectedUID)
	assert.True(t, c.Status().UserPinned)
}

func TestRapidSelectionsCoalesce(t *testing.T) {
	mock := device.NewMockBackend()
	builtin := testDevice(1, "MacBook Pro Microphone", 1)
	usb := testDevice(2, "USB Audio Interface", 2)
	mock.SetDevices([]device.Device{builtin, usb}, builtin.UID)

	c := startCoordinator(t, mock)

	// Picker scrolling: two distinct selections inside the debounce
	// window collapse into one restart targeting the last one.
	c.SelectDevice(builtin)
	c.SelectDevice(usb)

	require.Eventually(t, func() bool {
		return c.Status().Running
	}, waitFor, tick)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, mock.OpenCount())
	assert.Equal(t, usb.UID, c.Status().Stream.DeviceUID)
}

func TestStartAdoptsSystemDefault(t *testing.T) {
	mock := device.NewMockBackend()
	builtin := testDevice(1, "MacBook Pro Microphone", 1)
	usb := testDevice(2, "USB Audio Interface", 2)
	mock.SetDevices([]device.Device{builtin, usb}, builtin.UID)

	c := startCoordinator(t, mock)
	c.Start()

	require.Eventually(t, func() bool {
		st := c.Status()
		return st.Running && st.SelectedUID == builtin.UID
	}, waitFor, tick)
	assert.False(t, c.Status().UserPinned, "default adoption is not a user pin")
}

func TestLastSelectedUIDRestored(t *testing.T) {
	mock := device.NewMockBackend()
	builtin := testDevice(1, "MacBook Pro Microphone", 1)
	usb := testDevice(2, "USB Audio Interface", 2)
	mock.SetDevices([]device.Device{builtin, usb}, builtin.UID)

	c := startCoordinator(t, mock, WithLastSelectedUID(usb.UID))

	require.Eventually(t, func() bool {
		st := c.Status()
		return st.Running && st.SelectedUID == usb.UID
	}, waitFor, tick)
	assert.True(t, c.Status().UserPinned)
}

func TestRetryCeilingTerminates(t *testing.T) {
	mock := device.NewMockBackend()
	usb := testDevice(2, "USB Audio Interface", 2)
	mock.SetDevices([]device.Device{usb}, usb.UID)
	mock.FailNextOpens(100, apperrors.New(apperrors.CodeStreamOpenFailed, "scripted open failure"))

	c := startCoordinator(t, mock)
	c.SelectDevice(usb)

	require.Eventually(t, func() bool {
		return c.Status().Phase == PhaseDown.String()
	}, waitFor, tick)

	st := c.Status()
	assert.NotEmpty(t, st.LastError)
	assert.False(t, st.Running)
	w, ok := c.Warnings.Latest()
	require.True(t, ok)
	assert.NotEmpty(t, w.Text)

	// No further attempts after the ceiling.
	attempts := mock.OpenCount()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, attempts, mock.OpenCount(), "retries must stop at the ceiling")

	// Re-selecting the device resets the counter and tries again.
	mock.SetOpenError(nil)
	c.SelectDevice(usb)
	require.Eventually(t, func() bool {
		return c.Status().Running
	}, waitFor, tick)
}

func TestPermissionDeniedFailsFast(t *testing.T) {
	mock := device.NewMockBackend()
	usb := testDevice(2, "USB Audio Interface", 2)
	mock.SetDevices([]device.Device{usb}, usb.UID)
	mock.SetOpenError(apperrors.New(apperrors.CodePermissionDenied, "microphone access denied"))

	c := startCoordinator(t, mock)
	c.SelectDevice(usb)

	require.Eventually(t, func() bool {
		return c.Status().Phase == PhaseDown.String()
	}, waitFor, tick)

	// Denied access is fatal for now: one attempt, no retry schedule.
	assert.Equal(t, 1, mock.OpenCount())
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, mock.OpenCount(), "permission denial must not be retried")
	assert.False(t, c.sched.Pending(sched.PurposeStartRetry))

	w, ok := c.Warnings.Latest()
	require.True(t, ok)
	assert.Contains(t, w.Text, "unavailable")

	// Once access is granted, re-selecting tries again.
	mock.SetOpenError(nil)
	c.SelectDevice(usb)
	require.Eventually(t, func() bool {
		return c.Status().Running
	}, waitFor, tick)
}

func TestFallbackFromSilentWirelessDevice(t *testing.T) {
	mock := device.NewMockBackend()
	airpods := testDevice(1, "AirPods Pro", 1)
	usb := testDevice(2, "USB Audio Interface", 2)
	mock.SetDevices([]device.Device{airpods, usb}, airpods.UID)

	c := startCoordinator(t, mock, WithWatchdogParams(quietWatchdogParams()))
	c.SelectDevice(airpods)

	require.Eventually(t, func() bool {
		return c.Status().Running
	}, waitFor, tick)

	// Digital silence past the fallback window.
	silence := make([]float32, 256)
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if c.Status().SelectedUID == usb.UID {
			break
		}
		if s := mock.LastStream(); s != nil {
			s.Push(silence)
		}
		time.Sleep(2 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		st := c.Status()
		return st.Running && st.SelectedUID == usb.UID
	}, waitFor, tick)
	assert.True(t, c.Status().UserPinned, "fallback counts as a user pin")

	w, ok := c.Warnings.Latest()
	require.True(t, ok)
	assert.Contains(t, w.Text, "AirPods Pro")
}

func TestSelectedDeviceDisappears(t *testing.T) {
	mock := device.NewMockBackend()
	builtin := testDevice(1, "MacBook Pro Microphone", 1)
	usb := testDevice(2, "USB Audio Interface", 2)
	mock.SetDevices([]device.Device{builtin, usb}, builtin.UID)

	c := startCoordinator(t, mock)
	c.SelectDevice(usb)
	require.Eventually(t, func() bool {
		return c.Status().Running && c.Status().SelectedUID == usb.UID
	}, waitFor, tick)

	// Unplug the USB interface; the coordinator falls back to the
	// system default.
	mock.SetDevices([]device.Device{builtin}, builtin.UID)

	require.Eventually(t, func() bool {
		st := c.Status()
		return st.Running && st.SelectedUID == builtin.UID
	}, waitFor, tick)
	assert.False(t, c.Status().UserPinned)

	w, ok := c.Warnings.Latest()
	require.True(t, ok)
	assert.Contains(t, w.Text, "USB Audio Interface")
}

func TestStopTearsDownAndCancels(t *testing.T) {
	mock := device.NewMockBackend()
	usb := testDevice(2, "USB Audio Interface", 2)
	mock.SetDevices([]device.Device{usb}, usb.UID)

	c := startCoordinator(t, mock)
	c.SelectDevice(usb)
	require.Eventually(t, func() bool {
		return c.Status().Running
	}, waitFor, tick)

	c.Stop()
	require.Eventually(t, func() bool {
		return c.Status().Phase == PhaseDown.String()
	}, waitFor, tick)
	require.True(t, mock.LastStream().Closed())

	// Start resumes on the same selection.
	c.Start()
	require.Eventually(t, func() bool {
		return c.Status().Running && c.Status().SelectedUID == usb.UID
	}, waitFor, tick)
}

// The remaining tests drive handlers synchronously, without the loop
// goroutine, where deterministic interleaving matters.

func TestResetAtomicityOnSelection(t *testing.T) {
	mock := device.NewMockBackend()
	builtin := testDevice(1, "MacBook Pro Microphone", 1)
	usb := testDevice(2, "USB Audio Interface", 2)
	mock.SetDevices([]device.Device{builtin, usb}, builtin.UID)

	c := New(mock, WithParams(testParams()))
	c.resetCaptureState(builtin, time.Now())

	loud := make([]float32, 256)
	for i := range loud {
		loud[i] = 0.5
	}
	for i := 0; i < 50; i++ {
		c.onBuffer(loud, 1)
	}
	require.NotZero(t, c.classifier.Snapshot().FramesSinceStart)
	require.NotZero(t, c.watchdog.Snapshot().FramesObserved)

	c.applySelection(usb, true)

	cs := c.classifier.Snapshot()
	ws := c.watchdog.Snapshot()
	assert.Zero(t, cs.FramesSinceStart)
	assert.Zero(t, cs.NoiseFloorSamples)
	assert.Zero(t, cs.TalkFrames)
	assert.Zero(t, ws.FramesObserved)
	assert.Zero(t, ws.SilentRun)
	assert.Zero(t, ws.FlatRun)

	st := c.Status()
	assert.Zero(t, st.ClipLeft)
	assert.Zero(t, st.ClipRight)
}

func TestDefaultChangeIgnoredWhenUserPinned(t *testing.T) {
	mock := device.NewMockBackend()
	builtin := testDevice(1, "MacBook Pro Microphone", 1)
	usb := testDevice(2, "USB Audio Interface", 2)

	c := New(mock, WithParams(testParams()))
	c.devices = []device.Device{builtin, usb}
	c.applySelection(usb, true)

	c.handleDefaultChanged(builtin)
	assert.Equal(t, usb.UID, c.selected.UID, "user pin must win over default change")
}

func TestDefaultChangeIgnoredWhenPinnedToApp(t *testing.T) {
	mock := device.NewMockBackend()
	builtin := testDevice(1, "MacBook Pro Microphone", 1)
	usb := testDevice(2, "USB Audio Interface", 2)

	c := New(mock, WithParams(testParams()), WithPinSystemDefault(true))
	c.devices = []device.Device{builtin, usb}
	c.applySelection(usb, false)

	c.handleDefaultChanged(builtin)
	assert.Equal(t, usb.UID, c.selected.UID)
}

func TestDefaultChangeAdoptedWhenUnpinned(t *testing.T) {
	mock := device.NewMockBackend()
	builtin := testDevice(1, "MacBook Pro Microphone", 1)
	usb := testDevice(2, "USB Audio Interface", 2)

	c := New(mock, WithParams(testParams()))
	c.devices = []device.Device{builtin, usb}
	c.applySelection(builtin, false)

	c.handleDefaultChanged(usb)
	assert.Equal(t, usb.UID, c.selected.UID)
	assert.False(t, c.userPinned)
}

func TestBluetoothDefaultAdoptionDeferred(t *testing.T) {
	mock := device.NewMockBackend()
	builtin := testDevice(1, "MacBook Pro Microphone", 1)
	airpods := testDevice(3, "AirPods Pro", 1)

	c := New(mock, WithParams(testParams()))
	c.devices = []device.Device{builtin, airpods}
	c.applySelection(builtin, false)
	c.sched.CancelAll()

	c.handleDefaultChanged(airpods)

	// Pending adoption published immediately, engine not retargeted yet.
	sel, ok := c.Selected.Latest()
	require.True(t, ok)
	assert.Equal(t, airpods.UID, sel.UID)
	assert.Equal(t, builtin.UID, c.selected.UID)
	require.True(t, c.pendingConfirmed, "device present in list confirms adoption")

	c.handleTimer(sched.PurposeAdoptDefault)
	assert.Equal(t, airpods.UID, c.selected.UID)
	assert.False(t, c.userPinned)
}

func TestBluetoothAdoptionAbandonedWhenNeverEnumerated(t *testing.T) {
	mock := device.NewMockBackend()
	builtin := testDevice(1, "MacBook Pro Microphone", 1)
	ghost := testDevice(4, "AirPods Max", 1)

	c := New(mock, WithParams(testParams()))
	c.devices = []device.Device{builtin}
	c.applySelection(builtin, false)
	c.sched.CancelAll()

	c.handleDefaultChanged(ghost)
	require.False(t, c.pendingConfirmed)

	// Confirm window expires without the device ever enumerating.
	c.pendingSince = time.Now().Add(-time.Hour)
	c.handleTimer(sched.PurposeAdoptDefault)

	assert.True(t, c.pending.IsNone())
	assert.Equal(t, builtin.UID, c.selected.UID)
	sel, ok := c.Selected.Latest()
	require.True(t, ok)
	assert.Equal(t, builtin.UID, sel.UID, "abandoned adoption republishes the real selection")
}

func TestFallbackCandidatePrefersWired(t *testing.T) {
	mock := device.NewMockBackend()
	airpods := testDevice(1, "AirPods Pro", 1)
	display := testDevice(2, "Studio Display Microphone", 1)
	usb := testDevice(3, "USB Audio Interface", 2)

	c := New(mock, WithParams(testParams()))
	c.devices = []device.Device{airpods, display, usb}
	c.selected = airpods

	got, ok := c.fallbackCandidate()
	require.True(t, ok)
	assert.Equal(t, usb.UID, got.UID)

	// With only fragile candidates left, any other device beats none.
	c.devices = []device.Device{airpods, display}
	got, ok = c.fallbackCandidate()
	require.True(t, ok)
	assert.Equal(t, display.UID, got.UID)

	c.devices = []device.Device{airpods}
	_, ok = c.fallbackCandidate()
	assert.False(t, ok)
}

func TestHALBackoffSuppressesStart(t *testing.T) {
	mock := device.NewMockBackend()
	usb := testDevice(2, "USB Audio Interface", 2)
	mock.SetDevices([]device.Device{usb}, usb.UID)

	c := New(mock, WithParams(testParams()), WithRetryConfig(fastRetryConfig()))
	c.devices = []device.Device{usb}
	c.applySelection(usb, true)
	c.sched.CancelAll()

	c.hal.Failure() // arms the backoff window
	c.startEngine()

	assert.Equal(t, 0, mock.OpenCount(), "start must be suppressed inside the backoff window")
	assert.True(t, c.sched.Pending(sched.PurposeStartRetry))
}

func TestWatchdogGraceCoversFallbackWindow(t *testing.T) {
	mock := device.NewMockBackend()

	// A configured grace shorter than the fallback window would let the
	// low-signal warning fire on a dark wireless device before the
	// fallback decision runs. Construction raises it past the window.
	p := DefaultParams()
	p.SilenceFallbackAfter = 8 * time.Second
	wd := watchdog.DefaultParams()
	wd.BluetoothGrace = time.Second

	c := New(mock, WithParams(p), WithWatchdogParams(wd))
	assert.Greater(t, c.wdParams.BluetoothGrace, p.SilenceFallbackAfter)

	c = New(mock)
	assert.Greater(t, c.wdParams.BluetoothGrace, c.params.SilenceFallbackAfter,
		"defaults must keep the grace past the fallback window")
}
