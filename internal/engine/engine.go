// Package engine owns the live hardware capture stream
package engine

import (
	"log/slog"
	"sync"

	"github.com/patgov/audiomon/internal/device"
	apperrors "github.com/patgov/audiomon/internal/errors"
)

// State is the engine lifecycle state.
type State int

const (
	Stopped State = iota
	Starting
	Running
)

func (s State) String() string {
	return [...]string{"stopped", "starting", "running"}[s]
}

// StreamInfo describes the negotiated open stream.
type StreamInfo struct {
	DeviceName string  `json:"deviceName"`
	DeviceUID  string  `json:"deviceUid"`
	Channels   int     `json:"channels"`
	SampleRate float64 `json:"sampleRate"`
}

// Engine opens and closes the one active capture stream. It performs no
// retries itself: failures surface as typed errors and the coordinator
// decides on backoff and retry scheduling.
type Engine struct {
	backend device.Backend

	mu       sync.Mutex
	state    State
	stream   device.Stream
	info     StreamInfo
	dev      device.Device
	callback device.BufferFunc
	tapOn    bool
}

// New creates a stopped engine over a backend.
func New(backend device.Backend) *Engine {
	return &Engine{backend: backend}
}

// InstallBufferCallback sets the function invoked with every captured
// buffer. Takes effect on the next Start or ReinstallTap.
func (e *Engine) InstallBufferCallback(fn device.BufferFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.callback = fn
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Info returns the negotiated stream info; zero value while stopped.
func (e *Engine) Info() StreamInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.info
}

// Start tears down any prior stream and opens dev. Concurrent Start calls
// while one is in flight are refused, never queued.
func (e *Engine) Start(dev device.Device) (StreamInfo, error) {
	e.mu.Lock()
	if e.state == Starting {
		e.mu.Unlock()
		return StreamInfo{}, apperrors.New(apperrors.CodeAlreadyStarting, "start already in flight")
	}
	e.state = Starting
	prior := e.stream
	e.stream = nil
	fn := e.callback
	e.mu.Unlock()

	teardown(prior)

	fail := func(err error) (StreamInfo, error) {
		e.mu.Lock()
		e.state = Stopped
		e.info = StreamInfo{}
		e.tapOn = false
		e.mu.Unlock()
		return StreamInfo{}, err
	}

	if dev.IsNone() {
		return fail(apperrors.New(apperrors.CodeInvalidArgument, "no device selected"))
	}

	// A zero-channel report is how flaky transports look mid-bring-up;
	// the caller schedules a retry rather than treating it as fatal.
	if dev.ChannelCount < 1 {
		return fail(apperrors.Newf(apperrors.CodeDeviceZeroChannels, "device %q reports no input channels", dev.Name))
	}

	channels := min(dev.ChannelCount, MaxChannels)
	sampleRate := dev.SampleRate
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	frames := DefaultFramesPerBuffer
	if dev.IsBluetoothLike() || dev.IsContinuityLike() {
		frames = SmallFramesPerBuffer
	}

	stream, err := e.backend.OpenStream(dev, sampleRate, channels, frames, fn)
	if err != nil {
		return fail(err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return fail(err)
	}

	info := StreamInfo{
		DeviceName: dev.Name,
		DeviceUID:  dev.UID,
		Channels:   channels,
		SampleRate: sampleRate,
	}

	e.mu.Lock()
	e.state = Running
	e.stream = stream
	e.info = info
	e.dev = dev
	e.tapOn = true
	e.mu.Unlock()

	slog.Info("capture engine running", "device", dev.Name, "channels", channels, "sampleRate", sampleRate, "framesPerBuffer", frames)
	return info, nil
}

// ReinstallTap closes and reopens the stream on the current device without
// touching selection state. Used to recover a zombie data path.
func (e *Engine) ReinstallTap() error {
	e.mu.Lock()
	if e.state != Running {
		e.mu.Unlock()
		return apperrors.New(apperrors.CodeNotRunning, "no running stream to reinstall")
	}
	dev := e.dev
	e.mu.Unlock()

	slog.Info("reinstalling capture tap", "device", dev.Name)
	_, err := e.Start(dev)
	return err
}

// Stop closes the stream and returns the engine to Stopped.
func (e *Engine) Stop() {
	e.mu.Lock()
	stream := e.stream
	e.stream = nil
	wasRunning := e.state == Running
	e.state = Stopped
	e.info = StreamInfo{}
	e.tapOn = false
	e.mu.Unlock()

	teardown(stream)
	if wasRunning {
		slog.Info("capture engine stopped")
	}
}

func teardown(stream device.Stream) {
	if stream == nil {
		return
	}
	if err := stream.Stop(); err != nil {
		slog.Debug("stream stop error", "error", err)
	}
	if err := stream.Close(); err != nil {
		slog.Debug("stream close error", "error", err)
	}
}
