package device

import (
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/patgov/audiomon/internal/classify"
	apperrors "github.com/patgov/audiomon/internal/errors"
)

// PortAudioBackend implements Backend on top of portaudio.
type PortAudioBackend struct {
	mu          sync.Mutex
	initialized bool
}

// NewPortAudioBackend creates an uninitialized portaudio backend.
func NewPortAudioBackend() *PortAudioBackend {
	return &PortAudioBackend{}
}

// Initialize brings up the portaudio subsystem.
func (b *PortAudioBackend) Initialize() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.initialized {
		return nil
	}
	if err := portaudio.Initialize(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeHALError, "portaudio initialize")
	}
	b.initialized = true
	return nil
}

// Terminate shuts the subsystem down.
func (b *PortAudioBackend) Terminate() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return nil
	}
	b.initialized = false
	if err := portaudio.Terminate(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeHALError, "portaudio terminate")
	}
	return nil
}

func fromPortAudio(idx int, info *portaudio.DeviceInfo, isDefault bool) Device {
	return Device{
		ID:           idx,
		UID:          MakeUID(info.Name),
		Name:         info.Name,
		ChannelCount: info.MaxInputChannels,
		SampleRate:   info.DefaultSampleRate,
		IsDefault:    isDefault,
		Family:       classify.DetectFamily(info.Name),
	}
}

// Enumerate lists capture-capable devices.
func (b *PortAudioBackend) Enumerate() ([]Device, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeEnumerationFailed, "enumerate devices")
	}

	defaultInfo, _ := portaudio.DefaultInputDevice()

	devices := make([]Device, 0, len(infos))
	for idx, info := range infos {
		if info.MaxInputChannels < 1 {
			continue
		}
		devices = append(devices, fromPortAudio(idx, info, defaultInfo != nil && info.Index == defaultInfo.Index))
	}
	return devices, nil
}

// Default returns the OS default input device.
func (b *PortAudioBackend) Default() (Device, error) {
	info, err := portaudio.DefaultInputDevice()
	if err != nil {
		return NoDevice, apperrors.Wrap(err, apperrors.CodeEnumerationFailed, "default input device")
	}
	return fromPortAudio(info.Index, info, true), nil
}

// OpenStream opens a callback capture stream on dev.
func (b *PortAudioBackend) OpenStream(dev Device, sampleRate float64, channels, framesPerBuffer int, fn BufferFunc) (Stream, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeEnumerationFailed, "resolve device for open")
	}

	var info *portaudio.DeviceInfo
	for _, candidate := range infos {
		if MakeUID(candidate.Name) == dev.UID && candidate.MaxInputChannels >= 1 {
			info = candidate
			break
		}
	}
	if info == nil {
		return nil, apperrors.Newf(apperrors.CodeDeviceNotFound, "device %q no longer present", dev.Name)
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   info,
			Channels: channels,
			Latency:  info.DefaultLowInputLatency,
		},
		SampleRate:      sampleRate,
		FramesPerBuffer: framesPerBuffer,
	}

	stream, err := portaudio.OpenStream(params, func(in []float32) {
		fn(in, channels)
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeStreamOpenFailed, "open stream").WithMetadata("device", dev.Name)
	}
	return &paStream{stream: stream}, nil
}

// InputVolume is unsupported by portaudio; the classifier's mute check is
// driven by backends that can report it (and mocks in tests).
func (b *PortAudioBackend) InputVolume(Device) (float64, bool) {
	return 0, false
}

type paStream struct {
	stream   *portaudio.Stream
	stopOnce sync.Once
}

func (s *paStream) Start() error {
	if err := s.stream.Start(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeStreamStartFailed, "start stream")
	}
	return nil
}

func (s *paStream) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		err = s.stream.Stop()
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeHALError, "stop stream")
	}
	return nil
}

func (s *paStream) Close() error {
	if err := s.stream.Close(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeHALError, "close stream")
	}
	return nil
}
