package device

import (
	"sync"

	apperrors "github.com/patgov/audiomon/internal/errors"
)

// MockBackend implements Backend for tests without hardware. Device sets,
// errors and volume scalars are scripted; opened streams record their
// lifecycle and let tests push buffers through the installed callback.
type MockBackend struct {
	mu          sync.Mutex
	initialized bool

	devices    []Device
	defaultUID string

	enumerateErr error
	openErr      error
	startErr     error
	openErrLeft  int // fail this many opens, then succeed

	volume     float64
	volumeOK   bool
	openCount  int
	lastFrames int
	streams    []*MockStream
}

// NewMockBackend creates an empty mock backend.
func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

// SetDevices replaces the scripted device list.
func (m *MockBackend) SetDevices(devices []Device, defaultUID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devices = append([]Device(nil), devices...)
	m.defaultUID = defaultUID
}

// SetEnumerateError scripts enumeration failure.
func (m *MockBackend) SetEnumerateError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enumerateErr = err
}

// SetOpenError scripts stream-open failure for every subsequent open.
func (m *MockBackend) SetOpenError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openErr = err
	m.openErrLeft = 0
}

// FailNextOpens scripts stream-open failure for the next n opens only.
func (m *MockBackend) FailNextOpens(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openErr = err
	m.openErrLeft = n
}

// SetStartError scripts stream-start failure.
func (m *MockBackend) SetStartError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startErr = err
}

// SetInputVolume scripts the OS volume scalar.
func (m *MockBackend) SetInputVolume(v float64, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume, m.volumeOK = v, ok
}

// LastFramesPerBuffer reports the frame count of the most recent open.
func (m *MockBackend) LastFramesPerBuffer() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastFrames
}

// OpenCount reports how many streams were opened.
func (m *MockBackend) OpenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.openCount
}

// Streams returns every stream opened so far.
func (m *MockBackend) Streams() []*MockStream {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*MockStream(nil), m.streams...)
}

// LastStream returns the most recently opened stream, or nil.
func (m *MockBackend) LastStream() *MockStream {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.streams) == 0 {
		return nil
	}
	return m.streams[len(m.streams)-1]
}

func (m *MockBackend) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initialized = true
	return nil
}

func (m *MockBackend) Terminate() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initialized = false
	return nil
}

func (m *MockBackend) Enumerate() ([]Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.enumerateErr != nil {
		return nil, m.enumerateErr
	}
	out := make([]Device, len(m.devices))
	copy(out, m.devices)
	for i := range out {
		out[i].IsDefault = out[i].UID == m.defaultUID
	}
	return out, nil
}

func (m *MockBackend) Default() (Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.devices {
		if d.UID == m.defaultUID {
			d.IsDefault = true
			return d, nil
		}
	}
	return NoDevice, apperrors.New(apperrors.CodeDeviceNotFound, "no default input")
}

func (m *MockBackend) OpenStream(dev Device, _ float64, channels, framesPerBuffer int, fn BufferFunc) (Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFrames = framesPerBuffer

	found := false
	for _, d := range m.devices {
		if d.Same(dev) {
			found = true
			break
		}
	}
	if !found {
		return nil, apperrors.Newf(apperrors.CodeDeviceNotFound, "device %q not present", dev.Name)
	}

	if m.openErrLeft > 0 {
		m.openErrLeft--
		err := m.openErr
		if m.openErrLeft == 0 {
			m.openErr = nil
		}
		return nil, err
	}
	if m.openErr != nil {
		return nil, m.openErr
	}

	m.openCount++
	s := &MockStream{backend: m, channels: channels, fn: fn, startErr: m.startErr}
	m.streams = append(m.streams, s)
	return s, nil
}

func (m *MockBackend) InputVolume(Device) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume, m.volumeOK
}

// MockStream is a scripted capture stream.
type MockStream struct {
	backend  *MockBackend
	channels int
	fn       BufferFunc
	startErr error

	mu      sync.Mutex
	started bool
	stopped bool
	closed  bool
}

func (s *MockStream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startErr != nil {
		return s.startErr
	}
	s.started = true
	s.stopped = false
	return nil
}

func (s *MockStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.started = false
	return nil
}

func (s *MockStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Running reports whether the stream is started and not closed.
func (s *MockStream) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started && !s.closed
}

// Closed reports whether Close was called.
func (s *MockStream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Push feeds one interleaved buffer through the installed callback, as the
// realtime context would.
func (s *MockStream) Push(samples []float32) {
	s.mu.Lock()
	running := s.started && !s.closed
	fn := s.fn
	channels := s.channels
	s.mu.Unlock()
	if running && fn != nil {
		fn(samples, channels)
	}
}
