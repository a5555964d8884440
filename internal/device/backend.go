package device

// BufferFunc receives one capture callback's worth of interleaved float32
// samples. It runs on the backend's realtime context: bounded work only,
// and it must never panic.
type BufferFunc func(samples []float32, channels int)

// Stream is one open hardware capture stream.
type Stream interface {
	Start() error
	Stop() error
	Close() error
}

// Backend abstracts the OS audio subsystem so the engine and coordinator
// are testable without hardware.
type Backend interface {
	// Initialize the audio subsystem. Idempotent.
	Initialize() error

	// Terminate the audio subsystem.
	Terminate() error

	// Enumerate returns capture-capable devices (>= 1 input channel).
	Enumerate() ([]Device, error)

	// Default returns the OS default input device.
	Default() (Device, error)

	// OpenStream opens a capture stream on dev and installs fn as the
	// buffer callback. The stream is created stopped.
	OpenStream(dev Device, sampleRate float64, channels, framesPerBuffer int, fn BufferFunc) (Stream, error)

	// InputVolume reports the OS input volume scalar for dev, if the
	// platform exposes one (ok=false otherwise).
	InputVolume(dev Device) (float64, bool)
}
