// Package engine owns the live hardware capture stream
package engine

// Stream negotiation constants
const (
	// DefaultSampleRate is used when a device does not report one.
	DefaultSampleRate = 44100.0

	// MaxChannels caps the opened channel count; the meter is stereo.
	MaxChannels = 2

	// DefaultFramesPerBuffer is ~12ms at 44.1kHz.
	DefaultFramesPerBuffer = 512

	// SmallFramesPerBuffer is used for wireless and continuity transports,
	// which reject larger requests on some driver versions.
	SmallFramesPerBuffer = 256
)
