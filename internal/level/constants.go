// Package level converts raw capture buffers into per-channel dBFS values
package level

// Level computation constants
const (
	// FloorDB is the lowest level ever reported (digital silence).
	FloorDB = -120.0

	// CeilingDB is full scale.
	CeilingDB = 0.0

	// minRMS guards the log10 conversion; anything quieter is FloorDB.
	minRMS = 1e-6

	// int16FullScale / int32FullScale normalize integer samples to [-1, 1].
	int16FullScale = 32768.0
	int32FullScale = 2147483648.0

	// ClipThreshold flags near-full-scale samples (normalized magnitude).
	ClipThreshold = 0.999
)
