// Package level converts raw capture buffers into per-channel dBFS values
package level

import (
	"encoding/binary"
	"math"
)

// Format identifies the sample layout of a capture buffer.
type Format int

const (
	FormatUnknown Format = iota
	FormatFloat32Interleaved
	FormatFloat32Planar
	FormatInt16Interleaved
	FormatInt32Interleaved
)

func (f Format) String() string {
	switch f {
	case FormatFloat32Interleaved:
		return "f32i"
	case FormatFloat32Planar:
		return "f32p"
	case FormatInt16Interleaved:
		return "s16i"
	case FormatInt32Interleaved:
		return "s32i"
	default:
		return "unknown"
	}
}

// Buffer is one capture callback's worth of raw audio.
// Interleaved formats carry Data; FormatFloat32Planar carries Planes.
type Buffer struct {
	Format   Format
	Channels int
	Frames   int
	Data     []byte
	Planes   [][]float32
}

// Levels holds per-channel results for one buffer.
type Levels struct {
	LeftDB      float64
	RightDB     float64
	PeakLeftDB  float64
	PeakRightDB float64
	ClipLeft    int
	ClipRight   int
}

// Silence is the fail-safe result for empty or unrecognized buffers.
func Silence() Levels {
	return Levels{
		LeftDB: FloorDB, RightDB: FloorDB,
		PeakLeftDB: FloorDB, PeakRightDB: FloorDB,
	}
}

// accum collects mean-square and peak data for one channel.
type accum struct {
	sumSquares float64
	peak       float64
	clips      int
	count      int
}

func (a *accum) add(v float64) {
	a.sumSquares += v * v
	abs := math.Abs(v)
	if abs > a.peak {
		a.peak = abs
	}
	if abs >= ClipThreshold {
		a.clips++
	}
	a.count++
}

func (a *accum) rmsDB() float64 {
	if a.count == 0 {
		return FloorDB
	}
	return toDB(math.Sqrt(a.sumSquares / float64(a.count)))
}

func (a *accum) peakDB() float64 {
	if a.count == 0 {
		return FloorDB
	}
	return toDB(a.peak)
}

// toDB converts a normalized linear magnitude to clamped dBFS.
func toDB(v float64) float64 {
	if v < minRMS {
		return FloorDB
	}
	return Clamp(20 * math.Log10(v))
}

// Clamp bounds a dB value to [FloorDB, CeilingDB].
func Clamp(db float64) float64 {
	if db < FloorDB {
		return FloorDB
	}
	if db > CeilingDB {
		return CeilingDB
	}
	return db
}

// Compute returns per-channel levels for a raw buffer. It is pure, allocates
// nothing, and must never panic: the caller is the realtime capture callback.
// An unrecognized layout yields Silence rather than a guess.
func Compute(buf Buffer) Levels {
	if buf.Frames <= 0 || buf.Channels <= 0 {
		return Silence()
	}

	var left, right accum

	switch buf.Format {
	case FormatFloat32Interleaved:
		if len(buf.Data) < buf.Frames*buf.Channels*4 {
			return Silence()
		}
		for f := 0; f < buf.Frames; f++ {
			base := f * buf.Channels * 4
			left.add(float64(math.Float32frombits(binary.LittleEndian.Uint32(buf.Data[base:]))))
			if buf.Channels > 1 {
				right.add(float64(math.Float32frombits(binary.LittleEndian.Uint32(buf.Data[base+4:]))))
			}
		}

	case FormatFloat32Planar:
		if len(buf.Planes) == 0 || len(buf.Planes[0]) < buf.Frames {
			return Silence()
		}
		for f := 0; f < buf.Frames; f++ {
			left.add(float64(buf.Planes[0][f]))
		}
		if len(buf.Planes) > 1 && len(buf.Planes[1]) >= buf.Frames {
			for f := 0; f < buf.Frames; f++ {
				right.add(float64(buf.Planes[1][f]))
			}
		}

	case FormatInt16Interleaved:
		if len(buf.Data) < buf.Frames*buf.Channels*2 {
			return Silence()
		}
		for f := 0; f < buf.Frames; f++ {
			base := f * buf.Channels * 2
			left.add(float64(int16(binary.LittleEndian.Uint16(buf.Data[base:]))) / int16FullScale)
			if buf.Channels > 1 {
				right.add(float64(int16(binary.LittleEndian.Uint16(buf.Data[base+2:]))) / int16FullScale)
			}
		}

	case FormatInt32Interleaved:
		if len(buf.Data) < buf.Frames*buf.Channels*4 {
			return Silence()
		}
		for f := 0; f < buf.Frames; f++ {
			base := f * buf.Channels * 4
			left.add(float64(int32(binary.LittleEndian.Uint32(buf.Data[base:]))) / int32FullScale)
			if buf.Channels > 1 {
				right.add(float64(int32(binary.LittleEndian.Uint32(buf.Data[base+4:]))) / int32FullScale)
			}
		}

	default:
		return Silence()
	}

	out := Levels{
		LeftDB:     left.rmsDB(),
		PeakLeftDB: left.peakDB(),
		ClipLeft:   left.clips,
	}

	if right.count > 0 {
		out.RightDB = right.rmsDB()
		out.PeakRightDB = right.peakDB()
		out.ClipRight = right.clips
	} else {
		// Mono source: mirror left so the meter never shows a dead channel.
		out.RightDB = out.LeftDB
		out.PeakRightDB = out.PeakLeftDB
		out.ClipRight = out.ClipLeft
	}

	return out
}

// ComputeFloat32 is a convenience for callers that already hold an
// interleaved float32 slice, such as the live portaudio callback.
func ComputeFloat32(samples []float32, channels int) Levels {
	if channels <= 0 || len(samples) < channels {
		return Silence()
	}
	frames := len(samples) / channels

	var left, right accum
	for f := 0; f < frames; f++ {
		left.add(float64(samples[f*channels]))
		if channels > 1 {
			right.add(float64(samples[f*channels+1]))
		}
	}

	out := Levels{LeftDB: left.rmsDB(), PeakLeftDB: left.peakDB(), ClipLeft: left.clips}
	if right.count > 0 {
		out.RightDB = right.rmsDB()
		out.PeakRightDB = right.peakDB()
		out.ClipRight = right.clips
	} else {
		out.RightDB = out.LeftDB
		out.PeakRightDB = out.PeakLeftDB
		out.ClipRight = out.ClipLeft
	}
	return out
}
