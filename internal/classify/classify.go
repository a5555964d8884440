// Package classify turns raw per-buffer levels into UI-ready levels using
// per-device-family heuristics
package classify

import (
	"time"

	"github.com/patgov/audiomon/internal/level"
)

// Sample is one classified level reading. Raw values are pre-gating and
// feed the health watchdog; Left/Right are the published, shaped levels.
type Sample struct {
	LeftDB      float64
	RightDB     float64
	RawLeftDB   float64
	RawRightDB  float64
	PeakLeftDB  float64
	PeakRightDB float64
	Timestamp   time.Time
}

// State holds all per-device classifier counters. It is reset as a unit on
// every device change or engine restart so a previous device's learning
// never influences the new one.
type State struct {
	Family            Family
	SmoothedLeft      float64
	SmoothedRight     float64
	NoiseFloor        float64
	NoiseFloorSamples int
	TalkFrames        int
	CooldownFrames    int
	PulseHold         int
	FramesSinceStart  int

	prevLoud float64
	havePrev bool
}

// Classifier applies family-specific corrections to raw levels.
type Classifier struct {
	params Params
	state  State
}

// NewClassifier creates a classifier for a device family.
func NewClassifier(params Params, family Family) *Classifier {
	c := &Classifier{params: params}
	c.Reset(family)
	return c
}

// Reset atomically clears all counters and re-binds the family. Must run
// before the first buffer of a new engine instance is classified.
func (c *Classifier) Reset(family Family) {
	c.state = State{
		Family:        family,
		SmoothedLeft:  level.FloorDB,
		SmoothedRight: level.FloorDB,
		NoiseFloor:    c.params.IdleBandLowDB,
	}
}

// Snapshot returns a copy of the current state, for status and tests.
func (c *Classifier) Snapshot() State { return c.state }

// Family returns the bound device family.
func (c *Classifier) Family() Family { return c.state.Family }

// Classify shapes one buffer's raw levels. inputVolume is the OS-reported
// capture volume scalar when the backend can read it (haveVolume). Safe to
// call from the capture callback: no allocation, no locking, never panics.
func (c *Classifier) Classify(raw level.Levels, ts time.Time, inputVolume float64, haveVolume bool) Sample {
	s := &c.state
	s.FramesSinceStart++

	rawL := level.Clamp(raw.LeftDB)
	rawR := level.Clamp(raw.RightDB)

	// Mirror a dead channel so mono sources do not render half-dead.
	if rawL <= DeepSilenceDB && rawR > DeepSilenceDB {
		rawL = rawR
	} else if rawR <= DeepSilenceDB && rawL > DeepSilenceDB {
		rawR = rawL
	}

	out := Sample{
		RawLeftDB: rawL, RawRightDB: rawR,
		PeakLeftDB: raw.PeakLeftDB, PeakRightDB: raw.PeakRightDB,
		Timestamp: ts,
	}

	// Explicit OS-level mute wins over everything. Continuity phones report
	// junk volume scalars while bringing audio up, so they are exempt.
	if haveVolume && inputVolume <= MuteVolumeEpsilon && s.Family != FamilyContinuityPhone {
		s.SmoothedLeft = level.FloorDB
		s.SmoothedRight = level.FloorDB
		s.prevLoud = level.FloorDB
		s.havePrev = true
		out.LeftDB = level.FloorDB
		out.RightDB = level.FloorDB
		return out
	}

	loud := max(rawL, rawR)
	if !s.havePrev {
		s.prevLoud = loud
		s.havePrev = true
	}
	jump := loud - s.prevLoud

	c.updateGate(loud, jump)
	gated := c.updateNoiseFloor(loud, jump)

	targetL, targetR := rawL, rawR
	if gated {
		targetL, targetR = level.FloorDB, level.FloorDB
	}

	held := false
	if s.Family == FamilyDisplayEmbedded && !gated {
		targetL, targetR, held = c.shapeDisplay(targetL, targetR, jump)
	}

	prevL, prevR := s.SmoothedLeft, s.SmoothedRight
	if held {
		// Pulse hold: carry the previous output through a one-frame glitch.
		out.LeftDB = prevL
		out.RightDB = prevR
	} else {
		s.SmoothedLeft = c.smooth(prevL, targetL)
		s.SmoothedRight = c.smooth(prevR, targetR)

		if s.Family == FamilyDisplayEmbedded && s.TalkFrames > 0 {
			s.SmoothedLeft = slewLimit(prevL, s.SmoothedLeft, c.params.MaxSlewDBPerFrame)
			s.SmoothedRight = slewLimit(prevR, s.SmoothedRight, c.params.MaxSlewDBPerFrame)
		}

		out.LeftDB = level.Clamp(s.SmoothedLeft)
		out.RightDB = level.Clamp(s.SmoothedRight)
	}

	s.prevLoud = loud
	return out
}

// updateGate advances the display-mic speech-armed gate counters. Families
// other than DisplayEmbedded keep the counters at zero.
func (c *Classifier) updateGate(loud, jump float64) {
	s := &c.state
	if s.Family != FamilyDisplayEmbedded {
		return
	}

	armJump := c.params.TransientJumpDB
	if s.CooldownFrames > 0 {
		armJump = c.params.CooldownJumpDB
	}

	if s.FramesSinceStart > armWarmupFrames && jump >= armJump && loud >= c.params.TransientMinDB {
		s.TalkFrames = c.params.TalkingWindowFrames
		return
	}

	if s.TalkFrames > 0 {
		s.TalkFrames--
		if s.TalkFrames == 0 {
			s.CooldownFrames = c.params.CooldownFrames
		}
	} else if s.CooldownFrames > 0 {
		s.CooldownFrames--
	}
}

// updateNoiseFloor learns the per-device idle floor over the first N frames
// and afterwards reports whether the current frame should clamp to silence.
// Trusted interfaces report honest levels and display mics carry their own
// gate, so both are exempt.
func (c *Classifier) updateNoiseFloor(loud, jump float64) bool {
	s := &c.state
	if s.Family == FamilyTrusted || s.Family == FamilyDisplayEmbedded {
		return false
	}

	if s.NoiseFloorSamples < c.params.NoiseFloorLearnFrames {
		if loud >= c.params.IdleBandLowDB && loud <= c.params.IdleBandHighDB && loud > s.NoiseFloor {
			s.NoiseFloor = loud
		}
		s.NoiseFloorSamples++
		return false
	}

	rising := jump >= c.params.NoiseFloorRiseDB
	clearlyAbove := loud >= s.NoiseFloor+c.params.NoiseFloorClearDB
	return loud <= s.NoiseFloor+c.params.NoiseFloorSlackDB && !rising && !clearlyAbove
}

// shapeDisplay applies the idle ceiling while unarmed and glitch holds
// while armed. Returns possibly-adjusted targets and whether to hold the
// previous output entirely.
func (c *Classifier) shapeDisplay(targetL, targetR, jump float64) (float64, float64, bool) {
	s := &c.state

	if s.TalkFrames == 0 {
		// Idle: the panel's noisy shelf must not render as speech.
		s.PulseHold = 0
		return min(targetL, c.params.DisplayIdleCeilingDB), min(targetR, c.params.DisplayIdleCeilingDB), false
	}

	// Armed: a sudden single-frame collapse is a driver glitch, not the
	// speaker stopping; hold through it briefly.
	if -jump >= c.params.DropSpikeDB && s.PulseHold < c.params.PulseHoldFrames {
		s.PulseHold++
		return targetL, targetR, true
	}
	s.PulseHold = 0
	return targetL, targetR, false
}

// smooth applies the family's exponential filter.
func (c *Classifier) smooth(prev, target float64) float64 {
	var alpha float64
	switch c.state.Family {
	case FamilyTrusted:
		alpha = c.params.AlphaTrusted
	case FamilyCameraLike:
		// Webcam AGC pumps; rise fast so speech registers, fall slowly so
		// the meter does not flicker.
		if target > prev {
			alpha = c.params.AlphaCameraRise
		} else {
			alpha = c.params.AlphaCameraFall
		}
	default:
		alpha = c.params.AlphaDefault
	}
	return prev + alpha*(target-prev)
}

func slewLimit(prev, next, maxStep float64) float64 {
	if next > prev+maxStep {
		return prev + maxStep
	}
	if next < prev-maxStep {
		return prev - maxStep
	}
	return next
}
