// Package classify turns raw per-buffer levels into UI-ready levels using
// per-device-family heuristics
package classify

// Heuristic tunables. These encode workarounds for specific consumer
// hardware observed in the field (display panels with an elevated idle
// shelf, earbuds that fade in, webcams with pumping AGC). Treat them as
// tunable defaults, not universal physics; Params lets deployments retune
// without a rebuild.
const (
	// DeepSilenceDB is the level below which a channel is considered dead
	// for mirroring purposes.
	DeepSilenceDB = -100.0

	// MuteVolumeEpsilon: an OS-reported input volume scalar at or below
	// this forces silence for the frame.
	MuteVolumeEpsilon = 0.01

	// Adaptive noise floor learning.
	DefaultNoiseFloorLearnFrames = 60    // learning window after (re)start
	DefaultIdleBandLowDB         = -80.0 // plausible idle levels fall in
	DefaultIdleBandHighDB        = -30.0 // [low, high]; outside is ignored
	DefaultNoiseFloorSlackDB     = 4.0   // clamp-to-silence band above floor
	DefaultNoiseFloorRiseDB      = 9.0   // per-frame jump that defeats the clamp
	DefaultNoiseFloorClearDB     = 12.0  // margin above floor that defeats the clamp

	// Display/embedded-mic speech-armed gate.
	DefaultDisplayIdleCeilingDB = -42.0 // idle shelf cap while unarmed
	DefaultTransientJumpDB      = 14.0  // upward jump that arms the gate
	DefaultTransientMinDB       = -38.0 // minimum absolute level to arm
	DefaultTalkingWindowFrames  = 40    // armed window length
	DefaultCooldownFrames       = 30    // easier re-arming right after talking
	DefaultCooldownJumpDB       = 7.0   // reduced jump threshold in cooldown
	DefaultDropSpikeDB          = 18.0  // single-frame drop treated as glitch
	DefaultPulseHoldFrames      = 2     // frames to hold level through a glitch
	DefaultMaxSlewDBPerFrame    = 6.0   // per-frame output change cap while armed

	// Smoothing filter coefficients (EMA alpha, higher = more responsive).
	DefaultAlphaTrusted    = 0.95
	DefaultAlphaDefault    = 0.35
	DefaultAlphaCameraRise = 0.60
	DefaultAlphaCameraFall = 0.08

	// armWarmupFrames suppresses transient arming immediately after a
	// reset, when the previous-frame reference is not yet meaningful.
	armWarmupFrames = 3
)

// Params collects every classifier tunable.
type Params struct {
	NoiseFloorLearnFrames int
	IdleBandLowDB         float64
	IdleBandHighDB        float64
	NoiseFloorSlackDB     float64
	NoiseFloorRiseDB      float64
	NoiseFloorClearDB     float64

	DisplayIdleCeilingDB float64
	TransientJumpDB      float64
	TransientMinDB       float64
	TalkingWindowFrames  int
	CooldownFrames       int
	CooldownJumpDB       float64
	DropSpikeDB          float64
	PulseHoldFrames      int
	MaxSlewDBPerFrame    float64

	AlphaTrusted    float64
	AlphaDefault    float64
	AlphaCameraRise float64
	AlphaCameraFall float64
}

// DefaultParams returns the tuned defaults.
func DefaultParams() Params {
	return Params{
		NoiseFloorLearnFrames: DefaultNoiseFloorLearnFrames,
		IdleBandLowDB:         DefaultIdleBandLowDB,
		IdleBandHighDB:        DefaultIdleBandHighDB,
		NoiseFloorSlackDB:     DefaultNoiseFloorSlackDB,
		NoiseFloorRiseDB:      DefaultNoiseFloorRiseDB,
		NoiseFloorClearDB:     DefaultNoiseFloorClearDB,

		DisplayIdleCeilingDB: DefaultDisplayIdleCeilingDB,
		TransientJumpDB:      DefaultTransientJumpDB,
		TransientMinDB:       DefaultTransientMinDB,
		TalkingWindowFrames:  DefaultTalkingWindowFrames,
		CooldownFrames:       DefaultCooldownFrames,
		CooldownJumpDB:       DefaultCooldownJumpDB,
		DropSpikeDB:          DefaultDropSpikeDB,
		PulseHoldFrames:      DefaultPulseHoldFrames,
		MaxSlewDBPerFrame:    DefaultMaxSlewDBPerFrame,

		AlphaTrusted:    DefaultAlphaTrusted,
		AlphaDefault:    DefaultAlphaDefault,
		AlphaCameraRise: DefaultAlphaCameraRise,
		AlphaCameraFall: DefaultAlphaCameraFall,
	}
}
