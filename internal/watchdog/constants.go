// Package watchdog detects cross-buffer signal pathologies and requests
// recovery
package watchdog

import "time"

// Detector tunables. Defaults assume ~10-12ms buffers.
const (
	// Low-signal detector: after the warm-up, a device whose loudest
	// observed frame never cleared the threshold is warned about once.
	DefaultWarmupFrames     = 100
	DefaultLowSignalDB      = -55.0
	DefaultLowSignalClearDB = -50.0 // a frame above this clears the warning

	// Flat-level detector: a long run of near-identical quiet levels is a
	// zombie path, not a person holding a perfect note.
	DefaultFlatToleranceDB = 0.5
	DefaultFlatMinRun      = 120
	DefaultFlatMaxLevelDB  = -50.0

	// Dead-silence detector: raw floor for a long run means the stream is
	// delivering nothing at all.
	DefaultDeadSilenceDB     = -115.0
	DefaultDeadSilenceMinRun = 150

	// DefaultMinRecoveryInterval rate-limits each recovery action so a
	// persistent fault cannot cause a restart storm.
	DefaultMinRecoveryInterval = 10 * time.Second

	// DefaultBluetoothGrace is how long after engine start silence is
	// expected on wireless and continuity transports, which bring audio
	// online asynchronously. It must outlast the silent-device fallback
	// window so a dark wireless device is retargeted, not warned about.
	DefaultBluetoothGrace = 6 * time.Second
)

// Params collects the watchdog tunables.
type Params struct {
	WarmupFrames        int
	LowSignalDB         float64
	LowSignalClearDB    float64
	FlatToleranceDB     float64
	FlatMinRun          int
	FlatMaxLevelDB      float64
	DeadSilenceDB       float64
	DeadSilenceMinRun   int
	MinRecoveryInterval time.Duration
	BluetoothGrace      time.Duration
}

// DefaultParams returns the tuned defaults.
func DefaultParams() Params {
	return Params{
		WarmupFrames:        DefaultWarmupFrames,
		LowSignalDB:         DefaultLowSignalDB,
		LowSignalClearDB:    DefaultLowSignalClearDB,
		FlatToleranceDB:     DefaultFlatToleranceDB,
		FlatMinRun:          DefaultFlatMinRun,
		FlatMaxLevelDB:      DefaultFlatMaxLevelDB,
		DeadSilenceDB:       DefaultDeadSilenceDB,
		DeadSilenceMinRun:   DefaultDeadSilenceMinRun,
		MinRecoveryInterval: DefaultMinRecoveryInterval,
		BluetoothGrace:      DefaultBluetoothGrace,
	}
}
