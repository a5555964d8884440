// Package monitor coordinates device selection, engine lifecycle, and
// signal-health recovery on a single control goroutine
package monitor

import "time"

// Coordinator tunables.
const (
	// DefaultRetargetDebounce coalesces rapid re-selections (picker
	// scrolling) into one engine restart.
	DefaultRetargetDebounce = 300 * time.Millisecond

	// DefaultFollowUpDelay is the one extra restart after bringing up a
	// fragile device, which often appears first as a placeholder stream
	// and only later as the real multi-channel one.
	DefaultFollowUpDelay = 1500 * time.Millisecond

	// DefaultRecoveryDelay spaces a watchdog-requested restart off the
	// control loop instead of restarting inline.
	DefaultRecoveryDelay = 200 * time.Millisecond

	// Bluetooth defaults are adopted immediately but retargeted late, so
	// the wireless audio path has time to stabilize. The adoption is
	// abandoned if the device never shows up in an enumeration.
	DefaultBluetoothAdoptDelay = 2 * time.Second
	DefaultAdoptConfirmTimeout = 6 * time.Second
	DefaultAdoptRecheck        = 500 * time.Millisecond

	// DefaultSilenceFallbackAfter is how long a wireless or continuity
	// device may stay completely dark after engine start before the
	// coordinator abandons it for a wired candidate.
	DefaultSilenceFallbackAfter = 5 * time.Second

	// DefaultMaxStartAttempts caps automatic engine-start retries.
	// Exceeding it is terminal until the user re-selects a device.
	DefaultMaxStartAttempts = 5

	// DefaultEventQueueSize bounds the control-loop inbox. The capture
	// callback never blocks on it; overflow drops the event.
	DefaultEventQueueSize = 64
)

// Params collects the coordinator tunables.
type Params struct {
	RetargetDebounce     time.Duration
	FollowUpDelay        time.Duration
	RecoveryDelay        time.Duration
	BluetoothAdoptDelay  time.Duration
	AdoptConfirmTimeout  time.Duration
	AdoptRecheck         time.Duration
	SilenceFallbackAfter time.Duration
	MaxStartAttempts     int
	EventQueueSize       int
}

// DefaultParams returns the tuned defaults.
func DefaultParams() Params {
	return Params{
		RetargetDebounce:     DefaultRetargetDebounce,
		FollowUpDelay:        DefaultFollowUpDelay,
		RecoveryDelay:        DefaultRecoveryDelay,
		BluetoothAdoptDelay:  DefaultBluetoothAdoptDelay,
		AdoptConfirmTimeout:  DefaultAdoptConfirmTimeout,
		AdoptRecheck:         DefaultAdoptRecheck,
		SilenceFallbackAfter: DefaultSilenceFallbackAfter,
		MaxStartAttempts:     DefaultMaxStartAttempts,
		EventQueueSize:       DefaultEventQueueSize,
	}
}
