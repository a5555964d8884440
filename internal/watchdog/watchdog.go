// Package watchdog detects cross-buffer signal pathologies and requests
// recovery
package watchdog

import (
	"time"

	"github.com/patgov/audiomon/internal/classify"
	"github.com/patgov/audiomon/internal/level"
)

// Action is a recovery request. The coordinator decides whether to honor
// it; the watchdog never mutates the engine directly.
type Action int

const (
	ActionReinstallTap Action = iota
	ActionRestartEngine
	ActionWarnLowSignal
)

func (a Action) String() string {
	return [...]string{"reinstallTap", "restartEngine", "warnLowSignal"}[a]
}

// State holds all cross-buffer counters. Reset as a unit on device change
// or engine restart.
type State struct {
	FramesObserved int
	MaxLevelDB     float64
	FlatRun        int
	FlatLast       float64
	SilentRun      int
	SilentSince    time.Time
	LastTapFire    time.Time
	LastRestart    time.Time
	Warned         bool
	TapRequested   bool
	StartTime      time.Time
}

// Watchdog runs the three independent per-buffer detectors.
type Watchdog struct {
	params Params
	state  State

	// Transport traits of the bound device, captured at Reset.
	bluetoothLike  bool
	continuityLike bool
}

// New creates a watchdog with params.
func New(params Params) *Watchdog {
	w := &Watchdog{params: params}
	w.Reset(time.Now(), false, false)
	return w
}

// Reset clears all counters and re-binds transport traits. Must complete
// before the first buffer of a new engine instance is observed.
func (w *Watchdog) Reset(start time.Time, bluetoothLike, continuityLike bool) {
	w.state = State{
		MaxLevelDB: level.FloorDB,
		FlatLast:   level.FloorDB,
		StartTime:  start,
	}
	w.bluetoothLike = bluetoothLike
	w.continuityLike = continuityLike
}

// Snapshot returns a copy of the current state.
func (w *Watchdog) Snapshot() State { return w.state }

// Warned reports whether the persistent low-signal warning is active.
func (w *Watchdog) Warned() bool { return w.state.Warned }

// SilentSince reports when the current dead-silence run began.
func (w *Watchdog) SilentSince() (time.Time, bool) {
	if w.state.SilentRun == 0 {
		return time.Time{}, false
	}
	return w.state.SilentSince, true
}

// InGrace reports whether the device is still inside its bring-up window,
// during which silence is expected and must not trigger recovery.
func (w *Watchdog) InGrace(now time.Time) bool {
	if !w.bluetoothLike && !w.continuityLike {
		return false
	}
	return now.Sub(w.state.StartTime) < w.params.BluetoothGrace
}

// Observe runs the detectors over one classified sample and returns any
// recovery requests. Raw (pre-gating) levels drive the detectors so the
// classifier's own gating cannot masquerade as hardware silence.
func (w *Watchdog) Observe(sample classify.Sample) []Action {
	s := &w.state
	s.FramesObserved++

	loud := max(sample.RawLeftDB, sample.RawRightDB)
	if loud > s.MaxLevelDB {
		s.MaxLevelDB = loud
	}

	// Dead-silence run length is tracked even in grace so the coordinator
	// can measure how long a wireless device has stayed dark.
	if loud <= w.params.DeadSilenceDB {
		if s.SilentRun == 0 {
			s.SilentSince = sample.Timestamp
		}
		s.SilentRun++
	} else {
		s.SilentRun = 0
	}

	// A genuinely loud frame proves the path works: clear the sticky
	// low-signal state.
	if loud > w.params.LowSignalClearDB {
		s.Warned = false
		s.TapRequested = false
		s.FlatRun = 0
	}

	if w.InGrace(sample.Timestamp) {
		s.FlatLast = loud
		return nil
	}

	var actions []Action
	actions = append(actions, w.observeLowSignal(loud)...)
	actions = append(actions, w.observeFlat(loud, sample.Timestamp)...)
	actions = append(actions, w.observeDeadSilence(sample.Timestamp)...)
	return actions
}

func (w *Watchdog) observeLowSignal(loud float64) []Action {
	s := &w.state
	if s.FramesObserved < w.params.WarmupFrames || s.Warned {
		return nil
	}
	if s.MaxLevelDB >= w.params.LowSignalDB {
		return nil
	}

	s.Warned = true
	actions := []Action{ActionWarnLowSignal}
	if !s.TapRequested {
		s.TapRequested = true
		actions = append(actions, ActionReinstallTap)
	}
	return actions
}

func (w *Watchdog) observeFlat(loud float64, now time.Time) []Action {
	s := &w.state

	delta := loud - s.FlatLast
	if delta < 0 {
		delta = -delta
	}
	if delta <= w.params.FlatToleranceDB && loud > w.params.DeadSilenceDB {
		s.FlatRun++
	} else {
		s.FlatRun = 0
	}
	s.FlatLast = loud

	if s.FlatRun < w.params.FlatMinRun || loud >= w.params.FlatMaxLevelDB {
		return nil
	}
	if now.Sub(s.LastTapFire) < w.params.MinRecoveryInterval {
		return nil
	}

	s.LastTapFire = now
	s.FlatRun = 0
	return []Action{ActionReinstallTap}
}

func (w *Watchdog) observeDeadSilence(now time.Time) []Action {
	s := &w.state
	if s.SilentRun < w.params.DeadSilenceMinRun {
		return nil
	}
	if !s.LastRestart.IsZero() && now.Sub(s.LastRestart) < w.params.MinRecoveryInterval {
		return nil
	}

	s.LastRestart = now
	s.SilentRun = 0
	return []Action{ActionRestartEngine}
}
