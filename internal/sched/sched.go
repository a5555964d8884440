// Package sched provides named, single-slot cancellable timers.
//
// The coordinator keys every deferred action (debounced restart, tap retry,
// recovery delay) by purpose. Scheduling a purpose that is already pending
// replaces the earlier timer, so at most one timer per purpose ever exists
// and superseded work can never fire against stale state.
package sched

import (
	"sync"
	"time"
)

// Well-known timer purposes.
const (
	PurposeRestart      = "restart"
	PurposeFollowUp     = "followup"
	PurposeTapRetry     = "tapRetry"
	PurposeRecovery     = "recovery"
	PurposeStartRetry   = "startRetry"
	PurposeAdoptDefault = "adoptDefault"
)

type slot struct {
	timer *time.Timer
	gen   uint64
}

// Scheduler owns one timer slot per purpose.
type Scheduler struct {
	mu    sync.Mutex
	slots map[string]*slot
}

// New creates an empty scheduler.
func New() *Scheduler {
	return &Scheduler{slots: make(map[string]*slot)}
}

// Schedule arms (or re-arms) the timer for a purpose. fn runs once on the
// timer goroutine after delay unless superseded or cancelled first.
func (s *Scheduler) Schedule(purpose string, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.slots[purpose]
	if !ok {
		sl = &slot{}
		s.slots[purpose] = sl
	}
	if sl.timer != nil {
		sl.timer.Stop()
	}
	sl.gen++
	gen := sl.gen

	sl.timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		current := s.slots[purpose] != nil && s.slots[purpose].gen == gen
		if current {
			s.slots[purpose].timer = nil
		}
		s.mu.Unlock()
		if current {
			fn()
		}
	})
}

// Cancel stops the pending timer for a purpose, if any.
func (s *Scheduler) Cancel(purpose string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sl, ok := s.slots[purpose]; ok {
		if sl.timer != nil {
			sl.timer.Stop()
			sl.timer = nil
		}
		sl.gen++
	}
}

// CancelAll stops every pending timer.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sl := range s.slots {
		if sl.timer != nil {
			sl.timer.Stop()
			sl.timer = nil
		}
		sl.gen++
	}
}

// Pending reports whether a timer is armed for the purpose.
func (s *Scheduler) Pending(purpose string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.slots[purpose]
	return ok && sl.timer != nil
}
