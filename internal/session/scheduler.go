package session

import (
	"sync"
	"time"

	"github.com/ashureev/coach-finder/internal/clock"
)

// Scheduler owns at most one pending expiration callback.
type Scheduler struct {
	clock clock.Clock

	mu    sync.Mutex
	timer clock.Timer
	gen   uint64
	delay time.Duration
}

// NewScheduler creates an unarmed scheduler.
func NewScheduler(clk clock.Clock) *Scheduler {
	return &Scheduler{clock: clk}
}

// Arm cancels any pending callback and schedules fire to run once after d.
// It returns false without arming when d <= 0; the caller treats that as
// already expired.
func (s *Scheduler) Arm(d time.Duration, fire func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	if d <= 0 {
		return false
	}

	s.gen++
	gen := s.gen
	s.delay = d
	s.timer = s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		if gen != s.gen || s.timer == nil {
			s.mu.Unlock()
			return
		}
		s.timer = nil
		s.delay = 0
		s.mu.Unlock()
		fire()
	})
	return true
}

// Cancel drops the pending callback, if any. Safe to call when unarmed.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// Armed reports whether a callback is pending.
func (s *Scheduler) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Delay returns the duration the pending callback was armed with, or 0.
func (s *Scheduler) Delay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delay
}

func (s *Scheduler) stopLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.delay = 0
	// Invalidate a callback that already left the clock but has not yet
	// taken the lock.
	s.gen++
}
