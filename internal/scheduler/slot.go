package scheduler

import (
	"sync"
	"time"
)

// Slot holds at most one scheduled task. Scheduling a new task always
// cancels the live one first, so two tasks for the same slot never race.
type Slot struct {
	clock Clock

	mu    sync.Mutex
	gen   uint64
	timer Timer
}

// NewSlot creates an empty slot driven by clock. A nil clock means RealClock.
func NewSlot(clock Clock) *Slot {
	if clock == nil {
		clock = RealClock()
	}
	return &Slot{clock: clock}
}

// Schedule cancels any pending task and runs f after d.
func (s *Slot) Schedule(d time.Duration, f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked()
	s.gen++
	gen := s.gen
	s.timer = s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		// A Stop that lost the race with the timer goroutine still bumped gen.
		if s.gen != gen {
			s.mu.Unlock()
			return
		}
		s.timer = nil
		s.mu.Unlock()

		f()
	})
}

// Cancel drops the pending task, if any. It returns true if a task was pending.
func (s *Slot) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelLocked()
}

// Pending reports whether a task is scheduled and has not run yet.
func (s *Slot) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

func (s *Slot) cancelLocked() bool {
	if s.timer == nil {
		return false
	}
	s.timer.Stop()
	s.timer = nil
	s.gen++
	return true
}
