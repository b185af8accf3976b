package game

import (
	"time"

	"github.com/coder/quartz"
)

// TimerSlot holds at most one pending one-shot timer for a single purpose.
//
// Every Arm and Stop bumps the slot's generation. A callback receives the
// generation it was armed with and must Claim it under the game lock before
// acting, so a timer that fired while being cancelled does nothing.
// TimerSlot is not safe for concurrent use.
type TimerSlot struct {
	clock quartz.Clock
	tag   string
	timer *quartz.Timer
	gen   uint64
}

// NewTimerSlot creates a slot. tag labels the timers for mock clock traps.
func NewTimerSlot(clock quartz.Clock, tag string) *TimerSlot {
	return &TimerSlot{clock: clock, tag: tag}
}

// Arm cancels any pending timer and schedules fn after d.
func (s *TimerSlot) Arm(d time.Duration, fn func(gen uint64)) uint64 {
	s.Stop()
	gen := s.gen
	s.timer = s.clock.AfterFunc(d, func() { fn(gen) }, s.tag)
	return gen
}

// Stop cancels the pending timer, if any, and invalidates its callback.
func (s *TimerSlot) Stop() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

// Claim reports whether gen belongs to the pending timer and, if so,
// marks the slot empty.
func (s *TimerSlot) Claim(gen uint64) bool {
	if s.timer == nil || gen != s.gen {
		return false
	}
	s.timer = nil
	return true
}

// Pending reports whether a timer is armed and not yet claimed.
func (s *TimerSlot) Pending() bool {
	return s.timer != nil
}
