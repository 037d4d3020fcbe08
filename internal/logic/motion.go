package logic

import (
	"sync/atomic"
	"time"
)

// Mailbox is the single-slot channel between the motion event context
// and the control loop. The event side only sets the flag and returns;
// the loop side atomically takes and clears it once per iteration. A
// set that races a take lands in the next iteration — never lost,
// never torn.
type Mailbox struct {
	flag atomic.Bool
}

// Set raises the flag. Safe from any goroutine; does not block,
// allocate, or log.
func (m *Mailbox) Set() {
	m.flag.Store(true)
}

// TakeAndClear reports whether the flag was set, clearing it in the
// same atomic step.
func (m *Mailbox) TakeAndClear() bool {
	return m.flag.Swap(false)
}

// MotionTimer turns discrete motion triggers into a retriggerable
// lights-on window. Owned solely by the control loop.
type MotionTimer struct {
	duration    time.Duration
	lastTrigger time.Time
}

// NewMotionTimer creates a timer whose window stays open for duration
// after each trigger. Before the first trigger the window is closed.
func NewMotionTimer(duration time.Duration) *MotionTimer {
	return &MotionTimer{duration: duration}
}

// Trigger records a motion event at now. Triggering during an open
// window resets the deadline forward; windows never stack.
func (t *MotionTimer) Trigger(now time.Time) {
	t.lastTrigger = now
}

// Active reports whether the lights-on window is open. Motion only
// drives the lamp at night; during day the window reads closed even
// right after a trigger.
func (t *MotionTimer) Active(night bool, now time.Time) bool {
	if !night {
		return false
	}
	return now.Sub(t.lastTrigger) < t.duration
}

// Countdown returns the time left in the window, floored at zero.
func (t *MotionTimer) Countdown(now time.Time) time.Duration {
	remaining := t.duration - now.Sub(t.lastTrigger)
	if remaining < 0 {
		return 0
	}
	return remaining
}
