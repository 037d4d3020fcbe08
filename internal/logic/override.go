package logic

import (
	"sync"
	"time"
)

// Override pins the lamp duty to an operator-chosen value until a
// deadline. It is written from the command handler's goroutine and read
// by the control loop, so access is guarded; everything else the loop
// touches stays single-owner.
type Override struct {
	mu      sync.Mutex
	duty    int
	expires time.Time
	active  bool
}

// Set pins duty until the deadline, replacing any earlier override.
func (o *Override) Set(duty int, expires time.Time) {
	o.mu.Lock()
	o.duty = duty
	o.expires = expires
	o.active = true
	o.mu.Unlock()
}

// Clear cancels a pending override.
func (o *Override) Clear() {
	o.mu.Lock()
	o.active = false
	o.mu.Unlock()
}

// Apply returns the override duty while one is active at now, else the
// given duty. Expired overrides are dropped on observation.
func (o *Override) Apply(duty int, now time.Time) int {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.active {
		return duty
	}
	if now.After(o.expires) {
		o.active = false
		return duty
	}
	return o.duty
}

// Active reports whether an override is in force at now.
func (o *Override) Active(now time.Time) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active && !now.After(o.expires)
}
