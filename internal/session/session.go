// Package session provides the reconnect policy for the node's network
// session: attempts are spaced by a retry interval and never block the
// control loop.
package session

import (
	"log/slog"
	"time"
)

// Dialer is the transport collaborator the scheduler drives.
type Dialer interface {
	// StartAttempt begins one session establishment attempt and returns
	// without waiting for the outcome. Implementations must ignore
	// calls while an attempt is already pending.
	StartAttempt()

	// Alive reports whether the session is currently established.
	Alive() bool
}

// Scheduler is the two-state session machine: Disconnected and
// Connected. From Disconnected at most one attempt starts per retry
// interval; outcomes are observed through Dialer.Alive on later calls,
// so a slow broker can never stretch a loop iteration.
type Scheduler struct {
	dialer        Dialer
	retryInterval time.Duration
	log           *slog.Logger

	connected   bool
	lastAttempt time.Time
}

// NewScheduler creates a scheduler in the Disconnected state. A nil
// logger falls back to slog.Default().
func NewScheduler(dialer Dialer, retryInterval time.Duration, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		dialer:        dialer,
		retryInterval: retryInterval,
		log:           log,
	}
}

// Service advances the state machine one step and returns the resulting
// connected state. Called once per loop iteration; never blocks.
func (s *Scheduler) Service(now time.Time) bool {
	alive := s.dialer.Alive()

	if s.connected {
		if !alive {
			s.connected = false
			s.log.Warn("session lost")
		}
		return s.connected
	}

	if alive {
		s.connected = true
		s.log.Info("session established")
		return true
	}

	if now.Sub(s.lastAttempt) >= s.retryInterval {
		s.lastAttempt = now
		s.dialer.StartAttempt()
	}
	return false
}

// Connected reports the state as of the last Service call.
func (s *Scheduler) Connected() bool {
	return s.connected
}
