package telemetry

import "time"

// Reporter owns the last-sent snapshot and the heartbeat clock. A
// change in (motion, night) against the snapshot reports immediately;
// otherwise a heartbeat fires once per interval to prove liveness.
// Emission is best-effort: while the session is down nothing is due and
// nothing is queued.
type Reporter struct {
	heartbeat time.Duration
	lastEmit  time.Time

	sentNight  bool
	sentMotion bool
	sentValid  bool // false until the first delivered report
}

// NewReporter creates a reporter with the given heartbeat interval.
// An interval <= 0 disables heartbeats; only changes report.
func NewReporter(heartbeat time.Duration) *Reporter {
	return &Reporter{heartbeat: heartbeat}
}

// Due returns why a report should be attempted now, or "" for none.
// The first report after a session comes up counts as a change, so a
// fresh or reconnected node announces itself immediately.
func (r *Reporter) Due(night, motion, connected bool, now time.Time) Reason {
	if !connected {
		return ""
	}
	if !r.sentValid || night != r.sentNight || motion != r.sentMotion {
		return ReasonChange
	}
	if r.heartbeat > 0 && now.Sub(r.lastEmit) >= r.heartbeat {
		return ReasonHeartbeat
	}
	return ""
}

// Attempted records an emission attempt at now. The snapshot advances
// only when delivered is true; a dropped report leaves the diff armed
// so the state change is not lost, while the heartbeat clock always
// moves so failures cannot tighten the cadence.
func (r *Reporter) Attempted(night, motion bool, now time.Time, delivered bool) {
	r.lastEmit = now
	if delivered {
		r.sentNight = night
		r.sentMotion = motion
		r.sentValid = true
	}
}

// LastSent returns the last delivered (night, motion) pair and whether
// any report has been delivered yet.
func (r *Reporter) LastSent() (night, motion, valid bool) {
	return r.sentNight, r.sentMotion, r.sentValid
}
