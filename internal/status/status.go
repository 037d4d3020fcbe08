// Package status provides a thread-safe status tracker for the
// streetlight-node daemon. It is read by HTTP handlers and drives the
// indicator LED.
package status

import (
	"sync"
	"time"

	"github.com/smartcity/streetlight/internal/hardware"
	"github.com/smartcity/streetlight/internal/logic"
)

// Phase is the daemon's coarse lifecycle state.
type Phase string

const (
	PhaseInit  Phase = "initializing"
	PhaseReady Phase = "ready"
	PhaseError Phase = "error"
)

// Config contains daemon configuration for display. This is a local
// copy to avoid importing internal/config from status.
type Config struct {
	DeviceID   string
	PollMs     int64
	HeartbeatS int64
	RetryS     int64
	DurationS  int64
	NightEnter int
	DayExit    int
	Policy     string
	Broker     string
	HTTPAddr   string
	Simulate   bool
}

// TickState is the per-iteration state pushed by the control loop.
type TickState struct {
	Night      bool
	Motion     bool
	CountdownS int
	Duty       int
	PowerW     float64
	Raw        int
	Smoothed   int
	Anomaly    logic.Anomaly
	Override   bool
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Phase         Phase
	Tick          TickState
	MQTTConnected bool
	StartTime     time.Time
	Now           time.Time
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// ColorFor maps daemon state to the indicator color: orange while
// initializing, red on a hardware fault, blue while the session is
// down, then green for day, cyan for night with motion, purple for
// night idle.
func ColorFor(s Snapshot) hardware.Color {
	switch s.Phase {
	case PhaseInit:
		return hardware.ColorOrange
	case PhaseError:
		return hardware.ColorRed
	}
	if !s.MQTTConnected {
		return hardware.ColorBlue
	}
	if !s.Tick.Night {
		return hardware.ColorGreen
	}
	if s.Tick.Motion {
		return hardware.ColorCyan
	}
	return hardware.ColorPurple
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Phase:     PhaseInit,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the per-iteration state. Called from runLoop on every tick.
func (t *Tracker) Update(state TickState) {
	t.mu.Lock()
	t.snap.Tick = state
	t.mu.Unlock()
}

// SetPhase sets the lifecycle phase.
func (t *Tracker) SetPhase(p Phase) {
	t.mu.Lock()
	t.snap.Phase = p
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
