// Package telemetry decides when the node's derived state is worth
// emitting and defines the fixed record handed to the transport.
package telemetry

import (
	"time"

	"github.com/smartcity/streetlight/internal/logic"
)

// Reading is the record emitted per report. It is fixed-size and
// assembled in place each tick; the transport collaborator owns
// serialization.
type Reading struct {
	DeviceID   string
	Timestamp  time.Time
	Raw        int
	Smoothed   int
	Night      bool
	Motion     bool // lights-on window open
	CountdownS int
	Duty       int
	PowerW     float64
	Anomaly    logic.Anomaly
	TrafficPct int // -1 when not derived on this node
	Simulated  bool
	Reason     Reason
}

// Reason classifies why a report fired.
type Reason string

const (
	// ReasonChange marks an event-driven report: (motion, night) moved
	// against the last-sent snapshot.
	ReasonChange Reason = "change"
	// ReasonHeartbeat marks a liveness report in static state.
	ReasonHeartbeat Reason = "heartbeat"
)
