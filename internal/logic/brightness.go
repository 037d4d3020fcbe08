package logic

// Duty levels produced by Decide, as percentages of full drive. The
// PWM collaborator maps percent onto its hardware range.
const (
	DutyOff  = 0
	DutyDim  = 30
	DutyFull = 100
)

// Decide maps the classified state to a duty percentage: daylight keeps
// the lamp dark, night idles dim, motion brings full brightness.
func Decide(night, motionActive bool) int {
	switch {
	case !night:
		return DutyOff
	case motionActive:
		return DutyFull
	default:
		return DutyDim
	}
}

// Anomaly is an advisory classification of measured lamp power against
// the commanded duty. Anomalies never halt operation.
type Anomaly string

const (
	AnomalyNone        Anomaly = ""
	AnomalyLampFailure Anomaly = "lamp_failure"
	AnomalyLeakage     Anomaly = "leakage"

	// AnomalyPowerDeviation is assigned fleet-side when the reported
	// draw strays from the duty model. Nodes never emit it.
	AnomalyPowerDeviation Anomaly = "power_deviation"
)

// Thresholds for anomaly inference: duty at or below anomalyMinDuty is
// not expected to draw; draw below anomalyDeadWatts counts as none;
// draw above anomalyLeakWatts with the lamp commanded off is a fault.
const (
	anomalyMinDuty   = 10
	anomalyDeadWatts = 0.1
	anomalyLeakWatts = 1.0
)

// ClassifyPower flags a lamp drawing nothing under a non-trivial duty
// (burnt-out or disconnected) and a lamp drawing real power while
// commanded off (short or leakage to ground).
func ClassifyPower(duty int, watts float64) Anomaly {
	if duty > anomalyMinDuty && watts < anomalyDeadWatts {
		return AnomalyLampFailure
	}
	if duty == 0 && watts > anomalyLeakWatts {
		return AnomalyLeakage
	}
	return AnomalyNone
}
