// Package logic contains the pure decision logic for the street-light
// node: day/night classification, the motion latch and its lights-on
// timer, the brightness policy, and power-anomaly inference. This
// package has no hardware, network, or OS dependencies; time is always
// injectable via time.Time parameters.
package logic

// Classifier is the day/night hysteresis state machine. Readings rise
// with darkness, so night is entered above nightEnter and left below
// dayExit; inside the dead band the previous state is sticky, which is
// what stops dusk noise from strobing the lamp.
type Classifier struct {
	nightEnter int
	dayExit    int
	night      bool
}

// NewClassifier creates a classifier starting in day state. Callers
// must have validated nightEnter > dayExit; with the band inverted the
// dead zone collapses and the state chatters.
func NewClassifier(nightEnter, dayExit int) *Classifier {
	return &Classifier{nightEnter: nightEnter, dayExit: dayExit}
}

// ClassifyOnce applies the hysteresis rule to a single smoothed reading.
func ClassifyOnce(smoothed int, previous bool, nightEnter, dayExit int) bool {
	if smoothed > nightEnter {
		return true
	}
	if smoothed < dayExit {
		return false
	}
	return previous
}

// Classify consumes one smoothed reading and returns the updated state.
func (c *Classifier) Classify(smoothed int) bool {
	c.night = ClassifyOnce(smoothed, c.night, c.nightEnter, c.dayExit)
	return c.night
}

// Night returns the current state without consuming a reading.
func (c *Classifier) Night() bool {
	return c.night
}
