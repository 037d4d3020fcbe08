// Package ingest subscribes to the fleet's telemetry, enriches each
// reading with fleet-side derivations, and feeds the stores.
package ingest

import (
	"math"

	"github.com/smartcity/streetlight/internal/logic"
	"github.com/smartcity/streetlight/internal/signal"
	"github.com/smartcity/streetlight/internal/telemetry"
)

// motionWindowSize is the number of recent readings folded into the
// traffic intensity percentage.
const motionWindowSize = 60

// deviationWatts is how far the reported draw may stray from the duty
// model before the reading is flagged.
const deviationWatts = 1.0

// Pipeline carries one device's enrichment state across readings.
type Pipeline struct {
	motion     *signal.MotionWindow
	ratedWatts float64
}

// NewPipeline creates a pipeline for one device.
func NewPipeline(ratedWatts float64) *Pipeline {
	return &Pipeline{
		motion:     signal.NewMotionWindow(motionWindowSize),
		ratedWatts: ratedWatts,
	}
}

// Enrich folds the reading into the device's motion window and returns
// it with the traffic percentage set and power deviations flagged. A
// node-reported anomaly passes through untouched.
func (p *Pipeline) Enrich(r telemetry.Reading) telemetry.Reading {
	p.motion.Insert(r.Motion)
	r.TrafficPct = p.motion.Intensity()

	expected := float64(r.Duty) / 100 * p.ratedWatts
	if r.Anomaly == logic.AnomalyNone && math.Abs(r.PowerW-expected) > deviationWatts {
		r.Anomaly = logic.AnomalyPowerDeviation
	}
	return r
}
