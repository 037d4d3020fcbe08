// Package replay feeds recorded sensor samples through the same
// smoothing and classification the node runs live, one sample per CLI
// invocation, carrying the derived state across runs in a binary
// record per device.
package replay

import (
	"errors"
	"fmt"
	"strings"

	"github.com/smartcity/streetlight/internal/hardware"
	"github.com/smartcity/streetlight/internal/logic"
)

// Engine runs samples against a device's persisted state.
type Engine struct {
	store      *FileStore
	nightEnter int
	dayExit    int
	durationS  int
	powerW     float64
}

// NewEngine creates an engine over the given store. powerW overrides
// the measured draw for anomaly probing; negative means derive it from
// the duty model instead.
func NewEngine(store *FileStore, nightEnter, dayExit, durationS int, powerW float64) *Engine {
	return &Engine{
		store:      store,
		nightEnter: nightEnter,
		dayExit:    dayExit,
		durationS:  durationS,
		powerW:     powerW,
	}
}

// Result is the derived state printed after each operation.
type Result struct {
	Device     string  `json:"device"`
	Raw        int     `json:"raw"`
	Smoothed   int     `json:"smoothed"`
	Night      bool    `json:"night"`
	Motion     bool    `json:"motion"`
	TrafficPct int     `json:"traffic_pct"`
	Duty       int     `json:"duty"`
	CountdownS int     `json:"countdown_s"`
	PowerW     float64 `json:"power_w"`
	Anomaly    string  `json:"anomaly,omitempty"`
}

// Process feeds one sample through the pipeline and persists the
// updated state. motion reports whether the PIR fired during the
// sample interval.
func (e *Engine) Process(device string, raw int, motion bool) (Result, error) {
	if err := validDevice(device); err != nil {
		return Result{}, err
	}

	s := e.store.Load(device)
	smoothed := s.Window.Insert(raw)
	s.Night = logic.ClassifyOnce(smoothed, s.Night, e.nightEnter, e.dayExit)
	s.Motion.Insert(motion)

	duty := logic.Decide(s.Night, motion)
	countdown := 0
	if s.Night && motion {
		countdown = e.durationS
	}

	watts := e.powerW
	if watts < 0 {
		watts = float64(duty) / 100 * hardware.DefaultRatedWatts
	}

	if err := e.store.Save(device, s); err != nil {
		return Result{}, err
	}

	return Result{
		Device:     device,
		Raw:        raw,
		Smoothed:   smoothed,
		Night:      s.Night,
		Motion:     motion,
		TrafficPct: s.Motion.Intensity(),
		Duty:       duty,
		CountdownS: countdown,
		PowerW:     watts,
		Anomaly:    string(logic.ClassifyPower(duty, watts)),
	}, nil
}

// Reset discards the device's persisted state.
func (e *Engine) Reset(device string) error {
	if err := validDevice(device); err != nil {
		return err
	}
	return e.store.Remove(device)
}

// validDevice rejects ids that would escape the state directory when
// used as a file name.
func validDevice(device string) error {
	if device == "" {
		return errors.New("device id required")
	}
	if strings.ContainsAny(device, `/\`) || strings.Contains(device, "..") {
		return fmt.Errorf("device id %q must not contain path elements", device)
	}
	return nil
}
