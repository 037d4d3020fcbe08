package hardware

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/sixdouglas/suncalc"
)

// Synthetic ADC levels. The night floor clears any sane nightEnter
// threshold and the day level sits under any sane dayExit.
const (
	simADCMax   = 4095
	simADCNight = 3300
	simADCDay   = 300

	// Twilight band: the reading ramps between day and night while the
	// sun climbs from the horizon to this altitude.
	simTwilightRad = 15.0 * math.Pi / 180

	// Chance per sample of a passer-by, in percent.
	simMotionNightPct = 12
	simMotionDayPct   = 2
)

// Simulator stands in for all four hardware devices. The light curve
// follows the real sun at the configured coordinates, motion arrives
// pseudo-randomly (more often after dark), and the lamp draws modelled
// power with optional injected faults.
type Simulator struct {
	// Now supplies the current time; defaults to time.Now.
	Now func() time.Time

	// FailLamp makes the lamp draw nothing regardless of duty.
	FailLamp bool

	// Leak makes current flow while the lamp is off.
	Leak bool

	lat        float64
	lon        float64
	ratedWatts float64
	rng        *rand.Rand

	mu        sync.Mutex
	onMotion  func()
	duty      int
	lastColor Color
	chirps    int
}

// NewSimulator creates a simulator for the given coordinates. The seed
// fixes the motion and noise sequence so runs are reproducible.
func NewSimulator(lat, lon, ratedWatts float64, seed int64) *Simulator {
	return &Simulator{
		Now:        time.Now,
		lat:        lat,
		lon:        lon,
		ratedWatts: ratedWatts,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// Read returns a synthetic ADC value derived from the sun's altitude,
// plus sensor noise. Each read also rolls for a motion event, so the
// simulated world advances at the loop's sampling pace.
func (s *Simulator) Read() (int, error) {
	altitude := suncalc.GetPosition(s.Now(), s.lat, s.lon).Altitude

	level := simADCNight
	switch {
	case altitude >= simTwilightRad:
		level = simADCDay
	case altitude > 0:
		frac := altitude / simTwilightRad
		level = simADCNight - int(frac*float64(simADCNight-simADCDay))
	}

	s.mu.Lock()
	level += s.rng.Intn(41) - 20
	s.rollMotion(altitude <= 0)
	s.mu.Unlock()

	if level < 0 {
		level = 0
	}
	if level > simADCMax {
		level = simADCMax
	}
	return level, nil
}

// rollMotion fires the watch callback with the configured probability.
// Caller holds the mutex.
func (s *Simulator) rollMotion(dark bool) {
	if s.onMotion == nil {
		return
	}
	pct := simMotionDayPct
	if dark {
		pct = simMotionNightPct
	}
	if s.rng.Intn(100) < pct {
		s.onMotion()
	}
}

// Watch registers the motion callback.
func (s *Simulator) Watch(onMotion func()) error {
	s.mu.Lock()
	s.onMotion = onMotion
	s.mu.Unlock()
	return nil
}

// SetDuty records the commanded duty cycle.
func (s *Simulator) SetDuty(duty int) error {
	if duty < 0 {
		duty = 0
	}
	if duty > 100 {
		duty = 100
	}
	s.mu.Lock()
	s.duty = duty
	s.mu.Unlock()
	return nil
}

// Duty returns the last commanded duty cycle.
func (s *Simulator) Duty() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duty
}

// PowerW returns the modelled draw, shaped by any injected fault.
func (s *Simulator) PowerW() (float64, error) {
	s.mu.Lock()
	duty := s.duty
	s.mu.Unlock()

	if s.FailLamp {
		return 0.02, nil
	}
	if s.Leak && duty == 0 {
		return 1.5, nil
	}
	return float64(duty) / 100 * s.ratedWatts, nil
}

// SetColor records the indicator color.
func (s *Simulator) SetColor(c Color) error {
	s.mu.Lock()
	s.lastColor = c
	s.mu.Unlock()
	return nil
}

// LastColor returns the most recent indicator color.
func (s *Simulator) LastColor() Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastColor
}

// Chirp counts buzzer chirps.
func (s *Simulator) Chirp() error {
	s.mu.Lock()
	s.chirps++
	s.mu.Unlock()
	return nil
}

// Chirps returns how many times the buzzer fired.
func (s *Simulator) Chirps() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chirps
}

// Close is a no-op; the simulator holds no resources.
func (s *Simulator) Close() error {
	return nil
}
