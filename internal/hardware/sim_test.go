package hardware

import (
	"testing"
	"time"
)

// Compile-time interface checks: one simulator stands in for everything.
var (
	_ LightSensor  = (*Simulator)(nil)
	_ MotionSensor = (*Simulator)(nil)
	_ Lamp         = (*Simulator)(nil)
	_ Indicator    = (*Simulator)(nil)
)

// Equator, prime meridian: solar noon and midnight line up with UTC.
func equatorSim(seed int64) *Simulator {
	return NewSimulator(0, 0, DefaultRatedWatts, seed)
}

func TestSimulatorDarkAtMidnight(t *testing.T) {
	s := equatorSim(1)
	s.Now = func() time.Time {
		return time.Date(2026, 6, 21, 0, 0, 0, 0, time.UTC)
	}

	got, err := s.Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Night floor minus worst-case noise still clears a 2500 threshold.
	if got < 2500 {
		t.Errorf("midnight reading %d should be above a night threshold", got)
	}
}

func TestSimulatorBrightAtNoon(t *testing.T) {
	s := equatorSim(1)
	s.Now = func() time.Time {
		return time.Date(2026, 6, 21, 12, 0, 0, 0, time.UTC)
	}

	got, err := s.Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got > 600 {
		t.Errorf("noon reading %d should be below a day threshold", got)
	}
}

func TestSimulatorReadingsInRange(t *testing.T) {
	s := equatorSim(7)
	base := time.Date(2026, 6, 21, 0, 0, 0, 0, time.UTC)
	now := base
	s.Now = func() time.Time { return now }

	// Sweep a full day in 10-minute steps.
	for i := 0; i < 144; i++ {
		now = base.Add(time.Duration(i) * 10 * time.Minute)
		got, err := s.Read()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got < 0 || got > simADCMax {
			t.Fatalf("reading %d out of ADC range at step %d", got, i)
		}
	}
}

func TestSimulatorMotionAtNight(t *testing.T) {
	s := equatorSim(42)
	s.Now = func() time.Time {
		return time.Date(2026, 6, 21, 0, 0, 0, 0, time.UTC)
	}

	fired := 0
	if err := s.Watch(func() { fired++ }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 200; i++ {
		s.Read()
	}

	// 12% per sample over 200 samples; zero hits would mean the roll
	// never runs.
	if fired == 0 {
		t.Error("expected at least one motion event over 200 night samples")
	}
}

func TestSimulatorNoMotionBeforeWatch(t *testing.T) {
	s := equatorSim(42)
	s.Now = func() time.Time {
		return time.Date(2026, 6, 21, 0, 0, 0, 0, time.UTC)
	}

	// No callback registered: reads must not panic.
	for i := 0; i < 50; i++ {
		if _, err := s.Read(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}

func TestSimulatorPowerModel(t *testing.T) {
	s := equatorSim(1)

	tests := []struct {
		duty int
		want float64
	}{
		{0, 0},
		{30, 1.5},
		{100, 5.0},
	}

	for _, tt := range tests {
		s.SetDuty(tt.duty)
		got, err := s.PowerW()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tt.want {
			t.Errorf("duty %d: expected %v W, got %v", tt.duty, tt.want, got)
		}
	}
}

func TestSimulatorDutyClamped(t *testing.T) {
	s := equatorSim(1)

	s.SetDuty(150)
	if s.Duty() != 100 {
		t.Errorf("expected duty clamped to 100, got %d", s.Duty())
	}

	s.SetDuty(-5)
	if s.Duty() != 0 {
		t.Errorf("expected duty clamped to 0, got %d", s.Duty())
	}
}

func TestSimulatorLampFault(t *testing.T) {
	s := equatorSim(1)
	s.FailLamp = true

	s.SetDuty(100)
	got, err := s.PowerW()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A dead lamp draws nearly nothing even at full duty.
	if got >= 0.1 {
		t.Errorf("expected dead-lamp draw below 0.1 W, got %v", got)
	}
}

func TestSimulatorLeakFault(t *testing.T) {
	s := equatorSim(1)
	s.Leak = true

	s.SetDuty(0)
	got, err := s.PowerW()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got <= 1.0 {
		t.Errorf("expected leak draw above 1.0 W, got %v", got)
	}

	// The leak only shows with the lamp off.
	s.SetDuty(100)
	got, _ = s.PowerW()
	if got != 5.0 {
		t.Errorf("expected normal draw at full duty, got %v", got)
	}
}

func TestSimulatorIndicator(t *testing.T) {
	s := equatorSim(1)

	s.SetColor(ColorCyan)
	if s.LastColor() != ColorCyan {
		t.Errorf("expected cyan, got %s", s.LastColor())
	}

	s.Chirp()
	s.Chirp()
	if s.Chirps() != 2 {
		t.Errorf("expected 2 chirps, got %d", s.Chirps())
	}
}
