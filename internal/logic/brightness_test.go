package logic

import "testing"

func TestDecide(t *testing.T) {
	cases := []struct {
		night  bool
		motion bool
		want   int
	}{
		{false, false, DutyOff},
		{false, true, DutyOff}, // motion is irrelevant during day
		{true, false, DutyDim},
		{true, true, DutyFull},
	}

	for _, tc := range cases {
		if got := Decide(tc.night, tc.motion); got != tc.want {
			t.Errorf("Decide(night=%v, motion=%v): got %d, want %d", tc.night, tc.motion, got, tc.want)
		}
	}
}

func TestClassifyPowerLampFailure(t *testing.T) {
	// Dim duty commanded but the lamp draws nothing.
	if got := ClassifyPower(DutyDim, 0.0); got != AnomalyLampFailure {
		t.Errorf("duty=30 watts=0: got %q, want %q", got, AnomalyLampFailure)
	}
	if got := ClassifyPower(DutyFull, 0.05); got != AnomalyLampFailure {
		t.Errorf("duty=100 watts=0.05: got %q, want %q", got, AnomalyLampFailure)
	}
}

func TestClassifyPowerLeakage(t *testing.T) {
	if got := ClassifyPower(0, 2.5); got != AnomalyLeakage {
		t.Errorf("duty=0 watts=2.5: got %q, want %q", got, AnomalyLeakage)
	}
}

func TestClassifyPowerHealthy(t *testing.T) {
	cases := []struct {
		duty  int
		watts float64
	}{
		{DutyFull, 5.0},
		{DutyDim, 1.5},
		{0, 0.0},
		{0, 0.9},  // below the leak threshold
		{10, 0.0}, // trivial duty draws nothing, still fine
	}
	for _, tc := range cases {
		if got := ClassifyPower(tc.duty, tc.watts); got != AnomalyNone {
			t.Errorf("duty=%d watts=%.2f: got %q, want none", tc.duty, tc.watts, got)
		}
	}
}
