package signal

import "testing"

func TestMotionWindowIntensity(t *testing.T) {
	m := NewMotionWindow(10)
	if got := m.Intensity(); got != 0 {
		t.Errorf("empty intensity: got %d, want 0", got)
	}

	// 3 of 10 samples with motion → 30%.
	for i := 0; i < 10; i++ {
		m.Insert(i < 3)
	}
	if got := m.Intensity(); got != 30 {
		t.Errorf("intensity: got %d, want 30", got)
	}
}

func TestMotionWindowSaturates(t *testing.T) {
	m := NewMotionWindow(4)
	for i := 0; i < 12; i++ {
		m.Insert(true)
	}
	if got := m.Intensity(); got != 100 {
		t.Errorf("saturated intensity: got %d, want 100", got)
	}

	// A quiet stretch pushes the active samples out.
	for i := 0; i < 4; i++ {
		m.Insert(false)
	}
	if got := m.Intensity(); got != 0 {
		t.Errorf("drained intensity: got %d, want 0", got)
	}
}

func TestMotionWindowWrapEvictsOldest(t *testing.T) {
	m := NewMotionWindow(3)
	m.Insert(true)
	m.Insert(false)
	m.Insert(false)
	// Evicts the single active sample.
	m.Insert(false)
	if got := m.Intensity(); got != 0 {
		t.Errorf("intensity after eviction: got %d, want 0", got)
	}
}

func TestMotionWindowRestore(t *testing.T) {
	m := NewMotionWindow(5)
	// Non-zero slots normalize to 1.
	m.Restore([]uint8{1, 0, 9, 0, 1}, 3)

	if got := m.Intensity(); got != 60 {
		t.Errorf("intensity after restore: got %d, want 60", got)
	}
	if m.Cursor() != 3 {
		t.Errorf("cursor after restore: got %d, want 3", m.Cursor())
	}
	want := []uint8{1, 0, 1, 0, 1}
	for i, v := range m.Values() {
		if v != want[i] {
			t.Errorf("slot %d: got %d, want %d", i, v, want[i])
		}
	}
}

func TestMotionWindowReset(t *testing.T) {
	m := NewMotionWindow(4)
	m.Insert(true)
	m.Insert(true)
	m.Reset()
	if got := m.Intensity(); got != 0 {
		t.Errorf("intensity after reset: got %d, want 0", got)
	}
	if m.Cursor() != 0 {
		t.Errorf("cursor after reset: got %d, want 0", m.Cursor())
	}
}
