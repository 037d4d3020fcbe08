package logic

import (
	"sync"
	"testing"
	"time"
)

func TestMailboxTakeAndClear(t *testing.T) {
	var m Mailbox

	if m.TakeAndClear() {
		t.Error("fresh mailbox should be empty")
	}

	m.Set()
	if !m.TakeAndClear() {
		t.Error("expected flag after Set")
	}
	if m.TakeAndClear() {
		t.Error("take must clear: second take should see nothing")
	}
}

func TestMailboxCoalescesBursts(t *testing.T) {
	// Multiple sets between takes collapse into one observation, like
	// repeated edges between loop iterations.
	var m Mailbox
	m.Set()
	m.Set()
	m.Set()

	if !m.TakeAndClear() {
		t.Fatal("expected flag")
	}
	if m.TakeAndClear() {
		t.Error("burst should collapse to a single observation")
	}
}

func TestMailboxConcurrentSetters(t *testing.T) {
	// Many goroutines hammering Set must leave exactly one observable
	// flag and no lost update once they are done.
	var m Mailbox
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Set()
		}()
	}
	wg.Wait()

	if !m.TakeAndClear() {
		t.Error("expected flag after concurrent sets")
	}
	if m.TakeAndClear() {
		t.Error("expected empty mailbox after take")
	}
}

func TestMotionTimerInactiveBeforeFirstTrigger(t *testing.T) {
	mt := NewMotionTimer(30 * time.Second)
	now := time.Date(2026, 3, 1, 22, 0, 0, 0, time.UTC)

	if mt.Active(true, now) {
		t.Error("timer should be inactive before any trigger")
	}
	if got := mt.Countdown(now); got != 0 {
		t.Errorf("countdown before trigger: got %v, want 0", got)
	}
}

func TestMotionTimerWindow(t *testing.T) {
	mt := NewMotionTimer(30 * time.Second)
	start := time.Date(2026, 3, 1, 22, 0, 0, 0, time.UTC)

	mt.Trigger(start)

	if !mt.Active(true, start.Add(29*time.Second)) {
		t.Error("window should be open inside the duration")
	}
	if mt.Active(true, start.Add(30*time.Second)) {
		t.Error("window closes exactly at the duration boundary")
	}
	if got := mt.Countdown(start.Add(10 * time.Second)); got != 20*time.Second {
		t.Errorf("countdown: got %v, want 20s", got)
	}
	if got := mt.Countdown(start.Add(45 * time.Second)); got != 0 {
		t.Errorf("countdown after expiry: got %v, want 0", got)
	}
}

func TestMotionTimerSuppressedDuringDay(t *testing.T) {
	mt := NewMotionTimer(30 * time.Second)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mt.Trigger(now)
	if mt.Active(false, now.Add(time.Second)) {
		t.Error("daytime motion must not open the window")
	}
	// The trigger still counts: if night falls inside the window the
	// lamp comes up.
	if !mt.Active(true, now.Add(time.Second)) {
		t.Error("window should read open once night is true")
	}
}

func TestMotionTimerRetrigger(t *testing.T) {
	// Trigger at t, retrigger at t+δ (δ < duration): the window stays
	// open continuously until t+δ+duration and never expires early.
	mt := NewMotionTimer(30 * time.Second)
	start := time.Date(2026, 3, 1, 22, 0, 0, 0, time.UTC)

	mt.Trigger(start)
	retrigger := start.Add(20 * time.Second)
	mt.Trigger(retrigger)

	for _, offset := range []time.Duration{
		21 * time.Second,
		35 * time.Second, // past the original deadline
		49 * time.Second,
	} {
		if !mt.Active(true, start.Add(offset)) {
			t.Errorf("t+%v: window should still be open after retrigger", offset)
		}
	}
	if mt.Active(true, retrigger.Add(30*time.Second)) {
		t.Error("window should close at retrigger+duration")
	}
	if got := mt.Countdown(retrigger.Add(5 * time.Second)); got != 25*time.Second {
		t.Errorf("countdown after retrigger: got %v, want 25s", got)
	}
}
