package signal

import "testing"

func TestWindowZeroPaddedStartup(t *testing.T) {
	// Nine zeros then one reading of 1000 in a window of 10: the sum is
	// 1000 and the truncated average is 100.
	w := NewWindow(10)
	for i := 0; i < 9; i++ {
		if got := w.Insert(0); got != 0 {
			t.Fatalf("insert %d: got %d, want 0", i, got)
		}
	}
	if got := w.Insert(1000); got != 100 {
		t.Errorf("10th insert: got %d, want 100", got)
	}
	if w.Sum() != 1000 {
		t.Errorf("Sum: got %d, want 1000", w.Sum())
	}
}

func TestWindowConvergence(t *testing.T) {
	// After N equal readings v the average is exactly v and the running
	// sum is N*v, regardless of prior contents.
	w := NewWindow(8)
	for _, prime := range []int{3, 900, 12, 4095, 0, 77} {
		w.Insert(prime)
	}

	const v = 250
	var got int
	for i := 0; i < w.Size(); i++ {
		got = w.Insert(v)
	}
	if got != v {
		t.Errorf("average after %d equal inserts: got %d, want %d", w.Size(), got, v)
	}
	if w.Sum() != v*w.Size() {
		t.Errorf("Sum: got %d, want %d", w.Sum(), v*w.Size())
	}
}

func TestWindowTruncation(t *testing.T) {
	// 3+3+3+1 = 10, /4 truncates to 2 (not rounds to 3).
	w := NewWindow(4)
	w.Insert(3)
	w.Insert(3)
	w.Insert(3)
	if got := w.Insert(1); got != 2 {
		t.Errorf("truncated average: got %d, want 2", got)
	}
}

func TestWindowOverwritesOldest(t *testing.T) {
	w := NewWindow(3)
	w.Insert(30)
	w.Insert(60)
	w.Insert(90)
	// Next insert evicts the 30.
	if got := w.Insert(120); got != (60+90+120)/3 {
		t.Errorf("average after wrap: got %d, want %d", got, (60+90+120)/3)
	}
	if w.Sum() != 60+90+120 {
		t.Errorf("Sum after wrap: got %d, want %d", w.Sum(), 60+90+120)
	}
}

func TestWindowSumInvariant(t *testing.T) {
	// The running sum must equal the recomputed slot sum after any
	// sequence of inserts, including negatives.
	w := NewWindow(5)
	seq := []int{100, -40, 0, 999, 5, 5, 5, -1000, 42, 7, 7, 7}
	for _, v := range seq {
		w.Insert(v)
		total := 0
		for _, s := range w.Values() {
			total += s
		}
		if w.Sum() != total {
			t.Fatalf("after inserting %d: Sum=%d, slot total=%d", v, w.Sum(), total)
		}
	}
}

func TestWindowReset(t *testing.T) {
	w := NewWindow(4)
	w.Insert(500)
	w.Insert(600)
	w.Reset()

	if w.Sum() != 0 {
		t.Errorf("Sum after reset: got %d, want 0", w.Sum())
	}
	if w.Cursor() != 0 {
		t.Errorf("Cursor after reset: got %d, want 0", w.Cursor())
	}
	if got := w.Insert(100); got != 25 {
		t.Errorf("first insert after reset: got %d, want 25", got)
	}
}

func TestWindowRestoreRecomputesSum(t *testing.T) {
	w := NewWindow(4)
	w.Restore([]int{10, 20, 30, 40}, 2)

	if w.Sum() != 100 {
		t.Errorf("Sum after restore: got %d, want 100", w.Sum())
	}
	if w.Cursor() != 2 {
		t.Errorf("Cursor after restore: got %d, want 2", w.Cursor())
	}
	if w.Average() != 25 {
		t.Errorf("Average after restore: got %d, want 25", w.Average())
	}

	// The next insert overwrites slot 2 (the 30).
	w.Insert(70)
	if w.Sum() != 10+20+70+40 {
		t.Errorf("Sum after post-restore insert: got %d, want %d", w.Sum(), 10+20+70+40)
	}
}

func TestWindowRestoreShortAndOversizedInputs(t *testing.T) {
	w := NewWindow(4)

	// Short input pads with zeros.
	w.Restore([]int{7}, 1)
	if w.Sum() != 7 {
		t.Errorf("Sum after short restore: got %d, want 7", w.Sum())
	}

	// Oversized input is truncated to the window size; the cursor wraps.
	w.Restore([]int{1, 2, 3, 4, 5, 6}, 9)
	if w.Sum() != 1+2+3+4 {
		t.Errorf("Sum after oversized restore: got %d, want %d", w.Sum(), 1+2+3+4)
	}
	if w.Cursor() != 1 {
		t.Errorf("Cursor after oversized restore: got %d, want 1", w.Cursor())
	}
}
