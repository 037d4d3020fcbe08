// Package signal provides fixed-size sliding windows over sensor samples.
// Windows are single-owner — the control loop is the only writer — and
// never allocate after construction.
package signal

// Window is a fixed-capacity circular buffer of raw readings with a
// running sum, producing an integer moving average in O(1) per insert.
type Window struct {
	buf    []int
	cursor int // next write position
	sum    int
}

// NewWindow creates a zero-filled window of size n. The first n averages
// include the zero padding — accepted startup bias, not an error.
func NewWindow(n int) *Window {
	return &Window{buf: make([]int, n)}
}

// Insert overwrites the oldest slot with raw and returns the new average.
// The division truncates toward zero. Out-of-range values are accepted
// as-is; smoothing absorbs transient spikes.
func (w *Window) Insert(raw int) int {
	w.sum -= w.buf[w.cursor]
	w.buf[w.cursor] = raw
	w.sum += raw
	w.cursor = (w.cursor + 1) % len(w.buf)
	return w.sum / len(w.buf)
}

// Average returns the current truncated average without inserting.
func (w *Window) Average() int {
	return w.sum / len(w.buf)
}

// Sum returns the running sum. Invariant: Sum() equals the sum of all
// slots at all times.
func (w *Window) Sum() int {
	return w.sum
}

// Size returns the window capacity.
func (w *Window) Size() int {
	return len(w.buf)
}

// Cursor returns the next write position. Used by the persisted-state
// codec; not meaningful to other callers.
func (w *Window) Cursor() int {
	return w.cursor
}

// Values returns a copy of the slots in storage order (not insertion
// order).
func (w *Window) Values() []int {
	out := make([]int, len(w.buf))
	copy(out, w.buf)
	return out
}

// Reset zeroes all slots, the cursor, and the running sum.
func (w *Window) Reset() {
	for i := range w.buf {
		w.buf[i] = 0
	}
	w.cursor = 0
	w.sum = 0
}

// Restore reloads the window from persisted slots and cursor. The
// running sum is recomputed from the slots so the invariant holds even
// if the caller's stored sum has drifted; callers that persisted a sum
// should compare it against Sum() to detect corruption.
func (w *Window) Restore(values []int, cursor int) {
	n := len(w.buf)
	w.sum = 0
	for i := 0; i < n; i++ {
		v := 0
		if i < len(values) {
			v = values[i]
		}
		w.buf[i] = v
		w.sum += v
	}
	if cursor < 0 {
		cursor = 0
	}
	w.cursor = cursor % n
}
