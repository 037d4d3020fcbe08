package signal

// MotionWindow tracks recent binary motion samples and derives a
// traffic-intensity percentage. Same circular-buffer shape as Window,
// with a running count of set slots instead of a sum.
type MotionWindow struct {
	buf    []uint8
	cursor int
	ones   int
}

// NewMotionWindow creates a zero-filled motion window of size n.
func NewMotionWindow(n int) *MotionWindow {
	return &MotionWindow{buf: make([]uint8, n)}
}

// Insert records one motion sample (true = motion observed this
// interval), overwriting the oldest.
func (m *MotionWindow) Insert(active bool) {
	m.ones -= int(m.buf[m.cursor])
	if active {
		m.buf[m.cursor] = 1
	} else {
		m.buf[m.cursor] = 0
	}
	m.ones += int(m.buf[m.cursor])
	m.cursor = (m.cursor + 1) % len(m.buf)
}

// Intensity returns the share of recent samples with motion as an
// integer percentage in [0, 100].
func (m *MotionWindow) Intensity() int {
	return m.ones * 100 / len(m.buf)
}

// Size returns the window capacity.
func (m *MotionWindow) Size() int {
	return len(m.buf)
}

// Cursor returns the next write position for the persisted-state codec.
func (m *MotionWindow) Cursor() int {
	return m.cursor
}

// Values returns a copy of the slots in storage order.
func (m *MotionWindow) Values() []uint8 {
	out := make([]uint8, len(m.buf))
	copy(out, m.buf)
	return out
}

// Reset zeroes all slots, the cursor, and the count.
func (m *MotionWindow) Reset() {
	for i := range m.buf {
		m.buf[i] = 0
	}
	m.cursor = 0
	m.ones = 0
}

// Restore reloads the window from persisted slots and cursor,
// recomputing the count. Any non-zero slot counts as motion.
func (m *MotionWindow) Restore(values []uint8, cursor int) {
	n := len(m.buf)
	m.ones = 0
	for i := 0; i < n; i++ {
		var v uint8
		if i < len(values) && values[i] != 0 {
			v = 1
		}
		m.buf[i] = v
		m.ones += int(v)
	}
	if cursor < 0 {
		cursor = 0
	}
	m.cursor = cursor % n
}
