package hardware

import "errors"

// FakeLight is a test double that returns scripted ADC values.
type FakeLight struct {
	// Samples contains scripted readings. Each call to Read() consumes
	// the next sample; once exhausted the last sample repeats.
	Samples []int

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeLight creates a FakeLight with the given samples.
func NewFakeLight(samples []int) *FakeLight {
	return &FakeLight{Samples: samples}
}

// Read returns the next scripted sample.
func (f *FakeLight) Read() (int, error) {
	if f.ReadError != nil {
		return 0, f.ReadError
	}

	if len(f.Samples) == 0 {
		return 0, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample, nil
}

// Close marks the sensor as closed.
func (f *FakeLight) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the sensor to the beginning of samples.
func (f *FakeLight) Reset() {
	f.index = 0
	f.Closed = false
}

// FakeMotion is a test double for the PIR.
type FakeMotion struct {
	// WatchError, if set, will be returned by Watch()
	WatchError error

	// Closed tracks if Close was called
	Closed bool

	onMotion func()
}

// NewFakeMotion creates a FakeMotion.
func NewFakeMotion() *FakeMotion {
	return &FakeMotion{}
}

// Watch registers the motion callback.
func (f *FakeMotion) Watch(onMotion func()) error {
	if f.WatchError != nil {
		return f.WatchError
	}
	f.onMotion = onMotion
	return nil
}

// Pulse simulates one motion edge. Without a registered callback it is
// a no-op, like an unarmed PIR.
func (f *FakeMotion) Pulse() {
	if f.onMotion != nil {
		f.onMotion()
	}
}

// Close marks the sensor as closed.
func (f *FakeMotion) Close() error {
	f.Closed = true
	return nil
}

// FakeLamp is a test double that records duty commands.
type FakeLamp struct {
	// Duties contains every duty cycle that was commanded, in order.
	Duties []int

	// Watts controls the value PowerW returns.
	Watts float64

	// SetError, if set, will be returned by SetDuty()
	SetError error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeLamp creates a FakeLamp.
func NewFakeLamp() *FakeLamp {
	return &FakeLamp{}
}

// SetDuty records the commanded duty cycle.
func (f *FakeLamp) SetDuty(duty int) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.Duties = append(f.Duties, duty)
	return nil
}

// Duty returns the last commanded duty cycle, or 0 before any command.
func (f *FakeLamp) Duty() int {
	if len(f.Duties) == 0 {
		return 0
	}
	return f.Duties[len(f.Duties)-1]
}

// PowerW returns the scripted wattage.
func (f *FakeLamp) PowerW() (float64, error) {
	return f.Watts, nil
}

// Close marks the lamp as closed.
func (f *FakeLamp) Close() error {
	f.Closed = true
	return nil
}

// FakeIndicator records colors and chirps.
type FakeIndicator struct {
	// Colors contains every color that was set, in order.
	Colors []Color

	// Chirps counts buzzer chirps.
	Chirps int

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeIndicator creates a FakeIndicator.
func NewFakeIndicator() *FakeIndicator {
	return &FakeIndicator{}
}

// SetColor records the color.
func (f *FakeIndicator) SetColor(c Color) error {
	f.Colors = append(f.Colors, c)
	return nil
}

// Last returns the most recent color, or ColorOff before any.
func (f *FakeIndicator) Last() Color {
	if len(f.Colors) == 0 {
		return ColorOff
	}
	return f.Colors[len(f.Colors)-1]
}

// Chirp counts the chirp.
func (f *FakeIndicator) Chirp() error {
	f.Chirps++
	return nil
}

// Close marks the indicator as closed.
func (f *FakeIndicator) Close() error {
	f.Closed = true
	return nil
}
