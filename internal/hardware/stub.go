//go:build !linux

package hardware

import "errors"

var errNotSupported = errors.New("hardware: not supported on this platform (requires Linux)")

// RealMotion is not available on non-Linux platforms.
type RealMotion struct{}

// NewRealMotion returns an error on non-Linux platforms.
func NewRealMotion(chipName string, pin int) (*RealMotion, error) {
	return nil, errNotSupported
}

func (m *RealMotion) Watch(onMotion func()) error { return errNotSupported }
func (m *RealMotion) Close() error                { return nil }

// RealADC is not available on non-Linux platforms.
type RealADC struct{}

// NewRealADC returns an error on non-Linux platforms.
func NewRealADC(path string) (*RealADC, error) {
	return nil, errNotSupported
}

func (a *RealADC) Read() (int, error) { return 0, errNotSupported }
func (a *RealADC) Close() error       { return nil }

// RealLightLine is not available on non-Linux platforms.
type RealLightLine struct{}

// NewRealLightLine returns an error on non-Linux platforms.
func NewRealLightLine(chipName string, pin int) (*RealLightLine, error) {
	return nil, errNotSupported
}

func (l *RealLightLine) Read() (int, error) { return 0, errNotSupported }
func (l *RealLightLine) Close() error       { return nil }

// RealLamp is not available on non-Linux platforms.
type RealLamp struct{}

// NewRealLamp returns an error on non-Linux platforms.
func NewRealLamp(chipDir string, channel int, ratedWatts float64) (*RealLamp, error) {
	return nil, errNotSupported
}

func (l *RealLamp) SetDuty(duty int) error   { return errNotSupported }
func (l *RealLamp) PowerW() (float64, error) { return 0, errNotSupported }
func (l *RealLamp) Close() error             { return nil }

// RealIndicator is not available on non-Linux platforms.
type RealIndicator struct{}

// NewRealIndicator returns an error on non-Linux platforms.
func NewRealIndicator(chipName string, pinRed, pinGreen, pinBlue, pinBuzzer int) (*RealIndicator, error) {
	return nil, errNotSupported
}

func (i *RealIndicator) SetColor(c Color) error { return errNotSupported }
func (i *RealIndicator) Chirp() error           { return errNotSupported }
func (i *RealIndicator) Close() error           { return nil }
