// Package hardware abstracts the street light's sensors and actuators.
// Real implementations use the Linux GPIO character device and sysfs.
// The simulator derives a plausible world from the sun's position so the
// full control loop can run with no hardware attached.
package hardware

// LightSensor reads the ambient light level.
// Higher readings mean darker (the divider sits on the LDR's dark side).
type LightSensor interface {
	Read() (int, error)

	// Close releases sensor resources.
	Close() error
}

// MotionSensor reports motion edges from the PIR.
// The callback runs in event context: it must only set a flag and
// return, no allocation, no logging, no locks.
type MotionSensor interface {
	Watch(onMotion func()) error

	// Close releases sensor resources.
	Close() error
}

// Lamp drives the light output and reports its electrical draw.
type Lamp interface {
	// SetDuty sets the brightness duty cycle, 0 to 100.
	SetDuty(duty int) error

	// PowerW returns the lamp's draw in watts.
	PowerW() (float64, error)

	// Close turns the lamp off and releases resources.
	Close() error
}

// Color identifies an indicator color.
type Color string

const (
	ColorOff    Color = "off"
	ColorOrange Color = "orange"
	ColorBlue   Color = "blue"
	ColorGreen  Color = "green"
	ColorRed    Color = "red"
	ColorCyan   Color = "cyan"
	ColorPurple Color = "purple"
)

// Indicator shows node state on an RGB LED and can chirp a buzzer.
type Indicator interface {
	SetColor(c Color) error
	Chirp() error
	Close() error
}

// Pin definitions for the reference wiring (BCM numbering)
const (
	PinMotion = 17 // PIR output
	PinLight  = 27 // digital dark line (instant policy only)
	PinRed    = 5
	PinGreen  = 6
	PinBlue   = 13
	PinBuzzer = 12
)

// DefaultRatedWatts is the lamp's draw at full duty.
const DefaultRatedWatts = 5.0
