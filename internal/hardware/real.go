//go:build linux

package hardware

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// RealMotion watches a PIR line for rising edges using the Linux GPIO
// character device.
type RealMotion struct {
	chip *gpiocdev.Chip
	pin  int
	line *gpiocdev.Line
}

// NewRealMotion opens the named GPIO chip for the given PIR pin. The
// chip is "gpiochip0" on most boards, "gpiochip4" on a Pi 5.
func NewRealMotion(chipName string, pin int) (*RealMotion, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}
	return &RealMotion{chip: chip, pin: pin}, nil
}

// Watch arms the PIR line. Each rising edge invokes onMotion from the
// event goroutine, so the callback has to stay flag-set cheap.
func (m *RealMotion) Watch(onMotion func()) error {
	line, err := m.chip.RequestLine(m.pin,
		gpiocdev.AsInput,
		gpiocdev.WithPullDown,
		gpiocdev.WithRisingEdge,
		gpiocdev.WithEventHandler(func(gpiocdev.LineEvent) {
			onMotion()
		}))
	if err != nil {
		return fmt.Errorf("request motion pin %d: %w", m.pin, err)
	}
	m.line = line
	return nil
}

// Close releases GPIO resources.
// Reconfigures the pin to input with pull-down (matching Pi boot
// defaults) before closing.
func (m *RealMotion) Close() error {
	var errs []error

	if m.line != nil {
		if err := m.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure motion pin: %w", err))
		}
		if err := m.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close motion pin: %w", err))
		}
	}
	if m.chip != nil {
		if err := m.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealADC reads the ambient light level from an IIO ADC channel, e.g.
// /sys/bus/iio/devices/iio:device0/in_voltage0_raw.
type RealADC struct {
	path string
}

// NewRealADC creates a light sensor backed by the given sysfs file.
func NewRealADC(path string) (*RealADC, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("adc channel %s: %w", path, err)
	}
	return &RealADC{path: path}, nil
}

// Read returns the raw ADC value.
func (a *RealADC) Read() (int, error) {
	data, err := os.ReadFile(a.path)
	if err != nil {
		return 0, fmt.Errorf("read adc: %w", err)
	}
	value, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse adc value %q: %w", strings.TrimSpace(string(data)), err)
	}
	return value, nil
}

// Close releases nothing; the sysfs file is opened per read.
func (a *RealADC) Close() error {
	return nil
}

// RealLightLine reads a digital dark output (1 = dark) for the instant
// classification policy.
type RealLightLine struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewRealLightLine requests the digital light pin as input.
func NewRealLightLine(chipName string, pin int) (*RealLightLine, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullDown)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request light pin %d: %w", pin, err)
	}

	return &RealLightLine{chip: chip, line: line}, nil
}

// Read returns 1 when the sensor reports dark, 0 otherwise.
func (l *RealLightLine) Read() (int, error) {
	value, err := l.line.Value()
	if err != nil {
		return 0, fmt.Errorf("read light pin: %w", err)
	}
	return value, nil
}

// Close releases GPIO resources.
func (l *RealLightLine) Close() error {
	var errs []error

	if l.line != nil {
		if err := l.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure light pin: %w", err))
		}
		if err := l.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close light pin: %w", err))
		}
	}
	if l.chip != nil {
		if err := l.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

const pwmPeriodNs = 1000000 // 1 kHz

// RealLamp drives the lamp through a sysfs PWM channel. The reference
// wiring has no current sensor, so PowerW models the draw from the duty
// cycle the same way the downstream anomaly check expects it.
type RealLamp struct {
	dir        string
	ratedWatts float64
	duty       int
}

// NewRealLamp exports and enables the given channel under a pwmchip
// directory, e.g. /sys/class/pwm/pwmchip0.
func NewRealLamp(chipDir string, channel int, ratedWatts float64) (*RealLamp, error) {
	dir := filepath.Join(chipDir, fmt.Sprintf("pwm%d", channel))

	// Export only when the channel directory is absent.
	if _, err := os.Stat(dir); err != nil {
		if werr := os.WriteFile(filepath.Join(chipDir, "export"), []byte(strconv.Itoa(channel)), 0644); werr != nil {
			return nil, fmt.Errorf("export pwm channel %d: %w", channel, werr)
		}
	}

	if err := writeSysfs(filepath.Join(dir, "period"), strconv.Itoa(pwmPeriodNs)); err != nil {
		return nil, fmt.Errorf("set pwm period: %w", err)
	}
	if err := writeSysfs(filepath.Join(dir, "duty_cycle"), "0"); err != nil {
		return nil, fmt.Errorf("zero pwm duty: %w", err)
	}
	if err := writeSysfs(filepath.Join(dir, "enable"), "1"); err != nil {
		return nil, fmt.Errorf("enable pwm: %w", err)
	}

	return &RealLamp{dir: dir, ratedWatts: ratedWatts}, nil
}

// SetDuty sets the brightness duty cycle, 0 to 100.
func (l *RealLamp) SetDuty(duty int) error {
	if duty < 0 {
		duty = 0
	}
	if duty > 100 {
		duty = 100
	}

	ns := pwmPeriodNs * duty / 100
	if err := writeSysfs(filepath.Join(l.dir, "duty_cycle"), strconv.Itoa(ns)); err != nil {
		return fmt.Errorf("set pwm duty: %w", err)
	}
	l.duty = duty
	return nil
}

// PowerW returns the modelled draw for the current duty cycle.
func (l *RealLamp) PowerW() (float64, error) {
	return float64(l.duty) / 100 * l.ratedWatts, nil
}

// Close turns the lamp off and disables the channel.
func (l *RealLamp) Close() error {
	var errs []error

	if err := writeSysfs(filepath.Join(l.dir, "duty_cycle"), "0"); err != nil {
		errs = append(errs, fmt.Errorf("zero pwm duty: %w", err))
	}
	if err := writeSysfs(filepath.Join(l.dir, "enable"), "0"); err != nil {
		errs = append(errs, fmt.Errorf("disable pwm: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func writeSysfs(path, value string) error {
	return os.WriteFile(path, []byte(value), 0644)
}

// RealIndicator drives a common-cathode RGB LED plus a piezo buzzer on
// four GPIO output lines.
type RealIndicator struct {
	chip   *gpiocdev.Chip
	red    *gpiocdev.Line
	green  *gpiocdev.Line
	blue   *gpiocdev.Line
	buzzer *gpiocdev.Line
}

// Binary color mixing; orange leans on red+green like the firmware's
// RGB values did.
var colorLevels = map[Color][3]int{
	ColorOff:    {0, 0, 0},
	ColorOrange: {1, 1, 0},
	ColorBlue:   {0, 0, 1},
	ColorGreen:  {0, 1, 0},
	ColorRed:    {1, 0, 0},
	ColorCyan:   {0, 1, 1},
	ColorPurple: {1, 0, 1},
}

// NewRealIndicator requests the LED and buzzer pins as outputs.
func NewRealIndicator(chipName string, pinRed, pinGreen, pinBlue, pinBuzzer int) (*RealIndicator, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	ind := &RealIndicator{chip: chip}
	for _, req := range []struct {
		pin  int
		dst  **gpiocdev.Line
		name string
	}{
		{pinRed, &ind.red, "red"},
		{pinGreen, &ind.green, "green"},
		{pinBlue, &ind.blue, "blue"},
		{pinBuzzer, &ind.buzzer, "buzzer"},
	} {
		line, err := chip.RequestLine(req.pin, gpiocdev.AsOutput(0))
		if err != nil {
			ind.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", req.name, req.pin, err)
		}
		*req.dst = line
	}

	return ind, nil
}

// SetColor lights the LED in the given color.
func (i *RealIndicator) SetColor(c Color) error {
	levels, ok := colorLevels[c]
	if !ok {
		return fmt.Errorf("unknown color %q", c)
	}

	if err := i.red.SetValue(levels[0]); err != nil {
		return fmt.Errorf("set red: %w", err)
	}
	if err := i.green.SetValue(levels[1]); err != nil {
		return fmt.Errorf("set green: %w", err)
	}
	if err := i.blue.SetValue(levels[2]); err != nil {
		return fmt.Errorf("set blue: %w", err)
	}
	return nil
}

// Chirp sounds the buzzer briefly. The release happens on a timer so
// the control loop never sleeps.
func (i *RealIndicator) Chirp() error {
	if err := i.buzzer.SetValue(1); err != nil {
		return fmt.Errorf("buzzer on: %w", err)
	}
	time.AfterFunc(60*time.Millisecond, func() {
		i.buzzer.SetValue(0)
	})
	return nil
}

// Close turns everything off and releases GPIO resources.
func (i *RealIndicator) Close() error {
	var errs []error

	for _, line := range []*gpiocdev.Line{i.red, i.green, i.blue, i.buzzer} {
		if line == nil {
			continue
		}
		line.SetValue(0)
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line: %w", err))
		}
	}
	if i.chip != nil {
		if err := i.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
