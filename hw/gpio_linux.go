//go:build linux && !baremetal

package hw

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/opencnc/stepcore/machine"
	"github.com/opencnc/stepcore/step"
)

// gpioPort drives the CLK/DIR lines through periph.io pins. Pins are
// ordered CLK0, DIR0, CLK1, DIR1, ... matching the activation bit
// layout; missing slots stay nil and their bits are ignored.
type gpioPort struct {
	pins [2 * step.NumSlots]gpio.PinOut
	last byte
}

// WritePort implements PortWriter. Only lines whose bit changed are
// touched, keeping the write burst short.
func (g *gpioPort) WritePort(mask byte) {
	changed := mask ^ g.last
	for bit := 0; bit < len(g.pins); bit++ {
		if g.pins[bit] == nil || changed&(byte(1)<<bit) == 0 {
			continue
		}
		g.pins[bit].Out(gpio.Level(mask&(byte(1)<<bit) != 0))
	}
	g.last = mask
}

// NewGPIOOutput builds a ClockedOutput over the profile's pin names.
// All CLK lines start high (idle) and DIR lines low.
func NewGPIOOutput(profile *machine.Profile) (*ClockedOutput, error) {
	if len(profile.Pins.Clk) == 0 {
		return nil, fmt.Errorf("hw: profile has no pin mapping")
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("hw: initializing periph host: %w", err)
	}

	port := &gpioPort{}
	for slot := 0; slot < len(profile.Pins.Clk); slot++ {
		clk := gpioreg.ByName(profile.Pins.Clk[slot])
		if clk == nil {
			return nil, fmt.Errorf("hw: unknown pin %q", profile.Pins.Clk[slot])
		}
		dir := gpioreg.ByName(profile.Pins.Dir[slot])
		if dir == nil {
			return nil, fmt.Errorf("hw: unknown pin %q", profile.Pins.Dir[slot])
		}
		if err := clk.Out(gpio.High); err != nil {
			return nil, fmt.Errorf("hw: configuring %s: %w", clk, err)
		}
		if err := dir.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("hw: configuring %s: %w", dir, err)
		}
		port.pins[2*slot] = clk
		port.pins[2*slot+1] = dir
	}
	port.last = step.ClockMask

	return NewClockedOutput(port), nil
}
