// Package machine holds the host-side machine profile: how many axes
// the controller drives, the direction polarity, and where the board
// hangs off the serial bus. Profiles live in a small YAML file next to
// the tooling.
package machine

import "fmt"

// Profile is the persisted machine description.
type Profile struct {
	Version int    `yaml:"version"`
	Name    string `yaml:"name"`

	// Axes is the number of driven slots, 2 or 4.
	Axes int `yaml:"axes"`

	// InvertDir flips the direction polarity: by default a negative
	// step count sets the DIR line.
	InvertDir bool `yaml:"invertDir"`

	Serial SerialConfig `yaml:"serial"`
	Pins   PinConfig    `yaml:"pins"`
}

// SerialConfig locates the controller board.
type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// PinConfig names the GPIO lines for the direct-drive backend, one
// CLK/DIR pair per slot in slot order.
type PinConfig struct {
	Clk []string `yaml:"clk,omitempty"`
	Dir []string `yaml:"dir,omitempty"`
}

const profileVersion = 1

// Default returns a four-axis profile with the common serial settings.
func Default() *Profile {
	return &Profile{
		Version: profileVersion,
		Name:    "default",
		Axes:    4,
		Serial: SerialConfig{
			Port: "/dev/ttyUSB0",
			Baud: 128000,
		},
	}
}

// Validate rejects profiles the core cannot be wired from.
func (p *Profile) Validate() error {
	if p.Axes != 2 && p.Axes != 4 {
		return fmt.Errorf("machine: axes must be 2 or 4, got %d", p.Axes)
	}
	if p.Serial.Baud <= 0 {
		return fmt.Errorf("machine: invalid baud rate %d", p.Serial.Baud)
	}
	if len(p.Pins.Clk) != len(p.Pins.Dir) {
		return fmt.Errorf("machine: %d clk pins but %d dir pins", len(p.Pins.Clk), len(p.Pins.Dir))
	}
	if len(p.Pins.Clk) > 0 && len(p.Pins.Clk) != p.Axes {
		return fmt.Errorf("machine: %d pin pairs for %d axes", len(p.Pins.Clk), p.Axes)
	}
	return nil
}
