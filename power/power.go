// Package power switches the supply rails of the pixel channels.
package power

import (
	"fmt"

	"github.com/hjkoskel/govattu"
	"github.com/warthog618/gpio"
)

// Switch is the interface for all power rail implementations.
type Switch interface {
	// Set powers the rail on or off.
	Set(on bool) error

	// Release turns the rail off and releases any hardware resources.
	Release() error
}

// Config holds configuration for a power rail.
type Config struct {
	Type string `yaml:"type"` // "vattu_high", "vattu_low", "gpio_high", "gpio_low", "none"
	Pin  *int   `yaml:"pin"`  // BCM pin number
}

// New creates a Switch based on the provided configuration.
func New(cfg Config) (Switch, error) {
	if cfg.Pin == nil {
		return &Noop{}, nil
	}
	pin := uint8(*cfg.Pin)

	switch cfg.Type {
	case "vattu_high", "vattu_low":
		hw, err := govattu.Open()
		if err != nil {
			return nil, fmt.Errorf("open gpio: %w", err)
		}
		return newRail(newVattuPin(hw, pin), cfg.Type == "vattu_high"), nil
	case "gpio_high", "gpio_low":
		if err := gpio.Open(); err != nil {
			return nil, fmt.Errorf("open gpio: %w", err)
		}
		return newRail(newGPIOPin(pin), cfg.Type == "gpio_high"), nil
	default:
		return &Noop{}, nil
	}
}

// pin is one output line.
type pin interface {
	high()
	low()
	close() error
}

// Rail implements Switch over a single output pin. The pin only changes
// when the requested state does.
type Rail struct {
	pin        pin
	activeHigh bool
	on         bool
	known      bool
}

func newRail(p pin, activeHigh bool) *Rail {
	r := &Rail{pin: p, activeHigh: activeHigh}
	r.Set(false)
	return r
}

// Set implements Switch.Set.
func (r *Rail) Set(on bool) error {
	if r.known && r.on == on {
		return nil
	}
	r.on, r.known = on, true
	if on == r.activeHigh {
		r.pin.high()
	} else {
		r.pin.low()
	}
	return nil
}

// On reports the last requested state.
func (r *Rail) On() bool { return r.on }

// Release implements Switch.Release.
func (r *Rail) Release() error {
	r.Set(false)
	return r.pin.close()
}
