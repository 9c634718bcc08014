// Package button turns raw button edges into click and hold gestures.
package button

import (
	"log/slog"
	"time"
)

// Button identifies a physical button.
type Button int

const (
	Power Button = iota
	Aux
)

func (b Button) String() string {
	switch b {
	case Power:
		return "power"
	case Aux:
		return "aux"
	default:
		return "unknown"
	}
}

// Kind is a decoded gesture.
type Kind int

const (
	ShortClick Kind = iota + 1
	HeldMedium
)

func (k Kind) String() string {
	switch k {
	case ShortClick:
		return "click"
	case HeldMedium:
		return "hold"
	default:
		return "none"
	}
}

// Mode is the state of the main output when the gesture happened.
type Mode int

const (
	ModeOff Mode = iota
	ModeOn
)

func (m Mode) String() string {
	if m == ModeOn {
		return "on"
	}
	return "off"
}

// Event is a gesture delivered to the controller.
type Event struct {
	Button Button
	Kind   Kind
	Mode   Mode
}

// Edge is a raw press or release from a source.
type Edge struct {
	Button  Button
	Pressed bool
	At      time.Time
}

// Source delivers raw edges.
type Source interface {
	Edges() <-chan Edge
	Close() error
}

// Config holds configuration for the power button source.
type Config struct {
	Type   string `yaml:"type"`   // "gpio", "evdev", "none"
	Chip   string `yaml:"chip"`   // gpio chip, default "gpiochip0"
	Pin    int    `yaml:"pin"`    // gpio line offset
	Device string `yaml:"device"` // evdev device path
	Key    int    `yaml:"key"`    // evdev key code, default KEY_POWER (116)
}

// New creates a Source based on the provided configuration.
func New(cfg Config, log *slog.Logger) (Source, error) {
	switch cfg.Type {
	case "gpio":
		g, err := NewGPIO(cfg, log)
		if err != nil {
			return nil, err
		}
		return g, nil
	case "evdev":
		e, err := NewEvdev(cfg, log)
		if err != nil {
			return nil, err
		}
		return e, nil
	default:
		return NewNoop(), nil
	}
}

// Noop is a source that never produces edges.
type Noop struct {
	ch chan Edge
}

// NewNoop creates a silent source.
func NewNoop() *Noop { return &Noop{ch: make(chan Edge)} }

// Edges implements Source.
func (n *Noop) Edges() <-chan Edge { return n.ch }

// Close implements Source.
func (n *Noop) Close() error { return nil }

// send delivers e without blocking the driver callback.
func send(ch chan<- Edge, e Edge, log *slog.Logger) {
	select {
	case ch <- e:
	default:
		log.Warn("Button edge dropped", "button", e.Button.String(), "pressed", e.Pressed)
	}
}
