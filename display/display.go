// Package display shows crystal status on an optional framebuffer screen.
package display

import (
	"errors"
	"sync"

	"kyberd/blade"
	"kyberd/events"
)

// ErrScreenNotCompiled is returned when screen support was not compiled in.
var ErrScreenNotCompiled = errors.New("screen support not compiled in (build with -tags=screen)")

// Config holds status display configuration.
type Config struct {
	Enabled bool   `yaml:"enabled"`
	Device  string `yaml:"device"` // default /dev/fb0
	Font    string `yaml:"font"`   // TrueType font path
}

// Screen draws status pages.
type Screen interface {
	// Crystal shows a bonded crystal: its preset label on a swatch of its color.
	Crystal(label string, color blade.Color)
	NoCrystal()
	Off()
	Release() error
}

// New creates a Screen based on the provided configuration.
func New(cfg Config) (Screen, error) {
	if !cfg.Enabled {
		return Noop{}, nil
	}
	if !ScreenSupported() {
		return nil, ErrScreenNotCompiled
	}
	return newFramebuffer(cfg)
}

// Noop implements Screen but does nothing.
type Noop struct{}

func (Noop) Crystal(string, blade.Color) {}
func (Noop) NoCrystal()                  {}
func (Noop) Off()                        {}
func (Noop) Release() error              { return nil }

// Status keeps a screen in step with bus events.
type Status struct {
	mu     sync.Mutex
	screen Screen
	on     bool
	bonded bool
	label  string
	color  blade.Color
}

// NewStatus creates a status view. The screen starts on the off page.
func NewStatus(s Screen) *Status {
	st := &Status{screen: s}
	s.Off()
	return st
}

// Subscribe attaches the view to the bus.
// Returns a function that removes every subscription.
func (s *Status) Subscribe(bus *events.Bus) func() {
	unsubs := []func(){
		bus.Subscribe(func(e events.CrystalBonded) {
			s.Bonded(e.PresetName, blade.From8(e.R, e.G, e.B))
		}),
		bus.Subscribe(func(events.CrystalRemoved) { s.Removed() }),
		bus.Subscribe(func(e events.PowerChanged) { s.Power(e.On) }),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// Bonded records a bonded crystal.
func (s *Status) Bonded(label string, color blade.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bonded, s.label, s.color = true, label, color
	s.redraw()
}

// Removed records that the crystal left the field.
func (s *Status) Removed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bonded = false
	s.redraw()
}

// Power records the main output state.
func (s *Status) Power(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.on = on
	s.redraw()
}

func (s *Status) redraw() {
	switch {
	case s.bonded:
		s.screen.Crystal(s.label, s.color)
	case s.on:
		s.screen.NoCrystal()
	default:
		s.screen.Off()
	}
}
