// Package strip sends rendered frames to pixel hardware.
package strip

import "kyberd/blade"

// Strip is the interface for pixel output implementations.
type Strip interface {
	// Show outputs one frame.
	Show(pixels []blade.Color) error

	// Release releases any hardware resources.
	Release() error
}

// Config holds configuration for one pixel strip.
type Config struct {
	Pixels int `yaml:"pixels"` // pixel count, default 1

	// Neopixel pipe path (empty = not configured)
	NeopixelPipe string `yaml:"neopixel_pipe"`

	// Index selects the strip on the neopixel tool, which can drive several.
	Index int `yaml:"index"`

	// Adalight serial controller (empty = not configured)
	Serial string `yaml:"serial"`
	Baud   int    `yaml:"baud"` // default 115200
}

// Len returns the configured pixel count.
func (c Config) Len() int {
	if c.Pixels < 1 {
		return 1
	}
	return c.Pixels
}

// New creates a Strip based on the provided configuration.
// When both outputs are configured every frame goes to each of them.
func New(cfg Config) (Strip, error) {
	var strips []Strip
	if cfg.NeopixelPipe != "" {
		n, err := NewNeopixel(cfg.NeopixelPipe, cfg.Index)
		if err != nil {
			return nil, err
		}
		strips = append(strips, n)
	}
	if cfg.Serial != "" {
		a, err := NewAdalight(cfg.Serial, cfg.Baud)
		if err != nil {
			for _, s := range strips {
				s.Release()
			}
			return nil, err
		}
		strips = append(strips, a)
	}

	switch len(strips) {
	case 0:
		return &Noop{}, nil
	case 1:
		return strips[0], nil
	default:
		return NewMulti(strips...), nil
	}
}
