//go:build linux

package button

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// GPIO is a button wired between a line and ground.
type GPIO struct {
	line *gpiocdev.Line
	ch   chan Edge
	log  *slog.Logger
}

// NewGPIO requests the configured line with pull-up and both edges.
func NewGPIO(cfg Config, log *slog.Logger) (*GPIO, error) {
	if cfg.Chip == "" {
		cfg.Chip = "gpiochip0"
	}
	g := &GPIO{ch: make(chan Edge, 16), log: log}

	var err error
	g.line, err = gpiocdev.RequestLine(cfg.Chip, cfg.Pin,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithDebounce(5*time.Millisecond),
		gpiocdev.WithEventHandler(g.handleEvent))
	if err != nil {
		return nil, fmt.Errorf("request button line %s:%d: %w", cfg.Chip, cfg.Pin, err)
	}
	log.Info("Button on gpio", "chip", cfg.Chip, "pin", cfg.Pin)
	return g, nil
}

func (g *GPIO) handleEvent(evt gpiocdev.LineEvent) {
	switch evt.Type {
	case gpiocdev.LineEventFallingEdge:
		send(g.ch, Edge{Button: Power, Pressed: true, At: time.Now()}, g.log)
	case gpiocdev.LineEventRisingEdge:
		send(g.ch, Edge{Button: Power, Pressed: false, At: time.Now()}, g.log)
	}
}

// Edges implements Source.
func (g *GPIO) Edges() <-chan Edge { return g.ch }

// Close implements Source.
func (g *GPIO) Close() error {
	if g.line == nil {
		return nil
	}
	return g.line.Close()
}
