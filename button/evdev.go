//go:build linux

package button

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kenshaw/evdev"
)

const keyPower = 116

// Evdev reads a key from a Linux input device.
type Evdev struct {
	dev    *evdev.Evdev
	key    evdev.KeyType
	ch     chan Edge
	cancel context.CancelFunc
	log    *slog.Logger
}

// NewEvdev opens the configured input device.
func NewEvdev(cfg Config, log *slog.Logger) (*Evdev, error) {
	dev, err := evdev.OpenFile(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("open evdev %s: %w", cfg.Device, err)
	}
	if cfg.Key == 0 {
		cfg.Key = keyPower
	}

	log.Info("Button on input device", "device", cfg.Device, "name", dev.Name(), "key", cfg.Key)

	ctx, cancel := context.WithCancel(context.Background())
	e := &Evdev{
		dev:    dev,
		key:    evdev.KeyType(cfg.Key),
		ch:     make(chan Edge, 16),
		cancel: cancel,
		log:    log,
	}
	go e.run(ctx)
	return e, nil
}

func (e *Evdev) run(ctx context.Context) {
	events := e.dev.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-events:
			if event == nil {
				e.log.Warn("Input device closed")
				return
			}
			if k, ok := event.Type.(evdev.KeyType); !ok || k != e.key {
				continue
			}
			switch event.Value {
			case 1:
				send(e.ch, Edge{Button: Power, Pressed: true, At: time.Now()}, e.log)
			case 0:
				send(e.ch, Edge{Button: Power, Pressed: false, At: time.Now()}, e.log)
			}
		}
	}
}

// Edges implements Source.
func (e *Evdev) Edges() <-chan Edge { return e.ch }

// Close implements Source.
func (e *Evdev) Close() error {
	e.cancel()
	return e.dev.Close()
}
