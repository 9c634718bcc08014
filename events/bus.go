// Package events carries domain events from the controller to telemetry.
package events

import (
	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting.
// Handlers run asynchronously, so publishing never blocks the tick loop.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers
// Usage: bus.Publish(CrystalBonded{...})
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case ReaderPolled:
		event.Publish(b.dispatcher, e)
	case CrystalBonded:
		event.Publish(b.dispatcher, e)
	case CrystalRemoved:
		event.Publish(b.dispatcher, e)
	case ApplyFailed:
		event.Publish(b.dispatcher, e)
	case ReaderStateChanged:
		event.Publish(b.dispatcher, e)
	case PowerChanged:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function.
// The handler type determines which events it receives.
// Returns an unsubscribe function.
// Usage: unsub := bus.Subscribe(func(e CrystalBonded) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(ReaderPolled):
		return event.Subscribe(b.dispatcher, h)
	case func(CrystalBonded):
		return event.Subscribe(b.dispatcher, h)
	case func(CrystalRemoved):
		return event.Subscribe(b.dispatcher, h)
	case func(ApplyFailed):
		return event.Subscribe(b.dispatcher, h)
	case func(ReaderStateChanged):
		return event.Subscribe(b.dispatcher, h)
	case func(PowerChanged):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}

// Close stops the dispatcher.
func (b *Bus) Close() error {
	return b.dispatcher.Close()
}
