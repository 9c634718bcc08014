package mqtt

import (
	"context"
	"encoding/json"
	"time"

	"kyberd/events"
)

// Publisher sends messages to the broker. *Client satisfies it.
type Publisher interface {
	Publish(topic string, payload string)
	PublishRetained(topic string, payload string)
}

// Reporter mirrors bus events onto the status topics of one node.
type Reporter struct {
	pub      Publisher
	clientID string
}

// NewReporter creates a reporter for clientID.
func NewReporter(pub Publisher, clientID string) *Reporter {
	return &Reporter{pub: pub, clientID: clientID}
}

// Topic returns the full status topic for leaf.
func (r *Reporter) Topic(leaf string) string { return StatusTopic(r.clientID, leaf) }

// Subscribe attaches the reporter to the bus.
// Returns a function that removes every subscription.
func (r *Reporter) Subscribe(bus *events.Bus) func() {
	unsubs := []func(){
		bus.Subscribe(func(e events.CrystalBonded) { r.retained("crystal", e) }),
		bus.Subscribe(func(e events.CrystalRemoved) { r.publish("crystal/removed", e) }),
		bus.Subscribe(func(e events.ReaderStateChanged) { r.retained("reader", e) }),
		bus.Subscribe(func(e events.PowerChanged) { r.retained("power", e) }),
		bus.Subscribe(func(e events.ApplyFailed) { r.publish("crystal/error", e) }),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// Ping publishes a liveness message every interval until ctx is done.
func (r *Reporter) Ping(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 120 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.pub.Publish(r.Topic("ping"), `{"status":"ok"}`)
		}
	}
}

func (r *Reporter) publish(leaf string, v any) {
	if b, err := json.Marshal(v); err == nil {
		r.pub.Publish(r.Topic(leaf), string(b))
	}
}

func (r *Reporter) retained(leaf string, v any) {
	if b, err := json.Marshal(v); err == nil {
		r.pub.PublishRetained(r.Topic(leaf), string(b))
	}
}
