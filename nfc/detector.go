package nfc

import (
	"log/slog"
	"time"

	"kyberd/reader"
)

const (
	// PollInterval is the minimum time between two reader queries.
	PollInterval = 500 * time.Millisecond
	// TagTimeout bounds how long one query waits for a tag.
	TagTimeout = 50 * time.Millisecond
)

// EventKind identifies a detector edge.
type EventKind int

const (
	TagArrived EventKind = iota + 1
	TagRemoved
)

func (k EventKind) String() string {
	switch k {
	case TagArrived:
		return "arrived"
	case TagRemoved:
		return "removed"
	default:
		return "none"
	}
}

// Event is a tag arrival or removal.
type Event struct {
	Kind EventKind
	ID   reader.TagID
}

// Detector polls the reader and reports tag edges.
type Detector struct {
	dev       reader.Device
	interval  time.Duration
	timeout   time.Duration
	lastCheck time.Time
	polled    bool
	last      reader.TagID
	present   bool
	log       *slog.Logger

	// OnPoll is called after every reader query.
	OnPoll func(present bool)
}

// NewDetector creates a detector with the default poll interval and tag timeout.
func NewDetector(dev reader.Device, log *slog.Logger) *Detector {
	return &Detector{
		dev:      dev,
		interval: PollInterval,
		timeout:  TagTimeout,
		log:      log,
	}
}

// Poll queries the reader if the poll interval has elapsed and reports at
// most one edge. The same tag seen again produces nothing.
func (d *Detector) Poll(now time.Time) (Event, bool) {
	if d.polled && now.Sub(d.lastCheck) < d.interval {
		return Event{}, false
	}
	d.polled = true
	d.lastCheck = now

	id, ok, err := d.dev.ReadTag(d.timeout)
	if err != nil {
		d.log.Debug("Read tag", "error", err)
		ok = false
	}
	if d.OnPoll != nil {
		d.OnPoll(ok)
	}

	if ok {
		if id.Equal(d.last) {
			return Event{}, false
		}
		d.last = id
		d.present = true
		d.log.Info("New crystal detected", "uid", id.String())
		return Event{Kind: TagArrived, ID: id}, true
	}

	if d.present {
		d.present = false
		d.log.Info("Crystal removed", "uid", d.last.String())
		return Event{Kind: TagRemoved, ID: d.last}, true
	}
	return Event{}, false
}

// Present reports whether a tag is currently in the field.
func (d *Detector) Present() bool { return d.present }

// Last returns the most recently seen tag.
func (d *Detector) Last() reader.TagID { return d.last }

// ClearPresent forgets presence but keeps the last identity, so the same
// tag is not reported again after the reader wakes.
func (d *Detector) ClearPresent() { d.present = false }
