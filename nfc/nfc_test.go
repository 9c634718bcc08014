package nfc

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"kyberd/crystal"
	"kyberd/reader"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeDevice struct {
	handshakeErr error
	tag          []byte
	readErr      error
	reads        int
	configures   int
	configureErr error
}

func (d *fakeDevice) Handshake() (string, error) { return "1.6", d.handshakeErr }
func (d *fakeDevice) Configure() error           { d.configures++; return d.configureErr }
func (d *fakeDevice) Close() error               { return nil }

func (d *fakeDevice) ReadTag(time.Duration) (reader.TagID, bool, error) {
	d.reads++
	if d.readErr != nil {
		return reader.TagID{}, false, d.readErr
	}
	if d.tag == nil {
		return reader.TagID{}, false, nil
	}
	return reader.NewTagID(d.tag), true, nil
}

func (d *fakeDevice) ReadPage(uint8) ([crystal.PageSize]byte, error) {
	return [crystal.PageSize]byte{}, nil
}

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func TestInitializeRetries(t *testing.T) {
	dev := &fakeDevice{handshakeErr: errors.New("absent")}
	var states []State
	l := NewLifecycle(dev, time.Minute, discard, Handlers{
		OnStateChange: func(s State) { states = append(states, s) },
	})

	for i := 0; i < 3; i++ {
		if l.TryInitialize(t0) {
			t.Fatal("initialized without hardware")
		}
	}
	if l.State() != Uninitialized {
		t.Fatalf("state = %v", l.State())
	}

	l.Activate(t0)
	if l.State() != Uninitialized {
		t.Fatal("Activate left Uninitialized")
	}

	dev.handshakeErr = nil
	if !l.TryInitialize(t0) {
		t.Fatal("TryInitialize failed")
	}
	if l.State() != Active {
		t.Fatalf("state = %v, want active", l.State())
	}
	if dev.configures != 1 {
		t.Errorf("configures = %d, want 1", dev.configures)
	}
	if len(states) != 1 || states[0] != Active {
		t.Errorf("states = %v, want only active", states)
	}
}

func TestInitializeNeedsConfigure(t *testing.T) {
	dev := &fakeDevice{configureErr: errors.New("sam config")}
	var states []State
	l := NewLifecycle(dev, time.Minute, discard, Handlers{
		OnStateChange: func(s State) { states = append(states, s) },
	})

	if l.TryInitialize(t0) {
		t.Fatal("initialized although configure failed")
	}
	dev.configureErr = nil
	if !l.TryInitialize(t0) {
		t.Fatal("TryInitialize failed")
	}
	for _, s := range states {
		if s == Sleeping {
			t.Fatalf("states = %v, startup passed through sleeping", states)
		}
	}
	if l.State() != Active || len(states) != 1 {
		t.Errorf("state = %v, states = %v", l.State(), states)
	}
}

func TestIdleTimeout(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		after   time.Duration
		want    State
	}{
		{"before", 60 * time.Second, 59999 * time.Millisecond, Active},
		{"exact", 60 * time.Second, 60 * time.Second, Sleeping},
		{"after", 60 * time.Second, 61 * time.Second, Sleeping},
		{"disabled", 0, 24 * time.Hour, Active},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := &fakeDevice{}
			slept := 0
			l := NewLifecycle(dev, tt.timeout, discard, Handlers{OnSleep: func() { slept++ }})
			l.TryInitialize(t0)
			l.Tick(t0.Add(tt.after))
			if l.State() != tt.want {
				t.Fatalf("state = %v, want %v", l.State(), tt.want)
			}
			if (slept == 1) != (tt.want == Sleeping) || slept > 1 {
				t.Errorf("OnSleep called %d times", slept)
			}
		})
	}
}

func TestResetIdleAndReactivate(t *testing.T) {
	dev := &fakeDevice{}
	sleeps := 0
	l := NewLifecycle(dev, 60*time.Second, discard, Handlers{OnSleep: func() { sleeps++ }})
	l.TryInitialize(t0)

	l.ResetIdle(t0.Add(30 * time.Second))
	l.Tick(t0.Add(60 * time.Second))
	if l.State() != Active {
		t.Fatal("slept despite reset")
	}
	l.Tick(t0.Add(90 * time.Second))
	if l.State() != Sleeping {
		t.Fatal("did not sleep after reset window")
	}

	l.Deactivate()
	if sleeps != 1 {
		t.Errorf("Deactivate while sleeping slept again")
	}

	l.Activate(t0.Add(100 * time.Second))
	if l.State() != Active {
		t.Fatal("Activate failed")
	}
	l.Activate(t0.Add(100 * time.Second))
	if dev.configures != 2 {
		t.Errorf("configures = %d, want 2", dev.configures)
	}
}

func TestDetectorEdges(t *testing.T) {
	dev := &fakeDevice{}
	d := NewDetector(dev, discard)
	now := t0

	step := func() (Event, bool) {
		ev, ok := d.Poll(now)
		now = now.Add(PollInterval)
		return ev, ok
	}

	if _, ok := step(); ok {
		t.Fatal("event with empty field")
	}

	dev.tag = []byte{0x04, 0xAB, 0xCD}
	ev, ok := step()
	if !ok || ev.Kind != TagArrived || ev.ID.String() != "04:AB:CD" {
		t.Fatalf("arrival = %v %v", ev, ok)
	}
	if _, ok := step(); ok {
		t.Fatal("same tag reported twice")
	}

	dev.tag = []byte{0x04, 0x11}
	if ev, ok := step(); !ok || ev.Kind != TagArrived {
		t.Fatalf("new tag = %v %v", ev, ok)
	}

	dev.tag = nil
	if ev, ok := step(); !ok || ev.Kind != TagRemoved {
		t.Fatalf("removal = %v %v", ev, ok)
	}
	if _, ok := step(); ok {
		t.Fatal("removal reported twice")
	}
}

func TestDetectorRateLimit(t *testing.T) {
	dev := &fakeDevice{}
	d := NewDetector(dev, discard)

	d.Poll(t0)
	d.Poll(t0.Add(100 * time.Millisecond))
	d.Poll(t0.Add(499 * time.Millisecond))
	if dev.reads != 1 {
		t.Fatalf("reads = %d, want 1", dev.reads)
	}
	d.Poll(t0.Add(500 * time.Millisecond))
	if dev.reads != 2 {
		t.Fatalf("reads = %d, want 2", dev.reads)
	}
}

func TestDetectorErrorIsAbsent(t *testing.T) {
	dev := &fakeDevice{tag: []byte{1, 2, 3, 4}}
	d := NewDetector(dev, discard)
	d.Poll(t0)

	dev.readErr = errors.New("bus")
	ev, ok := d.Poll(t0.Add(time.Second))
	if !ok || ev.Kind != TagRemoved {
		t.Fatalf("error = %v %v, want removal", ev, ok)
	}
}

func TestClearPresentKeepsIdentity(t *testing.T) {
	dev := &fakeDevice{tag: []byte{1, 2, 3, 4}}
	d := NewDetector(dev, discard)
	d.Poll(t0)

	d.ClearPresent()
	if d.Present() {
		t.Fatal("still present")
	}
	if _, ok := d.Poll(t0.Add(time.Second)); ok {
		t.Fatal("same tag re-reported after ClearPresent")
	}
	dev.tag = nil
	if _, ok := d.Poll(t0.Add(2 * time.Second)); ok {
		t.Fatal("removal reported without presence")
	}
}
