package display

import (
	"errors"
	"sync"
	"testing"
	"time"

	"kyberd/blade"
	"kyberd/events"
)

type fakeScreen struct {
	mu    sync.Mutex
	pages []string
}

func (f *fakeScreen) add(p string) {
	f.mu.Lock()
	f.pages = append(f.pages, p)
	f.mu.Unlock()
}

func (f *fakeScreen) Crystal(label string, _ blade.Color) { f.add("crystal:" + label) }
func (f *fakeScreen) NoCrystal()                          { f.add("none") }
func (f *fakeScreen) Off()                                { f.add("off") }
func (f *fakeScreen) Release() error                      { return nil }

func (f *fakeScreen) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pages[len(f.pages)-1]
}

func TestStatusPages(t *testing.T) {
	scr := &fakeScreen{}
	s := NewStatus(scr)
	if scr.last() != "off" {
		t.Fatalf("initial page = %q", scr.last())
	}

	steps := []struct {
		do   func()
		want string
	}{
		{func() { s.Power(true) }, "none"},
		{func() { s.Bonded("Subdued", blade.From8(1, 2, 3)) }, "crystal:Subdued"},
		{func() { s.Power(false) }, "crystal:Subdued"},
		{func() { s.Removed() }, "off"},
		{func() { s.Power(true) }, "none"},
	}
	for i, st := range steps {
		st.do()
		if got := scr.last(); got != st.want {
			t.Fatalf("step %d page = %q, want %q", i, got, st.want)
		}
	}
}

func TestStatusFromBus(t *testing.T) {
	scr := &fakeScreen{}
	bus := events.New()
	unsub := NewStatus(scr).Subscribe(bus)
	defer unsub()

	bus.Publish(events.CrystalBonded{PresetName: "Default", R: 200})
	deadline := time.Now().Add(2 * time.Second)
	for scr.last() != "crystal:Default" {
		if time.Now().After(deadline) {
			t.Fatalf("page = %q", scr.last())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNewDisabled(t *testing.T) {
	s, err := New(Config{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(Noop); !ok {
		t.Fatalf("New = %T", s)
	}
	if !ScreenSupported() {
		if _, err := New(Config{Enabled: true}); !errors.Is(err, ErrScreenNotCompiled) {
			t.Fatalf("New enabled err = %v", err)
		}
	}
}
