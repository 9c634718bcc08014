package feedback

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"kyberd/blade"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(ms int) time.Time { return t0.Add(time.Duration(ms) * time.Millisecond) }

func TestTiming(t *testing.T) {
	e := NewEffect(blade.From8(255, 0, 0), BondDuration, t0)
	tests := []struct {
		ms        int
		temporary bool
		finished  bool
		power     bool
	}{
		{0, true, false, true},
		{4999, true, false, true},
		{5999, true, false, true},
		{6000, false, true, false},
		{9000, false, true, false},
	}
	for _, tt := range tests {
		now := at(tt.ms)
		if got := e.TemporaryActive(now); got != tt.temporary {
			t.Errorf("TemporaryActive(%d) = %v", tt.ms, got)
		}
		if got := e.Finished(now); got != tt.finished {
			t.Errorf("Finished(%d) = %v", tt.ms, got)
		}
		if got := e.NeedsPower(now); got != tt.power {
			t.Errorf("NeedsPower(%d) = %v", tt.ms, got)
		}
	}
}

func TestFadeNonIncreasing(t *testing.T) {
	e := NewEffect(blade.From8(255, 255, 255), BondDuration, t0)
	prev := e.Brightness(at(5000))
	if prev != 65535 {
		t.Fatalf("fade start = %d", prev)
	}
	for ms := 5001; ms < 6000; ms++ {
		b := e.Brightness(at(ms))
		if b > prev {
			t.Fatalf("brightness rose at %dms: %d > %d", ms, b, prev)
		}
		prev = b
	}
	if e.Brightness(at(6000)) != 0 {
		t.Fatal("not dark at end")
	}
}

func TestPulse(t *testing.T) {
	e := NewEffect(blade.From8(255, 255, 255), 0, t0)
	if b := e.Brightness(t0); b != 32768 {
		t.Fatalf("pulse start = %d", b)
	}
	if b := e.Brightness(at(375)); b != 65535 {
		t.Fatalf("pulse peak = %d", b)
	}
	if b := e.Brightness(at(1125)); b != 1 {
		t.Fatalf("pulse trough = %d", b)
	}
	if e.Brightness(at(1500)) != e.Brightness(t0) {
		t.Fatal("period is not 1500ms")
	}
	if e.Finished(at(1e6)) || !e.NeedsPower(at(1e6)) {
		t.Fatal("permanent effect ended")
	}
}

func TestRenderFirstPixel(t *testing.T) {
	ch := blade.NewChannel("crystal", 2, nil, nil)
	ch.Set(1, blade.From8(0, 0, 9))
	e := NewEffect(blade.From8(200, 10, 10), BondDuration, t0)

	e.Render(ch, at(375))
	want := blade.From8(200, 10, 10).Scale(65535)
	if ch.Pixel(0) != want || ch.Pixel(1) != blade.From8(0, 0, 9) {
		t.Fatalf("pixels = %v %v", ch.Pixel(0), ch.Pixel(1))
	}

	e.Render(ch, at(6000))
	if ch.Pixel(0) != blade.Black || ch.Pixel(1) != blade.Black {
		t.Fatal("finished render left pixels lit")
	}
}

func TestAnimatorSaveRestore(t *testing.T) {
	ch := blade.NewChannel("crystal", 1, nil, nil)
	style := blade.Solid{Color: blade.Black}
	ch.SetEffect(style)
	a := NewAnimator(ch, discard)

	a.Activate(BondDuration, blade.From8(1, 2, 3), t0)
	a.Activate(BondDuration, blade.From8(4, 5, 6), at(1000))
	if ch.Effect() != blade.Effect(a.Active()) {
		t.Fatal("animation not installed")
	}
	if !a.TemporaryActive(at(6500)) {
		t.Fatal("second activation did not restart the clock")
	}

	a.Tick(at(6999))
	if a.Active() == nil {
		t.Fatal("ended early")
	}
	a.Tick(at(7000))
	if a.Active() != nil {
		t.Fatal("not deactivated")
	}
	if ch.Effect() != blade.Effect(style) {
		t.Fatalf("restored %T, want the saved style", ch.Effect())
	}
}

func TestAnimatorNothingSaved(t *testing.T) {
	ch := blade.NewChannel("crystal", 1, nil, nil)
	a := NewAnimator(ch, discard)
	a.Activate(0, blade.From8(1, 2, 3), t0)
	a.Tick(at(1e6))
	if a.Active() == nil || !a.NeedsPower(at(1e6)) {
		t.Fatal("permanent animation ended")
	}
	a.Deactivate()
	if ch.Effect() != nil {
		t.Fatalf("effect = %T, want none", ch.Effect())
	}
	if a.TemporaryActive(t0) || a.Finished(t0) {
		t.Fatal("inactive animator reports activity")
	}
}

func TestAnimatorRestoresReplacement(t *testing.T) {
	ch := blade.NewChannel("crystal", 1, nil, nil)
	ch.SetEffect(blade.Solid{Color: blade.Black})
	a := NewAnimator(ch, discard)

	a.Activate(BondDuration, blade.From8(1, 2, 3), t0)
	if !ch.Borrowed() {
		t.Fatal("channel not borrowed during animation")
	}
	next := blade.Solid{Color: blade.From8(9, 9, 9)}
	ch.Install(next)
	if ch.Effect() != blade.Effect(a.Active()) {
		t.Fatal("install displaced the animation")
	}

	a.Tick(at(6000))
	if ch.Borrowed() {
		t.Fatal("borrow not returned")
	}
	if ch.Effect() != blade.Effect(next) {
		t.Fatalf("restored %#v, want the replacement", ch.Effect())
	}
}
