// Package feedback drives the crystal channel through its bonding animation.
package feedback

import (
	"log/slog"
	"math"
	"time"

	"kyberd/blade"
)

const (
	// PulsePeriod is one full brightness cycle.
	PulsePeriod = 1500 * time.Millisecond
	// FadeOut is the closing window of a temporary animation.
	FadeOut = 1000 * time.Millisecond
	// BondDuration is the animation length after a crystal bonds.
	BondDuration = 6000 * time.Millisecond
)

// sinTable holds one period of a sine wave in 256 signed 16-bit steps.
var sinTable = func() (t [256]int16) {
	for i := range t {
		t[i] = int16(math.Round(32767 * math.Sin(2*math.Pi*float64(i)/256)))
	}
	return t
}()

// Effect pulses the first pixel in a color. A zero duration pulses forever;
// otherwise it fades over the last second and then goes dark.
type Effect struct {
	color    blade.Color
	start    time.Time
	duration time.Duration
}

// NewEffect creates an animation that started at start.
func NewEffect(color blade.Color, duration time.Duration, start time.Time) *Effect {
	return &Effect{color: color, start: start, duration: duration}
}

// Permanent reports whether the effect never ends on its own.
func (e *Effect) Permanent() bool { return e.duration == 0 }

// Brightness returns the 16-bit brightness at now.
func (e *Effect) Brightness(now time.Time) uint16 {
	elapsed := now.Sub(e.start).Milliseconds()
	if elapsed < 0 {
		elapsed = 0
	}
	d := e.duration.Milliseconds()
	fade := FadeOut.Milliseconds()

	switch {
	case d == 0 || elapsed < d-fade:
		phase := (elapsed * 65536 / PulsePeriod.Milliseconds()) & 0xFFFF
		return uint16(int32(sinTable[(phase>>8)&0xFF]) + 32768)
	case elapsed < d:
		progress := elapsed - (d - fade)
		return uint16(65535 - progress*65535/fade)
	default:
		return 0
	}
}

// Render implements blade.Effect.
func (e *Effect) Render(ch *blade.Channel, now time.Time) {
	if e.Finished(now) {
		ch.Fill(blade.Black)
		return
	}
	ch.Set(0, e.color.Scale(e.Brightness(now)))
}

// Finished reports whether a temporary animation has run its course.
func (e *Effect) Finished(now time.Time) bool {
	return e.duration > 0 && now.Sub(e.start) >= e.duration
}

// TemporaryActive reports whether a temporary animation is still running.
func (e *Effect) TemporaryActive(now time.Time) bool {
	return e.duration > 0 && now.Sub(e.start) < e.duration
}

// NeedsPower implements blade.Effect.
func (e *Effect) NeedsPower(now time.Time) bool {
	return e.duration == 0 || now.Sub(e.start) < e.duration
}

// Animator installs feedback effects on a channel and restores whatever was
// there before once they end.
type Animator struct {
	ch       *blade.Channel
	active   *Effect
	saved    blade.Effect
	hasSaved bool
	log      *slog.Logger
}

// NewAnimator creates an animator for ch.
func NewAnimator(ch *blade.Channel, log *slog.Logger) *Animator {
	return &Animator{ch: ch, log: log}
}

// Activate starts an animation in color. The channel's previous effect is
// captured only by the first activation of a burst.
func (a *Animator) Activate(duration time.Duration, color blade.Color, now time.Time) {
	if !a.hasSaved {
		a.saved = a.ch.UnsetEffect()
		a.hasSaved = true
		a.ch.Borrow(a)
	}
	a.active = NewEffect(color, duration, now)
	a.ch.SetEffect(a.active)
	if duration == 0 {
		a.log.Debug("Crystal animation started", "color", color.String())
	} else {
		a.log.Debug("Crystal animation started", "color", color.String(), "duration", duration)
	}
}

// Deactivate removes the animation and restores the saved effect.
func (a *Animator) Deactivate() {
	if a.active != nil && a.ch.Effect() == blade.Effect(a.active) {
		a.ch.UnsetEffect()
	}
	if a.hasSaved {
		a.ch.Return()
	}
	if a.hasSaved && a.saved != nil {
		a.ch.SetEffect(a.saved)
	}
	a.active = nil
	a.saved = nil
	a.hasSaved = false
}

// Replace implements blade.Borrower: effects installed while the animation
// runs become the effect restored after it.
func (a *Animator) Replace(saved blade.Effect) {
	a.saved = saved
	a.hasSaved = true
}

// Tick ends a finished temporary animation.
func (a *Animator) Tick(now time.Time) {
	if a.active != nil && a.active.Finished(now) {
		a.log.Debug("Crystal animation finished")
		a.Deactivate()
	}
}

// Active returns the running effect, or nil.
func (a *Animator) Active() *Effect { return a.active }

// Finished reports whether the running animation has completed.
func (a *Animator) Finished(now time.Time) bool {
	return a.active != nil && a.active.Finished(now)
}

// TemporaryActive reports whether a timed animation is mid-flight.
func (a *Animator) TemporaryActive(now time.Time) bool {
	return a.active != nil && a.active.TemporaryActive(now)
}

// NeedsPower reports whether the running animation needs the channel powered.
func (a *Animator) NeedsPower(now time.Time) bool {
	return a.active != nil && a.active.NeedsPower(now)
}
