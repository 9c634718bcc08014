package button

import "time"

const (
	// ClickMax is the longest press that still counts as a click.
	ClickMax = 500 * time.Millisecond
	// HoldMin is how long a press lasts before it becomes a hold.
	HoldMin = 800 * time.Millisecond
)

// Decoder turns the edges of one button into gestures. Holds are detected
// from Tick, so it must be ticked while the button is down.
type Decoder struct {
	pressed bool
	held    bool
	since   time.Time
}

// Edge feeds a press or release and returns a click if one completed.
func (d *Decoder) Edge(pressed bool, at time.Time) (Kind, bool) {
	if pressed {
		if !d.pressed {
			d.pressed, d.held, d.since = true, false, at
		}
		return 0, false
	}
	if !d.pressed {
		return 0, false
	}
	d.pressed = false
	if !d.held && at.Sub(d.since) < ClickMax {
		return ShortClick, true
	}
	return 0, false
}

// Tick returns a hold once per press when the button has been down long enough.
func (d *Decoder) Tick(now time.Time) (Kind, bool) {
	if d.pressed && !d.held && now.Sub(d.since) >= HoldMin {
		d.held = true
		return HeldMedium, true
	}
	return 0, false
}

// Pressed reports whether the button is down.
func (d *Decoder) Pressed() bool { return d.pressed }
