package blade

import (
	"errors"
	"fmt"
	"time"
)

// Effect produces the pixels of a channel.
type Effect interface {
	Render(ch *Channel, now time.Time)

	// NeedsPower reports whether the channel must stay powered while the
	// main output is off.
	NeedsPower(now time.Time) bool
}

// Output receives rendered frames. strip.Strip satisfies it.
type Output interface {
	Show(pixels []Color) error
}

// Switch powers a channel. power.Switch satisfies it.
type Switch interface {
	Set(on bool) error
}

// Borrower temporarily owns a channel's effect slot and restores what it
// displaced when done.
type Borrower interface {
	// Replace sets the effect to restore when the borrow ends.
	Replace(saved Effect)
}

// Channel is a fixed run of pixels with a single active effect.
type Channel struct {
	name     string
	pixels   []Color
	effect   Effect
	borrower Borrower
	out      Output
	power    Switch
}

// NewChannel creates a channel of n pixels. out and power may be nil.
func NewChannel(name string, n int, out Output, power Switch) *Channel {
	if n < 1 {
		n = 1
	}
	return &Channel{
		name:   name,
		pixels: make([]Color, n),
		out:    out,
		power:  power,
	}
}

// Name returns the channel name.
func (c *Channel) Name() string { return c.name }

// Len returns the pixel count.
func (c *Channel) Len() int { return len(c.pixels) }

// Set writes one pixel. Out of range indexes are ignored.
func (c *Channel) Set(i int, col Color) {
	if i < 0 || i >= len(c.pixels) {
		return
	}
	c.pixels[i] = col
}

// Pixel returns one pixel.
func (c *Channel) Pixel(i int) Color {
	if i < 0 || i >= len(c.pixels) {
		return Black
	}
	return c.pixels[i]
}

// Fill sets every pixel.
func (c *Channel) Fill(col Color) {
	for i := range c.pixels {
		c.pixels[i] = col
	}
}

// Effect returns the installed effect, or nil.
func (c *Channel) Effect() Effect { return c.effect }

// SetEffect installs e, replacing whatever was there.
func (c *Channel) SetEffect(e Effect) { c.effect = e }

// UnsetEffect removes and returns the installed effect. The caller owns it.
func (c *Channel) UnsetEffect() Effect {
	e := c.effect
	c.effect = nil
	return e
}

// Borrow marks the slot as held by b until Return.
func (c *Channel) Borrow(b Borrower) { c.borrower = b }

// Return ends the current borrow.
func (c *Channel) Return() { c.borrower = nil }

// Borrowed reports whether a borrower holds the slot.
func (c *Channel) Borrowed() bool { return c.borrower != nil }

// Install sets e as the channel's effect. While the slot is borrowed, e goes
// to the borrower as the effect to restore and the running effect stays.
func (c *Channel) Install(e Effect) {
	if c.borrower != nil {
		c.borrower.Replace(e)
		return
	}
	c.effect = e
}

// Render draws one frame. Without an effect, or while off with an effect
// that does not need power, the channel is dark.
func (c *Channel) Render(now time.Time, on bool) error {
	powered := c.effect != nil && (on || c.effect.NeedsPower(now))
	if powered {
		c.effect.Render(c, now)
	} else {
		c.Fill(Black)
	}

	var errs []error
	if c.power != nil {
		if err := c.power.Set(powered); err != nil {
			errs = append(errs, fmt.Errorf("%s power: %w", c.name, err))
		}
	}
	if c.out != nil {
		if err := c.out.Show(c.pixels); err != nil {
			errs = append(errs, fmt.Errorf("%s show: %w", c.name, err))
		}
	}
	return errors.Join(errs...)
}

// Solid paints every pixel one color.
type Solid struct {
	Color Color
}

// Render implements Effect.
func (s Solid) Render(ch *Channel, _ time.Time) { ch.Fill(s.Color) }

// NeedsPower implements Effect.
func (s Solid) NeedsPower(time.Time) bool { return false }
