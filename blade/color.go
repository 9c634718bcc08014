// Package blade is the lighting host: pixel channels, their effects and the
// preset list that decides what the main and crystal channels show.
package blade

import "fmt"

// Color is a 16-bit per component RGB value.
type Color struct {
	R, G, B uint16
}

// Black is every component off.
var Black Color

// From8 widens 8-bit components so that 255 maps to 65535.
func From8(r, g, b uint8) Color {
	return Color{R: uint16(r) * 257, G: uint16(g) * 257, B: uint16(b) * 257}
}

// Scale multiplies each component by a 16-bit brightness.
func (c Color) Scale(brightness uint16) Color {
	return Color{
		R: uint16(uint32(c.R) * uint32(brightness) >> 16),
		G: uint16(uint32(c.G) * uint32(brightness) >> 16),
		B: uint16(uint32(c.B) * uint32(brightness) >> 16),
	}
}

// RGB8 narrows the color to 8-bit components.
func (c Color) RGB8() (r, g, b uint8) {
	return uint8(c.R >> 8), uint8(c.G >> 8), uint8(c.B >> 8)
}

// String renders "r,g,b" in 16-bit components.
func (c Color) String() string {
	return fmt.Sprintf("%d,%d,%d", c.R, c.G, c.B)
}
