package blade

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrBadStyle is returned for style strings that cannot be parsed.
var ErrBadStyle = errors.New("blade: bad style")

// StyleKind selects how a style paints its channel.
type StyleKind int

const (
	StyleBase    StyleKind = iota // the preset's base color
	StyleOff                      // dark
	StyleBuiltin                  // builtin style with a color override
)

// Style is a parsed style string.
type Style struct {
	Kind   StyleKind
	Preset int
	Slot   int
	Color  Color
}

// Override builds the builtin style that binds color to a preset slot.
func Override(preset, slot int, color Color) Style {
	return Style{Kind: StyleBuiltin, Preset: preset, Slot: slot, Color: color}
}

// ParseStyle parses "", "base", "black", "off" and "builtin <preset> <slot> r,g,b".
func ParseStyle(s string) (Style, error) {
	f := strings.Fields(s)
	if len(f) == 0 {
		return Style{Kind: StyleBase}, nil
	}

	switch strings.ToLower(f[0]) {
	case "base":
		return Style{Kind: StyleBase}, nil
	case "black", "off":
		return Style{Kind: StyleOff}, nil
	case "builtin":
	default:
		return Style{}, fmt.Errorf("%w: %q", ErrBadStyle, s)
	}

	if len(f) != 4 {
		return Style{}, fmt.Errorf("%w: %q", ErrBadStyle, s)
	}
	preset, err := strconv.Atoi(f[1])
	if err != nil || preset < 0 {
		return Style{}, fmt.Errorf("%w: preset %q", ErrBadStyle, f[1])
	}
	slot, err := strconv.Atoi(f[2])
	if err != nil || slot < 0 {
		return Style{}, fmt.Errorf("%w: slot %q", ErrBadStyle, f[2])
	}
	c, err := parseColor(f[3])
	if err != nil {
		return Style{}, err
	}
	return Override(preset, slot, c), nil
}

func parseColor(s string) (Color, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return Color{}, fmt.Errorf("%w: color %q", ErrBadStyle, s)
	}
	var v [3]uint16
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return Color{}, fmt.Errorf("%w: color %q", ErrBadStyle, s)
		}
		v[i] = uint16(n)
	}
	return Color{R: v[0], G: v[1], B: v[2]}, nil
}

// String formats the style so that ParseStyle returns it unchanged.
func (s Style) String() string {
	switch s.Kind {
	case StyleOff:
		return "black"
	case StyleBuiltin:
		return fmt.Sprintf("builtin %d %d %s", s.Preset, s.Slot, s.Color)
	default:
		return "base"
	}
}

// Effect returns the effect that paints this style over a preset base color.
func (s Style) Effect(base Color) Effect {
	switch s.Kind {
	case StyleOff:
		return Solid{Color: Black}
	case StyleBuiltin:
		return Solid{Color: s.Color}
	default:
		return Solid{Color: base}
	}
}
