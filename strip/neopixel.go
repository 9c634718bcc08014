package strip

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"slices"

	"kyberd/blade"
)

// Neopixel implements Strip using an external neopixel tool via named pipe.
// Each frame is one line: "px <index> RRGGBB RRGGBB ...".
type Neopixel struct {
	pipe  io.WriteCloser
	index int
	last  []blade.Color
	buf   bytes.Buffer
}

// NewNeopixel opens the tool's pipe.
func NewNeopixel(pipePath string, index int) (*Neopixel, error) {
	f, err := os.OpenFile(pipePath, os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open neopixel pipe %s: %w", pipePath, err)
	}
	return newNeopixel(f, index), nil
}

func newNeopixel(w io.WriteCloser, index int) *Neopixel {
	return &Neopixel{pipe: w, index: index}
}

// Show implements Strip.Show. Unchanged frames are not written.
func (n *Neopixel) Show(pixels []blade.Color) error {
	if n.last != nil && slices.Equal(n.last, pixels) {
		return nil
	}
	n.last = append(n.last[:0], pixels...)

	n.buf.Reset()
	fmt.Fprintf(&n.buf, "px %d", n.index)
	for _, c := range pixels {
		r, g, b := c.RGB8()
		fmt.Fprintf(&n.buf, " %02x%02x%02x", r, g, b)
	}
	n.buf.WriteByte('\n')

	if _, err := n.pipe.Write(n.buf.Bytes()); err != nil {
		n.last = nil
		return fmt.Errorf("write neopixel pipe: %w", err)
	}
	return nil
}

// Release implements Strip.Release.
func (n *Neopixel) Release() error {
	if n.pipe == nil {
		return nil
	}
	return n.pipe.Close()
}
