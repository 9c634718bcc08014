package strip

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/tarm/serial"

	"kyberd/blade"
)

// Adalight implements Strip for serial LED controllers speaking the
// Adalight protocol: "Ada", count-1 as big endian uint16, a checksum
// byte (hi ^ lo ^ 0x55), then RGB triplets.
type Adalight struct {
	port io.WriteCloser
	last []blade.Color
	buf  []byte
}

// NewAdalight opens the serial device.
func NewAdalight(device string, baud int) (*Adalight, error) {
	if baud == 0 {
		baud = 115200
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:         device,
		Baud:         baud,
		WriteTimeout: time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", device, err)
	}
	return newAdalight(port), nil
}

func newAdalight(w io.WriteCloser) *Adalight {
	return &Adalight{port: w}
}

// Show implements Strip.Show. Unchanged frames are not written.
func (a *Adalight) Show(pixels []blade.Color) error {
	if len(pixels) == 0 {
		return nil
	}
	if a.last != nil && slices.Equal(a.last, pixels) {
		return nil
	}
	a.last = append(a.last[:0], pixels...)

	n := len(pixels) - 1
	hi, lo := byte(n>>8), byte(n)
	a.buf = append(a.buf[:0], 'A', 'd', 'a', hi, lo, hi^lo^0x55)
	for _, c := range pixels {
		r, g, b := c.RGB8()
		a.buf = append(a.buf, r, g, b)
	}

	if _, err := a.port.Write(a.buf); err != nil {
		a.last = nil
		return fmt.Errorf("write adalight: %w", err)
	}
	return nil
}

// Release implements Strip.Release.
func (a *Adalight) Release() error {
	return a.port.Close()
}
