package power

import "github.com/hjkoskel/govattu"

// vattuPin drives a pin through memory-mapped registers.
type vattuPin struct {
	hw  govattu.Vattu
	pin uint8
}

func newVattuPin(hw govattu.Vattu, pin uint8) *vattuPin {
	hw.PinMode(pin, govattu.ALToutput)
	return &vattuPin{hw: hw, pin: pin}
}

func (v *vattuPin) high()        { v.hw.PinSet(v.pin) }
func (v *vattuPin) low()         { v.hw.PinClear(v.pin) }
func (v *vattuPin) close() error { return v.hw.Close() }
