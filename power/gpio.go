package power

import "github.com/warthog618/gpio"

// gpioPin drives a pin through the gpio package.
type gpioPin struct {
	pin *gpio.Pin
}

func newGPIOPin(n uint8) *gpioPin {
	p := gpio.NewPin(int(n))
	p.Output()
	return &gpioPin{pin: p}
}

func (g *gpioPin) high() { g.pin.High() }
func (g *gpioPin) low()  { g.pin.Low() }

func (g *gpioPin) close() error {
	g.pin.Input()
	return gpio.Close()
}
