//go:build screen

package display

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"

	"github.com/d21d3q/framebuffer"
	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"kyberd/blade"
)

const defaultFont = "/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf"

// ScreenSupported returns whether screen support is compiled in.
func ScreenSupported() bool {
	return true
}

// Framebuffer implements Screen on a 16-bit framebuffer.
type Framebuffer struct {
	dc              *gg.Context
	pixBuffer       []byte
	backBuffer      []byte
	rgbaImage       *image.RGBA
	width           int
	height          int
	lineLengthBytes int
	font            string
	initialized     bool
}

func newFramebuffer(cfg Config) (Screen, error) {
	if cfg.Device == "" {
		cfg.Device = "/dev/fb0"
	}
	if cfg.Font == "" {
		cfg.Font = defaultFont
	}

	fbLowLevel, err := framebuffer.OpenFrameBuffer(cfg.Device, os.O_RDWR)
	if err != nil {
		return nil, fmt.Errorf("open framebuffer: %w", err)
	}
	varInfo, err := fbLowLevel.VarScreenInfo()
	if err != nil {
		return nil, fmt.Errorf("get variable screen info: %w", err)
	}
	fixedInfo, err := fbLowLevel.FixScreenInfo()
	if err != nil {
		return nil, fmt.Errorf("get fixed screen info: %w", err)
	}

	v := &Framebuffer{font: cfg.Font}
	v.pixBuffer, err = fbLowLevel.Pixels()
	if err != nil {
		return nil, fmt.Errorf("get pixel data: %w", err)
	}
	v.width = int(varInfo.XRes)
	v.height = int(varInfo.YRes)
	v.lineLengthBytes = int(fixedInfo.LineLength)
	v.backBuffer = make([]byte, v.height*v.lineLengthBytes)

	slog.Info("Display framebuffer", "width", v.width, "height", v.height,
		"bpp", varInfo.BitsPerPixel, "stride", v.lineLengthBytes)

	v.rgbaImage = image.NewRGBA(image.Rect(0, 0, v.width, v.height))
	v.dc = gg.NewContextForRGBA(v.rgbaImage)
	v.initialized = true
	v.clear()
	return v, nil
}

func (v *Framebuffer) clear() {
	for i := range v.pixBuffer {
		v.pixBuffer[i] = 0
	}
}

func (v *Framebuffer) update() {
	for y := 0; y < v.height; y++ {
		for x := 0; x < v.width; x++ {
			r, g, b, _ := v.rgbaImage.At(x, y).RGBA()
			r5 := uint16(r >> (16 - 5))
			g6 := uint16(g >> (16 - 6))
			b5 := uint16(b >> (16 - 5))
			pixel16 := (r5 << 11) | (g6 << 5) | b5
			fbIdx := (y * v.lineLengthBytes) + (x * 2)
			if fbIdx+1 < len(v.backBuffer) {
				binary.LittleEndian.PutUint16(v.backBuffer[fbIdx:], pixel16)
			}
		}
	}
	copy(v.pixBuffer, v.backBuffer)
}

func (v *Framebuffer) setFontSize(size int) {
	if err := v.dc.LoadFontFace(v.font, float64(size)); err != nil {
		slog.Warn("Display font", "path", v.font, "error", err)
	}
}

func (v *Framebuffer) page(bg color.Color, title string, fg float64) {
	draw.Draw(v.rgbaImage, v.rgbaImage.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	v.setFontSize(64)
	v.dc.SetRGB(fg, fg, fg)
	v.dc.DrawStringAnchored(title, float64(v.width/2), float64(v.height/2), 0.5, 0.5)
}

// Crystal implements Screen.
func (v *Framebuffer) Crystal(label string, c blade.Color) {
	if !v.initialized {
		return
	}
	r, g, b := c.RGB8()
	v.page(color.RGBA{A: 255}, label, 1)

	// Swatch along the bottom third
	swatch := image.Rect(0, v.height*2/3, v.width, v.height)
	draw.Draw(v.rgbaImage, swatch, image.NewUniform(color.RGBA{R: r, G: g, B: b, A: 255}), image.Point{}, draw.Src)
	v.update()
}

// NoCrystal implements Screen.
func (v *Framebuffer) NoCrystal() {
	if !v.initialized {
		return
	}
	v.page(color.RGBA{R: 60, G: 30, A: 255}, "No Crystal", 1)
	v.update()
}

// Off implements Screen.
func (v *Framebuffer) Off() {
	if !v.initialized {
		return
	}
	v.page(color.RGBA{A: 255}, "Off", 0.4)
	v.update()
}

// Release implements Screen.
func (v *Framebuffer) Release() error {
	v.clear()
	v.initialized = false
	return nil
}
