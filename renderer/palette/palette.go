// Package palette maps trail channels to display colours. It has no
// graphics dependencies so PNG snapshots and tests can use it headless.
package palette

import (
	"image"
	"image/color"

	"github.com/pthm-cable/slime/config"
	"github.com/pthm-cable/slime/systems"
)

// Palette holds one RGB colour per channel and an exposure multiplier.
type Palette struct {
	colors   [][3]float32
	exposure float32
}

// New builds a palette for channels channels. Missing colours default to white.
func New(colors [][]float64, channels int, exposure float64) *Palette {
	p := &Palette{
		colors:   make([][3]float32, channels),
		exposure: float32(exposure),
	}
	for c := range p.colors {
		p.colors[c] = [3]float32{1, 1, 1}
		if c < len(colors) {
			for i := 0; i < 3 && i < len(colors[c]); i++ {
				p.colors[c][i] = float32(colors[c][i])
			}
		}
	}
	return p
}

// FromConfig builds the palette described by the render section.
func FromConfig(cfg *config.Config) *Palette {
	return New(cfg.Render.ChannelColors, cfg.Field.Channels, cfg.Render.Exposure)
}

// SetExposure changes the brightness multiplier.
func (p *Palette) SetExposure(e float32) { p.exposure = e }

// Exposure returns the brightness multiplier.
func (p *Palette) Exposure() float32 { return p.exposure }

// Color maps one cell's channel values to an opaque colour.
func (p *Palette) Color(cell []float32) color.RGBA {
	var r, g, b float32
	for c, v := range cell {
		if c >= len(p.colors) {
			break
		}
		col := p.colors[c]
		r += v * col[0]
		g += v * col[1]
		b += v * col[2]
	}
	return color.RGBA{R: toByte(r * p.exposure), G: toByte(g * p.exposure), B: toByte(b * p.exposure), A: 255}
}

// Fill writes one colour per cell of view into dst (row-major), growing it
// if needed.
func (p *Palette) Fill(view systems.FieldView, dst []color.RGBA) []color.RGBA {
	cells := view.Width() * view.Height()
	if cap(dst) < cells {
		dst = make([]color.RGBA, cells)
	}
	dst = dst[:cells]
	data := view.Values()
	c := view.Channels()
	if len(data) < cells*c {
		clear(dst)
		return dst
	}
	for i := range dst {
		dst[i] = p.Color(data[i*c : i*c+c])
	}
	return dst
}

// Image renders view into a new RGBA image.
func (p *Palette) Image(view systems.FieldView) *image.RGBA {
	w, h := view.Width(), view.Height()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	px := p.Fill(view, nil)
	for i, col := range px {
		o := i * 4
		img.Pix[o] = col.R
		img.Pix[o+1] = col.G
		img.Pix[o+2] = col.B
		img.Pix[o+3] = col.A
	}
	return img
}

func toByte(v float32) uint8 {
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
