// Package renderer draws the trail field and agents with raylib.
package renderer

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/slime/camera"
	"github.com/pthm-cable/slime/renderer/palette"
	"github.com/pthm-cable/slime/systems"
)

// TrailRenderer uploads the trail field to a texture and draws it tiled
// across the viewport so the torus reads as seamless.
type TrailRenderer struct {
	palette *palette.Palette

	tex        rl.Texture2D
	texW, texH int
	pixels     []color.RGBA

	initialized bool
}

// NewTrailRenderer creates a new trail renderer.
func NewTrailRenderer(pal *palette.Palette) *TrailRenderer {
	return &TrailRenderer{palette: pal}
}

// Init creates the field texture (must be called after raylib window is created).
func (r *TrailRenderer) Init(fieldW, fieldH int) {
	if r.initialized {
		return
	}

	r.texW = fieldW
	r.texH = fieldH

	img := rl.GenImageColor(fieldW, fieldH, rl.Black)
	r.tex = rl.LoadTextureFromImage(img)
	rl.SetTextureFilter(r.tex, rl.FilterPoint)
	rl.SetTextureWrap(r.tex, rl.WrapRepeat)
	rl.UnloadImage(img)

	r.initialized = true
}

// Palette returns the palette used to colour the field.
func (r *TrailRenderer) Palette() *palette.Palette { return r.palette }

// Update uploads the field view to the GPU texture.
func (r *TrailRenderer) Update(view systems.FieldView) {
	if view.Empty() {
		return
	}
	if !r.initialized {
		r.Init(view.Width(), view.Height())
	}
	if view.Width() != r.texW || view.Height() != r.texH {
		return
	}

	r.pixels = r.palette.Fill(view, r.pixels)
	rl.UpdateTexture(r.tex, r.pixels)
}

// Draw renders every visible copy of the field.
func (r *TrailRenderer) Draw(cam *camera.Camera) {
	if !r.initialized {
		return
	}

	src := rl.Rectangle{X: 0, Y: 0, Width: float32(r.texW), Height: float32(r.texH)}
	for _, t := range cam.Tiles() {
		dst := rl.Rectangle{X: t.X, Y: t.Y, Width: t.W, Height: t.H}
		rl.DrawTexturePro(r.tex, src, dst, rl.Vector2{}, 0, rl.White)
	}
}

// Unload frees GPU resources.
func (r *TrailRenderer) Unload() {
	if !r.initialized {
		return
	}
	rl.UnloadTexture(r.tex)
	r.initialized = false
}
