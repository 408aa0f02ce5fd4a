// Package camera provides a 2D camera over the toroidal trail field.
package camera

import "math"

// Camera controls the viewport into the field.
// Supports pan and zoom with toroidal wrapping.
type Camera struct {
	// Position is the camera center in field coordinates
	X, Y float32

	// Zoom level (1.0 = one cell per pixel)
	Zoom float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// Field dimensions (for toroidal wrapping)
	WorldW, WorldH float32

	// Zoom constraints
	MinZoom, MaxZoom float32
}

// Tile is one on-screen copy of the field: the screen position of the
// field origin and the on-screen size of the whole field.
type Tile struct {
	X, Y float32
	W, H float32
}

// New creates a camera centered on the field with 1:1 zoom, or the
// smallest zoom that fills the viewport if the field is smaller.
func New(viewportW, viewportH, worldW, worldH float32) *Camera {
	c := &Camera{
		ViewportW: viewportW,
		ViewportH: viewportH,
		WorldW:    worldW,
		WorldH:    worldH,
	}
	c.updateLimits()
	c.Reset()
	return c
}

// updateLimits computes zoom bounds so the viewport never shows more than
// one copy of the field in its limiting dimension.
func (c *Camera) updateLimits() {
	c.MinZoom = max(c.ViewportW/c.WorldW, c.ViewportH/c.WorldH)
	c.MaxZoom = max(4, 4*c.MinZoom)
}

// WorldToScreen converts field coordinates to screen coordinates, taking
// the shortest toroidal path from the camera center.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	dx := toroidalDelta(wx, c.X, c.WorldW)
	dy := toroidalDelta(wy, c.Y, c.WorldH)

	sx = c.ViewportW/2 + dx*c.Zoom
	sy = c.ViewportH/2 + dy*c.Zoom
	return sx, sy
}

// ScreenToWorld converts screen coordinates to field coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	dx := (sx - c.ViewportW/2) / c.Zoom
	dy := (sy - c.ViewportH/2) / c.Zoom

	wx = mod(c.X+dx, c.WorldW)
	wy = mod(c.Y+dy, c.WorldH)
	return wx, wy
}

// Tiles returns every copy of the field that intersects the viewport.
// Drawing the field texture at each tile renders the torus seamlessly.
func (c *Camera) Tiles() []Tile {
	minX, minY, maxX, maxY := c.VisibleWorldBounds()
	x0 := floorDiv(minX, c.WorldW)
	x1 := floorDiv(maxX, c.WorldW)
	y0 := floorDiv(minY, c.WorldH)
	y1 := floorDiv(maxY, c.WorldH)

	w := c.WorldW * c.Zoom
	h := c.WorldH * c.Zoom
	tiles := make([]Tile, 0, (x1-x0+1)*(y1-y0+1))
	for ty := y0; ty <= y1; ty++ {
		for tx := x0; tx <= x1; tx++ {
			tiles = append(tiles, Tile{
				X: c.ViewportW/2 + (float32(tx)*c.WorldW-c.X)*c.Zoom,
				Y: c.ViewportH/2 + (float32(ty)*c.WorldH-c.Y)*c.Zoom,
				W: w,
				H: h,
			})
		}
	}
	return tiles
}

// Resize updates viewport dimensions and recalculates zoom constraints.
func (c *Camera) Resize(viewportW, viewportH float32) {
	if viewportW == c.ViewportW && viewportH == c.ViewportH {
		return
	}
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.updateLimits()
	c.SetZoom(c.Zoom)
}

// Pan moves the camera by the given delta in screen pixels.
// Automatically wraps around field boundaries.
func (c *Camera) Pan(dx, dy float32) {
	c.X = mod(c.X+dx/c.Zoom, c.WorldW)
	c.Y = mod(c.Y+dy/c.Zoom, c.WorldH)
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// ZoomAt zooms by factor while keeping the field point under the screen
// position (sx, sy) fixed.
func (c *Camera) ZoomAt(sx, sy, factor float32) {
	wx, wy := c.ScreenToWorld(sx, sy)
	c.ZoomBy(factor)
	nx, ny := c.ScreenToWorld(sx, sy)
	c.X = mod(c.X+toroidalDelta(wx, nx, c.WorldW), c.WorldW)
	c.Y = mod(c.Y+toroidalDelta(wy, ny, c.WorldH), c.WorldH)
}

// Reset returns the camera to the default position and zoom.
func (c *Camera) Reset() {
	c.X = c.WorldW / 2
	c.Y = c.WorldH / 2
	c.SetZoom(1)
}

// VisibleWorldBounds returns the field-coordinate bounds of the visible area.
// The bounds are unwrapped: min may be negative and max may exceed the field.
func (c *Camera) VisibleWorldBounds() (minX, minY, maxX, maxY float32) {
	halfW := c.ViewportW / (2 * c.Zoom)
	halfH := c.ViewportH / (2 * c.Zoom)

	minX = c.X - halfW
	maxX = c.X + halfW
	minY = c.Y - halfH
	maxY = c.Y + halfH
	return
}

// toroidalDelta computes the shortest signed distance from 'from' to 'to'
// in a toroidal space of the given size.
func toroidalDelta(to, from, size float32) float32 {
	d := to - from
	if d > size/2 {
		d -= size
	} else if d < -size/2 {
		d += size
	}
	return d
}

// mod computes the positive modulo (Go's % can return negative).
func mod(x, m float32) float32 {
	r := float32(math.Mod(float64(x), float64(m)))
	if r < 0 {
		r += m
	}
	return r
}

func floorDiv(x, size float32) int {
	return int(math.Floor(float64(x / size)))
}

// clamp restricts a value to a range.
func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
