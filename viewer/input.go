package viewer

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// handleInput processes keyboard and mouse input.
func (v *Viewer) handleInput() {
	// Window resize propagation
	v.handleResize()

	// Fullscreen toggle
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		v.game.TogglePause()
	}
	if rl.IsKeyPressed(rl.KeyN) {
		v.game.RequestStep()
	}

	// Steps-per-update control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) {
		v.game.SetStepsPerUpdate(v.game.StepsPerUpdate() - 1)
	}
	if rl.IsKeyPressed(rl.KeyPeriod) {
		v.game.SetStepsPerUpdate(v.game.StepsPerUpdate() + 1)
	}

	// Exposure
	pal := v.trailRenderer.Palette()
	if rl.IsKeyPressed(rl.KeyX) {
		pal.SetExposure(pal.Exposure() * 1.25)
	}
	if rl.IsKeyPressed(rl.KeyZ) {
		pal.SetExposure(pal.Exposure() * 0.8)
	}

	if rl.IsKeyPressed(rl.KeyF12) {
		if _, err := v.game.SaveSnapshot(); err != nil {
			slog.Error("failed to save snapshot", "error", err)
		}
	}

	// Overlay toggles
	for key := rl.GetKeyPressed(); key != 0; key = rl.GetKeyPressed() {
		if id, on, ok := v.overlays.HandleKeyPress(key); ok {
			slog.Debug("overlay toggled", "overlay", id, "enabled", on)
		}
	}

	// Camera controls
	v.handleCameraInput()
}

// handleResize checks for window resize and propagates new dimensions.
func (v *Viewer) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == v.screenWidth && h == v.screenHeight {
		return
	}
	v.screenWidth = w
	v.screenHeight = h

	v.camera.Resize(w, h)
	v.perfPanel.SetPosition(int32(w)-300, 10)
	v.statsPanel.SetPosition(int32(w)-300, 150)
}

// handleCameraInput processes camera pan/zoom controls.
func (v *Viewer) handleCameraInput() {
	// Pan speed in screen pixels per frame
	const panSpeed = float32(8.0)

	if rl.IsKeyDown(rl.KeyRight) {
		v.camera.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		v.camera.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		v.camera.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		v.camera.Pan(0, -panSpeed)
	}

	// Drag to pan
	if rl.IsMouseButtonDown(rl.MouseButtonLeft) {
		d := rl.GetMouseDelta()
		v.camera.Pan(-d.X, -d.Y)
	}

	// Zoom toward the cursor with the mouse wheel
	if wheelMove := rl.GetMouseWheelMove(); wheelMove != 0 {
		m := rl.GetMousePosition()
		v.camera.ZoomAt(m.X, m.Y, 1+wheelMove*0.1)
	}

	// Keyboard zoom with +/- (= and - keys)
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		v.camera.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		v.camera.ZoomBy(0.8)
	}

	// Home key to reset camera
	if rl.IsKeyPressed(rl.KeyHome) {
		v.camera.Reset()
	}
}
