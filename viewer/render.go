package viewer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/slime/telemetry"
	"github.com/pthm-cable/slime/ui"
)

// Draw renders one frame.
func (v *Viewer) Draw() {
	sim := v.game.Simulation()
	view := sim.Field()
	v.trailRenderer.Update(view)

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	v.trailRenderer.Draw(v.camera)

	if v.overlays.IsEnabled(ui.OverlayAgents) {
		v.agentBuf = sim.AgentsInto(v.agentBuf)
		v.agentRenderer.Draw(v.agentBuf, v.camera)
	}

	if v.overlays.IsEnabled(ui.OverlayHUD) {
		v.drawHUD()
	}

	if v.overlays.IsEnabled(ui.OverlayPerf) {
		v.perfPanel.Draw(v.game.PerfStats(), telemetry.PhaseOrder())
	}

	if v.overlays.IsEnabled(ui.OverlayStats) {
		v.statsPanel.Draw(v.game.LastStats())
	}

	v.controlsPanel.SetVisible(v.overlays.IsEnabled(ui.OverlayControls))
	v.controlsPanel.Draw(v.overlays)

	if v.overlays.IsEnabled(ui.OverlayProbe) && !view.Empty() {
		v.drawProbe()
	}

	rl.EndDrawing()
}

func (v *Viewer) drawHUD() {
	sim := v.game.Simulation()
	stats := sim.Stats()
	fw, fh := sim.Size()
	perf := v.game.PerfStats()

	v.hud.Draw(ui.HUDData{
		Title:         "Slime",
		Tick:          sim.Tick(),
		Agents:        stats.Agents,
		FieldW:        fw,
		FieldH:        fh,
		StepsPerFrame: v.game.StepsPerUpdate(),
		TicksPerSec:   perf.TicksPerSecond,
		FPS:           rl.GetFPS(),
		SkippedTicks:  v.game.SkippedTicks(),
		FailedTicks:   stats.FailedTicks,
		Paused:        v.game.Paused(),
		Status:        v.game.Status(),
	})
	v.hud.DrawControls(int32(v.screenWidth), int32(v.screenHeight), ui.KeyLegend)
}

func (v *Viewer) drawProbe() {
	m := rl.GetMousePosition()
	wx, wy := v.camera.ScreenToWorld(m.X, m.Y)
	x, y := int(wx), int(wy)

	view := v.game.Simulation().Field()
	values := make([]float32, view.Channels())
	for c := range values {
		values[c] = view.At(x, y, c)
	}
	v.probePanel.Draw(int32(m.X), int32(m.Y), ui.ProbeData{
		X:      x,
		Y:      y,
		Values: values,
		Colors: v.channelColors,
	})
}
