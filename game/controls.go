package game

import (
	"time"

	"github.com/pthm-cable/slime/config"
	"github.com/pthm-cable/slime/renderer/palette"
	"github.com/pthm-cable/slime/telemetry"
)

// statusDuration is how long a status message stays visible.
const statusDuration = 3 * time.Second

// Paused reports whether ticking is paused.
func (g *Game) Paused() bool { return g.paused }

// TogglePause pauses or resumes ticking.
func (g *Game) TogglePause() {
	g.paused = !g.paused
}

// RequestStep runs exactly one tick on the next Update while paused.
func (g *Game) RequestStep() {
	if g.paused {
		g.stepOnce = true
	}
}

// StepsPerUpdate returns the ticks attempted per Update.
func (g *Game) StepsPerUpdate() int { return g.stepsPerUpdate }

// SetStepsPerUpdate changes the ticks attempted per Update.
func (g *Game) SetStepsPerUpdate(n int) {
	g.stepsPerUpdate = min(max(n, 1), maxStepsPerUpdate)
}

// Config returns the configuration the game was built with.
func (g *Game) Config() *config.Config { return g.cfg }

// Palette returns the channel palette shared by snapshots and the viewer.
func (g *Game) Palette() *palette.Palette { return g.palette }

// LastStats returns the most recent telemetry window, or nil before the first flush.
func (g *Game) LastStats() *telemetry.WindowStats { return g.lastStats }

// PerfStats returns the current perf window.
func (g *Game) PerfStats() telemetry.PerfStats { return g.perfCollector.Stats() }

// Status returns the current transient status message.
func (g *Game) Status() string {
	if time.Now().After(g.statusUntil) {
		return ""
	}
	return g.status
}

func (g *Game) setStatus(msg string) {
	g.status = msg
	g.statusUntil = time.Now().Add(statusDuration)
}
