// Package viewer presents a running game with raylib: the tiled trail
// texture, an optional agent overlay, and the HUD panels.
package viewer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/slime/camera"
	"github.com/pthm-cable/slime/game"
	"github.com/pthm-cable/slime/renderer"
	"github.com/pthm-cable/slime/systems"
	"github.com/pthm-cable/slime/ui"
)

// Viewer owns the window-side state for one game.
type Viewer struct {
	game *game.Game

	camera        *camera.Camera
	trailRenderer *renderer.TrailRenderer
	agentRenderer *renderer.AgentRenderer
	channelColors []rl.Color
	agentBuf      []systems.Agent

	overlays      *ui.OverlayRegistry
	hud           *ui.HUD
	perfPanel     *ui.PerfPanel
	statsPanel    *ui.StatsPanel
	controlsPanel *ui.ControlsPanel
	probePanel    *ui.ProbePanel

	screenWidth, screenHeight float32
}

// New creates a viewer for g. The raylib window must already be open.
func New(g *game.Game) *Viewer {
	cfg := g.Config()
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	fw, fh := g.Simulation().Size()

	channelColors := make([]rl.Color, cfg.Field.Channels)
	for c := range channelColors {
		channelColors[c] = rl.White
		if c < len(cfg.Render.ChannelColors) {
			channelColors[c] = toColor(cfg.Render.ChannelColors[c])
		}
	}
	speciesColors := make([]rl.Color, len(cfg.Species))
	for i, sp := range cfg.Species {
		speciesColors[i] = channelColors[sp.DepositChannel]
	}

	return &Viewer{
		game:          g,
		camera:        camera.New(w, h, float32(fw), float32(fh)),
		trailRenderer: renderer.NewTrailRenderer(g.Palette()),
		agentRenderer: renderer.NewAgentRenderer(speciesColors),
		channelColors: channelColors,
		overlays:      ui.NewOverlayRegistry(),
		hud:           ui.NewHUD(),
		perfPanel:     ui.NewPerfPanel(int32(w)-300, 10),
		statsPanel:    ui.NewStatsPanel(int32(w)-300, 150, 290),
		controlsPanel: ui.NewControlsPanel(10, 120, 220),
		probePanel:    ui.NewProbePanel(160),
		screenWidth:   w,
		screenHeight:  h,
	}
}

// Update handles input and advances the game by one frame.
func (v *Viewer) Update() {
	v.handleInput()
	v.game.Update()
}

// Unload releases GPU resources. The game is unloaded separately.
func (v *Viewer) Unload() {
	v.trailRenderer.Unload()
}

func toColor(rgb []float64) rl.Color {
	c := rl.Color{A: 255}
	ch := []*uint8{&c.R, &c.G, &c.B}
	for i := 0; i < 3 && i < len(rgb); i++ {
		*ch[i] = uint8(min(max(rgb[i], 0), 1) * 255)
	}
	return c
}
