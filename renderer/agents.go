package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/slime/camera"
	"github.com/pthm-cable/slime/systems"
)

// maxDrawnAgents caps how many agents the overlay draws per frame.
const maxDrawnAgents = 20000

// AgentRenderer draws a strided sample of agents as dots over the field.
type AgentRenderer struct {
	colors []rl.Color // per species
}

// NewAgentRenderer creates an agent renderer with one colour per species.
func NewAgentRenderer(colors []rl.Color) *AgentRenderer {
	return &AgentRenderer{colors: colors}
}

// Draw renders the agents visible through cam.
func (r *AgentRenderer) Draw(agents []systems.Agent, cam *camera.Camera) {
	stride := max(1, len(agents)/maxDrawnAgents)
	size := max(1, cam.Zoom*0.5)
	for i := 0; i < len(agents); i += stride {
		a := &agents[i]
		col := rl.White
		if int(a.Species) < len(r.colors) {
			col = r.colors[a.Species]
		}
		sx, sy := cam.WorldToScreen(a.X, a.Y)
		if sx < 0 || sy < 0 || sx > cam.ViewportW || sy > cam.ViewportH {
			continue
		}
		rl.DrawRectangleV(rl.Vector2{X: sx, Y: sy}, rl.Vector2{X: size, Y: size}, col)
	}
}
