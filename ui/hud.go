package ui

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/slime/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title         string
	Tick          uint64
	Agents        int
	FieldW        int
	FieldH        int
	StepsPerFrame int
	TicksPerSec   float64
	FPS           int32
	SkippedTicks  uint64
	FailedTicks   uint64
	Paused        bool
	Status        string // transient message, e.g. "snapshot saved"
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Agents: %s | Field: %dx%d", humanize.Comma(int64(data.Agents)), data.FieldW, data.FieldH),
		10, 35, 16, rl.LightGray,
	)

	rl.DrawText(
		fmt.Sprintf("Tick: %s | Steps: %dx | TPS: %.0f | FPS: %d",
			humanize.Comma(int64(data.Tick)), data.StepsPerFrame, data.TicksPerSec, data.FPS),
		10, 55, 16, rl.LightGray,
	)

	statusText := "Running"
	statusColor := rl.Yellow
	if data.Paused {
		statusText = "PAUSED"
	}
	if data.FailedTicks > 0 || data.SkippedTicks > 0 {
		statusText += fmt.Sprintf(" | skipped %d | failed %d", data.SkippedTicks, data.FailedTicks)
		statusColor = h.renderer.Theme.WarnColor
	}
	rl.DrawText(statusText, 10, 75, 16, statusColor)

	if data.Status != "" {
		rl.DrawText(data.Status, 10, 95, 14, rl.Green)
	}
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenWidth, screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders the per-phase performance panel.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel for the given phases in order.
func (p *PerfPanel) Draw(stats telemetry.PerfStats, phases []string) {
	x := p.x
	y := p.y

	rl.DrawText("Tick Performance", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Avg: %s  Max: %s",
		stats.AvgTickDuration.Round(time.Microsecond), stats.MaxTickDuration.Round(time.Microsecond)),
		x, y, 14, rl.Yellow)
	y += 16

	for _, name := range phases {
		avg, ok := stats.PhaseAvg[name]
		if !ok {
			continue
		}
		pct := stats.PhasePct[name]

		color := rl.LightGray
		if pct > 60 {
			color = rl.Red
		} else if pct > 30 {
			color = rl.Orange
		}

		rl.DrawText(
			fmt.Sprintf("%-12s %8s %5.1f%%", name, avg.Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}

// ProbeData holds the field values under the cursor.
type ProbeData struct {
	X, Y   int
	Values []float32
	Colors []rl.Color // per channel
}

// ProbePanel renders the channel values of one field cell.
type ProbePanel struct {
	renderer *Renderer
	width    int32
}

// NewProbePanel creates a new probe panel.
func NewProbePanel(width int32) *ProbePanel {
	return &ProbePanel{renderer: NewRenderer(), width: width}
}

// Draw renders the probe next to the screen position (sx, sy).
func (p *ProbePanel) Draw(sx, sy int32, data ProbeData) {
	r := p.renderer
	padding := r.Theme.Padding
	height := padding*2 + r.Theme.LineHeight*int32(len(data.Values)+1)

	x, y := sx+16, sy+16
	r.DrawPanel(x, y, p.width, height)
	y += padding
	rl.DrawText(fmt.Sprintf("cell %d,%d", data.X, data.Y), x+padding, y, r.Theme.FontSize, rl.White)
	y += r.Theme.LineHeight
	for c, v := range data.Values {
		col := rl.White
		if c < len(data.Colors) {
			col = data.Colors[c]
		}
		y = r.DrawColorSwatch(x+padding, y, fmt.Sprintf("ch %d", c), col, fmt.Sprintf("%.4f", v))
	}
}
