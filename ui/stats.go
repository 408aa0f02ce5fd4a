package ui

import (
	"fmt"

	"github.com/dustin/go-humanize"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/slime/telemetry"
)

// StatsPanel renders the most recent telemetry window.
type StatsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	sections []SectionDescriptor
}

// NewStatsPanel creates a new stats panel.
func NewStatsPanel(x, y, width int32) *StatsPanel {
	return &StatsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		sections: statsSections(),
	}
}

// SetPosition updates the panel position.
func (p *StatsPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

func stats(data any) *telemetry.WindowStats { return data.(*telemetry.WindowStats) }

func statsSections() []SectionDescriptor {
	warn := func(v func(*telemetry.WindowStats) uint64) func(any) rl.Color {
		return func(d any) rl.Color {
			if v(stats(d)) > 0 {
				return DefaultTheme().WarnColor
			}
			return DefaultTheme().ValueColor
		}
	}
	count := func(v func(*telemetry.WindowStats) uint64) func(any) string {
		return func(d any) string { return humanize.Comma(int64(v(stats(d)))) }
	}

	return []SectionDescriptor{
		{
			ID:    "field",
			Title: "Field",
			Fields: []FieldDescriptor{
				{ID: "mass", Label: "Mass", Widget: WidgetText, TextGetter: func(d any) string {
					return humanize.CommafWithDigits(stats(d).TotalMass, 1)
				}},
				{ID: "max", Label: "Max cell", Widget: WidgetText, Format: "%.3f", Getter: func(d any) float32 {
					return float32(stats(d).MaxCell)
				}},
				{ID: "contrast", Label: "Contrast", Widget: WidgetBar, Range: FieldRange{Min: 0, Max: 4}, Getter: func(d any) float32 {
					return float32(stats(d).Contrast)
				}},
			},
		},
		{
			ID:    "swarm",
			Title: "Swarm",
			Fields: []FieldDescriptor{
				{ID: "agents", Label: "Agents", Widget: WidgetText, TextGetter: func(d any) string {
					return humanize.Comma(int64(stats(d).Agents))
				}},
				{ID: "separation", Label: "Separation", Widget: WidgetText, Format: "%.1f", Getter: func(d any) float32 {
					return float32(stats(d).Separation)
				}, Visible: func(d any) bool { return stats(d).Separation > 0 }},
				{ID: "dispersion", Label: "Dispersion", Widget: WidgetBar, Range: DefaultRange(), Getter: func(d any) float32 {
					return float32(stats(d).HeadingDispersion)
				}},
			},
		},
		{
			ID:    "health",
			Title: "Health",
			Fields: []FieldDescriptor{
				{ID: "skipped", Label: "Skipped", Widget: WidgetText,
					TextGetter:  count(func(s *telemetry.WindowStats) uint64 { return s.SkippedTicks }),
					ColorGetter: warn(func(s *telemetry.WindowStats) uint64 { return s.SkippedTicks })},
				{ID: "failed", Label: "Failed", Widget: WidgetText,
					TextGetter:  count(func(s *telemetry.WindowStats) uint64 { return s.FailedTicks }),
					ColorGetter: warn(func(s *telemetry.WindowStats) uint64 { return s.FailedTicks })},
				{ID: "degenerate", Label: "Degenerate", Widget: WidgetText,
					TextGetter: func(d any) string {
						s := stats(d)
						return fmt.Sprintf("%s agents / %s cells",
							humanize.Comma(int64(s.AgentDegenerate)), humanize.Comma(int64(s.FieldDegenerate)))
					},
					ColorGetter: warn(func(s *telemetry.WindowStats) uint64 { return s.AgentDegenerate + s.FieldDegenerate })},
			},
		},
	}
}

// Draw renders the panel. A nil window draws a placeholder.
func (p *StatsPanel) Draw(w *telemetry.WindowStats) int32 {
	r := p.renderer
	padding := r.Theme.Padding

	if w == nil {
		r.DrawPanel(p.x, p.y, p.width, r.Theme.LineHeight+padding*2)
		rl.DrawText("Waiting for first window", p.x+padding, p.y+padding, r.Theme.FontSize, r.Theme.LabelColor)
		return p.y + r.Theme.LineHeight + padding*2
	}

	height := padding*2 + r.Theme.LineHeight + 4
	for _, sd := range p.sections {
		height += r.SectionHeight(sd, w)
	}
	r.DrawPanel(p.x, p.y, p.width, height)

	y := p.y + padding
	rl.DrawText(fmt.Sprintf("Window @ tick %d", w.WindowEndTick), p.x+padding, y, 14, rl.White)
	y += r.Theme.LineHeight + 4
	for _, sd := range p.sections {
		y = r.DrawSection(p.x+padding, y, sd, w, p.width-padding*2)
	}
	return y
}
