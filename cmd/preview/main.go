// Parameter preview tool - a small live simulation with sliders for the
// sensing, motion and relaxation parameters.
//
// Usage: go run ./cmd/preview [-config base.yaml]
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/slime/camera"
	"github.com/pthm-cable/slime/config"
	"github.com/pthm-cable/slime/game"
	"github.com/pthm-cable/slime/renderer"
	"github.com/pthm-cable/slime/renderer/palette"
)

const (
	windowWidth  = 1000
	windowHeight = 720
	previewSize  = 512
	panelWidth   = windowWidth - previewSize - 30
)

// slider binds one config value to a raygui slider.
type slider struct {
	label    string
	min, max float32
	format   string
	value    func(cfg *config.Config) *float64
}

var sliders = []slider{
	{"Sensor angle (rad)", 0.05, 1.6, "%.2f", func(c *config.Config) *float64 { return &c.Sensor.AngleSpacing }},
	{"Sensor offset (cells)", 1, 40, "%.1f", func(c *config.Config) *float64 { return &c.Sensor.Offset }},
	{"Turn speed (rad/s)", 0, 1.5, "%.2f", func(c *config.Config) *float64 { return &c.Motion.TurnSpeed }},
	{"Move speed (cells/s)", 0.1, 4, "%.2f", func(c *config.Config) *float64 { return &c.Motion.MoveSpeed }},
	{"Turn jitter", 0, 1, "%.2f", func(c *config.Config) *float64 { return &c.Motion.TurnJitter }},
	{"Diffuse speed", 0, 1, "%.2f", func(c *config.Config) *float64 { return &c.Field.DiffuseSpeed }},
	{"Evaporation (all channels)", 0, 0.2, "%.3f", func(c *config.Config) *float64 { return &c.Field.Evaporation[0] }},
}

// tunedSections is the subset of config the preview edits, in YAML form.
type tunedSections struct {
	Field  config.FieldConfig  `yaml:"field"`
	Sensor config.SensorConfig `yaml:"sensor"`
	Motion config.MotionConfig `yaml:"motion"`
}

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	fieldSize := flag.Int("field", 256, "Preview field width and height in cells")
	agents := flag.Int("agents", 20000, "Preview agent count")
	flag.Parse()

	base, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	base.Field.Width = *fieldSize
	base.Field.Height = *fieldSize
	base.Agents.Count = *agents
	base.Recompute()

	rl.InitWindow(windowWidth, windowHeight, "Slime Parameter Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	cfg := base.Clone()
	seed := int64(12345)
	stepsPerFrame := float32(2)
	paused := false

	sim, err := game.NewSimulation(cfg, seed)
	if err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	restart := func() {
		next, err := game.NewSimulation(cfg, seed)
		if err != nil {
			log.Printf("restart rejected: %v", err)
			return
		}
		sim.Shutdown()
		sim = next
	}
	defer func() { sim.Shutdown() }()

	cam := camera.New(previewSize, previewSize, float32(*fieldSize), float32(*fieldSize))
	trail := renderer.NewTrailRenderer(palette.FromConfig(cfg))
	defer trail.Unload()

	copied := 0

	for !rl.WindowShouldClose() {
		if !paused {
			for i := 0; i < int(stepsPerFrame); i++ {
				if err := sim.Step(cfg.Derived.DT32); err != nil {
					log.Printf("step failed: %v", err)
					break
				}
			}
		}
		trail.Update(sim.Field())

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		// Draw preview
		trail.Draw(cam)
		rl.DrawRectangleLines(0, 0, previewSize, previewSize, rl.DarkGray)

		// Draw stats
		view := sim.Field()
		statsY := int32(previewSize + 15)
		rl.DrawText(fmt.Sprintf("Tick: %d  Mass: %.0f  Seed: %d", sim.Tick(), view.Mass(), seed), 15, statsY, 16, rl.DarkGray)

		// Control panel
		panelX := float32(previewSize + 20)
		panelY := float32(10)

		rl.DrawText("Slime Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		changed := false
		for _, s := range sliders {
			v := s.value(cfg)
			rl.DrawText(s.label, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 18
			nv := gui.SliderBar(
				rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
				"", "",
				float32(*v), s.min, s.max,
			)
			rl.DrawText(fmt.Sprintf(s.format, *v), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
			if nv != float32(*v) {
				*v = float64(nv)
				changed = true
			}
			panelY += 35
		}
		if changed {
			for c := range cfg.Field.Evaporation {
				cfg.Field.Evaporation[c] = cfg.Field.Evaporation[0]
			}
			cfg.Recompute()
			restart()
		}

		rl.DrawText("Steps per frame", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		stepsPerFrame = gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"", "",
			stepsPerFrame, 1, 16,
		)
		rl.DrawText(fmt.Sprintf("%d", int(stepsPerFrame)), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		panelY += 45

		// Buttons
		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, toggleText(paused, "Resume", "Pause")) {
			paused = !paused
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Restart") {
			restart()
		}
		panelY += 45

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Random Seed") {
			seed = int64(rl.GetRandomValue(0, 99999))
			restart()
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			cfg = base.Clone()
			restart()
		}
		panelY += 55

		// Output YAML
		out := tunedYAML(cfg)
		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		for _, line := range strings.Split(out, "\n") {
			if panelY > windowHeight-50 {
				break
			}
			rl.DrawText(line, int32(panelX), int32(panelY), 12, rl.Gray)
			panelY += 14
		}

		// Instructions
		hint := "Press C to copy YAML to clipboard"
		if copied > 0 {
			hint = "Copied!"
			copied--
		}
		rl.DrawText(hint, int32(panelX), int32(windowHeight-30), 12, rl.LightGray)

		// Copy to clipboard on C key
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(out)
			copied = 60
		}

		rl.EndDrawing()
	}
}

// tunedYAML renders the edited sections so they can be pasted into a config file.
func tunedYAML(cfg *config.Config) string {
	data, err := yaml.Marshal(tunedSections{
		Field:  cfg.Field,
		Sensor: cfg.Sensor,
		Motion: cfg.Motion,
	})
	if err != nil {
		return err.Error()
	}
	return string(data)
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
