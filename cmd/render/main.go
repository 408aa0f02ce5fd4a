// Render tool - runs a simulation for a number of ticks and renders the
// field through the GPU trail renderer to a PNG file for inspection.
//
// Usage: go run ./cmd/render -config run.yaml -ticks 2000 -out field.png
package main

import (
	"flag"
	"fmt"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/slime/camera"
	"github.com/pthm-cable/slime/config"
	"github.com/pthm-cable/slime/game"
	"github.com/pthm-cable/slime/renderer"
	"github.com/pthm-cable/slime/renderer/palette"
)

func main() {
	configPath := flag.String("config", "", "Config YAML file (empty = use defaults)")
	outPath := flag.String("out", "field.png", "Output PNG path")
	ticks := flag.Int("ticks", 1000, "Ticks to simulate before rendering")
	seed := flag.Int64("seed", 1, "RNG seed")
	width := flag.Int("width", 0, "Render width (0 = field width)")
	height := flag.Int("height", 0, "Render height (0 = field height)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	sim, err := game.NewSimulation(cfg, *seed)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create simulation: %v\n", err)
		os.Exit(1)
	}
	defer sim.Shutdown()

	for i := 0; i < *ticks; i++ {
		if err := sim.Step(cfg.Derived.DT32); err != nil {
			fmt.Fprintf(os.Stderr, "Tick %d failed: %v\n", i, err)
			os.Exit(1)
		}
	}

	fw, fh := sim.Size()
	w, h := *width, *height
	if w <= 0 {
		w = fw
	}
	if h <= 0 {
		h = fh
	}

	// Initialize raylib with hidden window
	rl.SetConfigFlags(rl.FlagWindowHidden)
	rl.InitWindow(int32(w), int32(h), "Slime Render")
	defer rl.CloseWindow()

	trail := renderer.NewTrailRenderer(palette.FromConfig(cfg))
	defer trail.Unload()
	trail.Update(sim.Field())

	cam := camera.New(float32(w), float32(h), float32(fw), float32(fh))

	// Create render texture
	target := rl.LoadRenderTexture(int32(w), int32(h))
	defer rl.UnloadRenderTexture(target)

	// Render field to texture
	rl.BeginTextureMode(target)
	rl.ClearBackground(rl.Black)
	trail.Draw(cam)
	rl.EndTextureMode()

	// Get image from texture and flip it (OpenGL convention)
	img := rl.LoadImageFromTexture(target.Texture)
	rl.ImageFlipVertical(img)

	// Export to PNG
	success := rl.ExportImage(*img, *outPath)
	rl.UnloadImage(img)

	if success {
		fmt.Printf("Field at tick %d rendered to: %s (%dx%d)\n", sim.Tick(), *outPath, w, h)
	} else {
		fmt.Fprintf(os.Stderr, "Failed to export image\n")
		os.Exit(1)
	}
}
