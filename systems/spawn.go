package systems

import (
	"math"
	"math/rand"

	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/slime/config"
)

// Spawn modes.
const (
	SpawnRing     = "ring"
	SpawnDisc     = "disc"
	SpawnUniform  = "uniform"
	SpawnClusters = "clusters"
	SpawnNoise    = "noise"
)

// noiseAttempts bounds rejection sampling per agent before falling back
// to a uniform position.
const noiseAttempts = 64

// Spawn creates the initial agent records for cfg, deterministically from seed.
// Species are assigned in contiguous blocks by ratio.
func Spawn(cfg *config.Config, seed int64) []Agent {
	n := cfg.Agents.Count
	agents := make([]Agent, n)
	if n == 0 {
		return agents
	}

	rng := rand.New(rand.NewSource(seed))
	sp := cfg.Agents.Spawn
	w := float32(cfg.Derived.FieldW)
	h := float32(cfg.Derived.FieldH)
	cx := float32(cfg.Derived.CenterX)
	cy := float32(cfg.Derived.CenterY)

	var noise opensimplex.Noise
	if sp.Mode == SpawnNoise {
		noise = opensimplex.NewNormalized(seed)
	}
	centers := clusterCenters(cfg)

	shares := speciesShares(cfg, n)
	i := 0
	for s, count := range shares {
		for k := 0; k < count; k++ {
			a := &agents[i]
			a.Species = uint8(s)

			var ox, oy float32 // focal point for heading
			switch sp.Mode {
			case SpawnDisc:
				r := float32(sp.OuterRadius * math.Sqrt(rng.Float64()))
				ang := rng.Float32() * twoPi32
				a.X, a.Y = cx+r*cos32(ang), cy+r*sin32(ang)
				ox, oy = cx, cy
			case SpawnUniform:
				a.X, a.Y = rng.Float32()*w, rng.Float32()*h
				ox, oy = cx, cy
			case SpawnClusters:
				c := centers[s]
				r := float32(sp.OuterRadius * math.Sqrt(rng.Float64()))
				ang := rng.Float32() * twoPi32
				a.X, a.Y = c[0]+r*cos32(ang), c[1]+r*sin32(ang)
				ox, oy = c[0], c[1]
			case SpawnNoise:
				a.X, a.Y = sampleNoise(rng, noise, sp, w, h)
				ox, oy = cx, cy
			default: // ring
				r := float32(sp.InnerRadius + (sp.OuterRadius-sp.InnerRadius)*rng.Float64())
				ang := rng.Float32() * twoPi32
				a.X, a.Y = cx+r*cos32(ang), cy+r*sin32(ang)
				ox, oy = cx, cy
			}

			a.Heading = spawnHeading(rng, sp.Heading, a.X-ox, a.Y-oy)
			if !finite32(a.Heading) {
				a.Heading = 0
			}
			a.X = wrapCoord(a.X, w)
			a.Y = wrapCoord(a.Y, h)
			i++
		}
	}
	return agents
}

// clusterCenters places one centre per species evenly on a circle around
// the spawn focal point.
func clusterCenters(cfg *config.Config) [][2]float32 {
	n := len(cfg.Species)
	centers := make([][2]float32, n)
	cx := float32(cfg.Derived.CenterX)
	cy := float32(cfg.Derived.CenterY)
	if n == 1 {
		centers[0] = [2]float32{cx, cy}
		return centers
	}
	r := float32(min(cfg.Derived.FieldW, cfg.Derived.FieldH)) / 4
	for i := range centers {
		ang := twoPi32 * float32(i) / float32(n)
		centers[i] = [2]float32{cx + r*cos32(ang), cy + r*sin32(ang)}
	}
	return centers
}

// ClusterCenters returns the per-species spawn centres used by the clusters mode.
func ClusterCenters(cfg *config.Config) [][2]float32 {
	return clusterCenters(cfg)
}

func sampleNoise(rng *rand.Rand, noise opensimplex.Noise, sp config.SpawnConfig, w, h float32) (float32, float32) {
	var x, y float32
	for range noiseAttempts {
		x, y = rng.Float32()*w, rng.Float32()*h
		if noise.Eval2(float64(x)*sp.NoiseScale, float64(y)*sp.NoiseScale) >= sp.NoiseThreshold {
			return x, y
		}
	}
	return x, y
}

func spawnHeading(rng *rand.Rand, mode string, dx, dy float32) float32 {
	switch mode {
	case "random":
		return normalizeHeading(rng.Float32() * twoPi32)
	case "inward":
		if dx == 0 && dy == 0 {
			return normalizeHeading(rng.Float32() * twoPi32)
		}
		return normalizeHeading(float32(math.Atan2(float64(-dy), float64(-dx))))
	default: // outward
		if dx == 0 && dy == 0 {
			return normalizeHeading(rng.Float32() * twoPi32)
		}
		return normalizeHeading(float32(math.Atan2(float64(dy), float64(dx))))
	}
}

func cos32(a float32) float32 { return float32(math.Cos(float64(a))) }
func sin32(a float32) float32 { return float32(math.Sin(float64(a))) }
