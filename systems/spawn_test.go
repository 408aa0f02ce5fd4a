package systems

import (
	"math"
	"testing"
)

func TestSpawnModesInBounds(t *testing.T) {
	modes := []string{SpawnRing, SpawnDisc, SpawnUniform, SpawnClusters, SpawnNoise}
	for _, mode := range modes {
		t.Run(mode, func(t *testing.T) {
			cfg := testConfig(128, 96, 2000)
			cfg.Agents.Spawn.Mode = mode
			cfg.Agents.Spawn.OuterRadius = 40
			cfg.Recompute()

			p := NewPopulation(Spawn(cfg, 3))
			if p.Len() != 2000 {
				t.Fatalf("spawned %d agents, want 2000", p.Len())
			}
			if err := p.Validate(128, 96, len(cfg.Species)); err != nil {
				t.Errorf("spawned population invalid: %v", err)
			}
		})
	}
}

func TestSpawnRingMatchesRadius(t *testing.T) {
	cfg := testConfig(256, 256, 1000)
	cfg.Agents.Spawn.Mode = SpawnRing
	cfg.Agents.Spawn.InnerRadius = 10
	cfg.Agents.Spawn.OuterRadius = 20
	cfg.Agents.Spawn.Heading = "outward"
	cfg.Recompute()

	for i, a := range Spawn(cfg, 1) {
		dx := float64(a.X) - 128
		dy := float64(a.Y) - 128
		r := math.Hypot(dx, dy)
		if r < 10-1e-3 || r > 20+1e-3 {
			t.Fatalf("agent %d at radius %v, want [10,20]", i, r)
		}
		want := math.Atan2(dy, dx)
		if want < 0 {
			want += 2 * math.Pi
		}
		diff := math.Abs(float64(a.Heading) - want)
		if diff > 1e-3 && math.Abs(diff-2*math.Pi) > 1e-3 {
			t.Fatalf("agent %d heading %v, want outward %v", i, a.Heading, want)
		}
	}
}

func TestSpawnSpeciesShares(t *testing.T) {
	cfg := testConfig(64, 64, 1001)
	cfg.Species[0].Ratio = 1
	cfg.Species[1].Ratio = 3
	cfg.Recompute()

	counts := make([]int, len(cfg.Species))
	for _, a := range Spawn(cfg, 1) {
		counts[a.Species]++
	}
	if counts[0]+counts[1] != 1001 {
		t.Fatalf("species counts %v do not sum to 1001", counts)
	}
	if counts[0] < 250 || counts[0] > 251 {
		t.Errorf("species 0 count %d, want ~250", counts[0])
	}
}

func TestSpawnZeroAgents(t *testing.T) {
	cfg := testConfig(16, 16, 0)
	if got := len(Spawn(cfg, 1)); got != 0 {
		t.Errorf("spawned %d agents, want 0", got)
	}
}

func TestSpawnDeterministic(t *testing.T) {
	cfg := testConfig(64, 64, 300)
	cfg.Agents.Spawn.Mode = SpawnNoise
	cfg.Agents.Spawn.NoiseScale = 0.05
	cfg.Recompute()

	a := Spawn(cfg, 11)
	b := Spawn(cfg, 11)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("agent %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestSpawnScrubsNonFiniteCenter(t *testing.T) {
	cfg := testConfig(64, 64, 200)
	cfg.Recompute()
	cfg.Derived.CenterX = math.NaN()

	agents := Spawn(cfg, 1)
	for i, a := range agents {
		if !finite32(a.X) || !finite32(a.Y) || !finite32(a.Heading) {
			t.Fatalf("agent %d = %+v, want finite values", i, a)
		}
	}
	if err := NewPopulation(agents).Validate(64, 64, len(cfg.Species)); err != nil {
		t.Errorf("spawned population invalid: %v", err)
	}
}
