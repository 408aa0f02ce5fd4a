package systems

import (
	"math"
	"testing"
)

func relaxAll(k *RelaxKernel, f *TrailField) int {
	return k.Rows(f, 0, k.H, make([]float32, k.ScratchLen()))
}

func TestRelaxNoDiffusionNoEvaporation(t *testing.T) {
	cfg := testConfig(8, 8, 0)
	cfg.Field.DiffuseSpeed = 0
	cfg.Field.Evaporation = []float64{0, 0, 0, 0}
	k := NewRelaxKernel(cfg, 1)
	f := NewTrailField(8, 8, 4, 1e9)

	f.Current()[f.Index(2, 3, 1)] = 5
	f.Deposit(f.Index(2, 3, 1), 2)
	f.Deposit(f.Index(7, 7, 0), 1)
	relaxAll(k, f)
	f.Swap()

	v := f.View()
	if got := v.At(2, 3, 1); got != 7 {
		t.Errorf("cell with deposit: got %v, want 7", got)
	}
	if got := v.Mass(); got != 8 {
		t.Errorf("mass: got %v, want 8", got)
	}
}

func TestRelaxEvaporation(t *testing.T) {
	cfg := testConfig(4, 4, 0)
	cfg.Field.DiffuseSpeed = 0
	cfg.Field.Evaporation = []float64{0.1, 0.5, 2, 0}
	k := NewRelaxKernel(cfg, 1)
	f := NewTrailField(4, 4, 4, 1e9)

	for c := 0; c < 4; c++ {
		f.Current()[f.Index(1, 1, c)] = 10
	}
	relaxAll(k, f)
	f.Swap()

	want := []float32{9, 5, 0, 10}
	for c, w := range want {
		if got := f.View().At(1, 1, c); math.Abs(float64(got-w)) > 1e-5 {
			t.Errorf("channel %d: got %v, want %v", c, got, w)
		}
	}
}

func TestRelaxDiffusionConservesMass(t *testing.T) {
	cfg := testConfig(16, 16, 0)
	cfg.Field.DiffuseSpeed = 1
	cfg.Field.DiffuseRadius = 1
	cfg.Field.Evaporation = []float64{0, 0, 0, 0}
	k := NewRelaxKernel(cfg, 1)
	f := NewTrailField(16, 16, 4, 1e9)

	// Spike on the wrap corner.
	f.Current()[f.Index(0, 0, 0)] = 9

	relaxAll(k, f)
	f.Swap()
	v := f.View()

	// Full blend turns the spike into a 3x3 box of ones across the seam.
	for _, p := range [][2]int{{0, 0}, {15, 15}, {1, 15}, {15, 1}, {1, 1}} {
		if got := v.At(p[0], p[1], 0); math.Abs(float64(got-1)) > 1e-5 {
			t.Errorf("cell %v: got %v, want 1", p, got)
		}
	}
	if got := v.At(2, 2, 0); got != 0 {
		t.Errorf("cell outside neighbourhood: got %v, want 0", got)
	}
	if got := v.Sum(0); math.Abs(got-9) > 1e-4 {
		t.Errorf("mass after diffusion: got %v, want 9", got)
	}
}

func TestRelaxClampsAndScrubs(t *testing.T) {
	cfg := testConfig(4, 4, 0)
	cfg.Field.DiffuseSpeed = 0
	cfg.Field.Evaporation = []float64{0, 0, 0, 0}
	cfg.Field.Saturation = 1
	k := NewRelaxKernel(cfg, 1)
	f := NewTrailField(4, 4, 4, 1)

	f.Current()[0] = 3
	f.Current()[1] = float32(math.NaN())
	n := relaxAll(k, f)
	f.Swap()

	if got := f.Current()[0]; got != 1 {
		t.Errorf("saturated value: got %v, want 1", got)
	}
	if got := f.Current()[1]; got != 0 {
		t.Errorf("NaN scrubbed to: got %v, want 0", got)
	}
	if n != 1 {
		t.Errorf("degenerate count: got %d, want 1", n)
	}
	if err := f.Validate(); err != nil {
		t.Errorf("Validate after relax: %v", err)
	}
}

func TestRelaxWritesScratchOnly(t *testing.T) {
	cfg := testConfig(8, 8, 0)
	k := NewRelaxKernel(cfg, 1)
	f := NewTrailField(8, 8, 4, 1e9)
	f.Current()[f.Index(4, 4, 0)] = 1
	before := f.View().CopyTo(nil)

	relaxAll(k, f)

	for i, v := range f.Current() {
		if v != before[i] {
			t.Fatalf("relaxation modified the committed buffer at %d", i)
		}
	}
}

func TestRelaxRowRangesMatchFullPass(t *testing.T) {
	cfg := testConfig(32, 32, 0)
	cfg.Field.DiffuseRadius = 2
	cfg.Field.DiffuseSpeed = 0.7
	k := NewRelaxKernel(cfg, 1)

	seedField := func() *TrailField {
		f := NewTrailField(32, 32, 4, 1e9)
		for i := range f.Current() {
			f.Current()[i] = float32(i%17) * 0.25
		}
		return f
	}

	a := seedField()
	relaxAll(k, a)

	b := seedField()
	scratch := make([]float32, k.ScratchLen())
	for y := 0; y < 32; y += 5 {
		k.Rows(b, y, min(y+5, 32), scratch)
	}

	for i := range a.Scratch() {
		if a.Scratch()[i] != b.Scratch()[i] {
			t.Fatalf("row-range result differs at %d: %v vs %v", i, a.Scratch()[i], b.Scratch()[i])
		}
	}
}
