package telemetry

import (
	"math"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/pthm-cable/slime/systems"
)

func TestChannelMass(t *testing.T) {
	c := qt.New(t)
	// 2x2 field, 2 channels, interleaved.
	data := []float32{
		1, 0.5, 2, 0,
		3, 0, 4, 0.25,
	}
	mass := ChannelMass(systems.NewFieldView(2, 2, 2, data))
	c.Assert(mass, qt.DeepEquals, []float64{10, 0.75})
}

func TestChannelMassEmpty(t *testing.T) {
	c := qt.New(t)
	mass := ChannelMass(systems.NewFieldView(0, 0, 3, nil))
	c.Assert(mass, qt.DeepEquals, []float64{0, 0, 0})
}

func TestFieldContrast(t *testing.T) {
	c := qt.New(t)

	uniform := make([]float32, 8*8)
	for i := range uniform {
		uniform[i] = 0.5
	}
	c.Assert(FieldContrast(systems.NewFieldView(8, 8, 1, uniform)), qt.Equals, 0.0)

	empty := make([]float32, 8*8)
	c.Assert(FieldContrast(systems.NewFieldView(8, 8, 1, empty)), qt.Equals, 0.0)

	spiky := make([]float32, 8*8)
	spiky[10] = 5
	c.Assert(FieldContrast(systems.NewFieldView(8, 8, 1, spiky)) > 1, qt.IsTrue)
}

func TestSpeciesCentroidsAcrossSeam(t *testing.T) {
	c := qt.New(t)
	const w, h = 100.0, 50.0
	agents := []systems.Agent{
		{X: 1, Y: 25, Species: 0},
		{X: 99, Y: 25, Species: 0},
		{X: 50, Y: 10, Species: 1},
	}
	cent := SpeciesCentroids(agents, 3, w, h)
	c.Assert(cent, qt.HasLen, 3)

	// Straddling cluster centres on the seam, not mid-field.
	c.Assert(ToroidalDistance(cent[0], [2]float64{0, 25}, w, h) < 1e-6, qt.IsTrue,
		qt.Commentf("centroid %v", cent[0]))
	c.Assert(ToroidalDistance(cent[1], [2]float64{50, 10}, w, h) < 1e-6, qt.IsTrue,
		qt.Commentf("centroid %v", cent[1]))
	c.Assert(math.IsNaN(cent[2][0]), qt.IsTrue)

	sep := CentroidSeparation(cent, w, h)
	c.Assert(math.Abs(sep-math.Hypot(50, 15)) < 1e-6, qt.IsTrue, qt.Commentf("separation %v", sep))
}

func TestCentroidSeparationSingleSpecies(t *testing.T) {
	c := qt.New(t)
	cent := SpeciesCentroids([]systems.Agent{{X: 3, Y: 3}}, 2, 10, 10)
	c.Assert(CentroidSeparation(cent, 10, 10), qt.Equals, 0.0)
}

func TestToroidalDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b [2]float64
		want float64
	}{
		{"same point", [2]float64{5, 5}, [2]float64{5, 5}, 0},
		{"direct", [2]float64{1, 1}, [2]float64{4, 5}, 5},
		{"wrap x", [2]float64{1, 0}, [2]float64{99, 0}, 2},
		{"wrap both", [2]float64{0, 0}, [2]float64{97, 96}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToroidalDistance(tt.a, tt.b, 100, 100)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ToroidalDistance(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestHeadingDispersion(t *testing.T) {
	c := qt.New(t)
	c.Assert(HeadingDispersion(nil), qt.Equals, 0.0)

	aligned := []systems.Agent{{Heading: 1}, {Heading: 1}, {Heading: 1}}
	c.Assert(HeadingDispersion(aligned) < 1e-6, qt.IsTrue)

	opposed := []systems.Agent{{Heading: 0}, {Heading: math.Pi}}
	c.Assert(math.Abs(HeadingDispersion(opposed)-1) < 1e-6, qt.IsTrue)
}
