package telemetry

import (
	"math"

	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/slime/systems"
)

// maxContrastSamples bounds the number of cells FieldContrast inspects.
const maxContrastSamples = 1 << 16

// ChannelMass returns the sum of each channel over an interleaved buffer.
// Field values are non-negative, so the absolute sum is the mass.
func ChannelMass(view systems.FieldView) []float64 {
	c := view.Channels()
	data := view.Values()
	cells := view.Width() * view.Height()
	out := make([]float64, c)
	if cells == 0 || len(data) == 0 {
		return out
	}
	for ch := 0; ch < c; ch++ {
		vec := blas32.Vector{N: cells, Inc: c, Data: data[ch:]}
		out[ch] = float64(blas32.Asum(vec))
	}
	return out
}

// FieldContrast returns the coefficient of variation of per-cell totals over
// an evenly strided sample of cells. A uniform field scores 0.
func FieldContrast(view systems.FieldView) float64 {
	c := view.Channels()
	data := view.Values()
	cells := view.Width() * view.Height()
	if cells == 0 || len(data) == 0 {
		return 0
	}
	stride := max(1, cells/maxContrastSamples)
	totals := make([]float64, 0, cells/stride+1)
	for cell := 0; cell < cells; cell += stride {
		var s float64
		for _, v := range data[cell*c : cell*c+c] {
			s += float64(v)
		}
		totals = append(totals, s)
	}
	mean, std := stat.MeanStdDev(totals, nil)
	if mean <= 0 {
		return 0
	}
	return std / mean
}

// SpeciesCentroids returns the centroid of each species on the torus.
// Coordinates are mapped to angles so that a cluster straddling the seam
// keeps its centre near the seam. Species without agents get NaN.
func SpeciesCentroids(agents []systems.Agent, numSpecies int, w, h float64) [][2]float64 {
	xs := make([][]float64, numSpecies)
	ys := make([][]float64, numSpecies)
	for _, a := range agents {
		s := int(a.Species)
		if s >= numSpecies {
			continue
		}
		xs[s] = append(xs[s], float64(a.X)/w*2*math.Pi)
		ys[s] = append(ys[s], float64(a.Y)/h*2*math.Pi)
	}

	out := make([][2]float64, numSpecies)
	for s := range out {
		if len(xs[s]) == 0 {
			out[s] = [2]float64{math.NaN(), math.NaN()}
			continue
		}
		out[s] = [2]float64{
			unwrapAngle(stat.CircularMean(xs[s], nil)) / (2 * math.Pi) * w,
			unwrapAngle(stat.CircularMean(ys[s], nil)) / (2 * math.Pi) * h,
		}
	}
	return out
}

// CentroidSeparation returns the smallest toroidal distance between any two
// species centroids, or 0 when fewer than two species have agents.
func CentroidSeparation(centroids [][2]float64, w, h float64) float64 {
	best := math.Inf(1)
	for i := 0; i < len(centroids); i++ {
		if math.IsNaN(centroids[i][0]) {
			continue
		}
		for j := i + 1; j < len(centroids); j++ {
			if math.IsNaN(centroids[j][0]) {
				continue
			}
			best = math.Min(best, ToroidalDistance(centroids[i], centroids[j], w, h))
		}
	}
	if math.IsInf(best, 1) {
		return 0
	}
	return best
}

// ToroidalDistance returns the shortest distance between a and b on a w x h torus.
func ToroidalDistance(a, b [2]float64, w, h float64) float64 {
	dx := math.Abs(a[0] - b[0])
	dy := math.Abs(a[1] - b[1])
	dx = math.Min(dx, w-dx)
	dy = math.Min(dy, h-dy)
	return math.Hypot(dx, dy)
}

// HeadingDispersion returns the circular variance of agent headings:
// 0 when all agents face the same way, 1 when headings cancel out.
func HeadingDispersion(agents []systems.Agent) float64 {
	if len(agents) == 0 {
		return 0
	}
	var sc, ss float64
	for _, a := range agents {
		sc += math.Cos(float64(a.Heading))
		ss += math.Sin(float64(a.Heading))
	}
	r := math.Hypot(sc, ss) / float64(len(agents))
	return 1 - r
}

func unwrapAngle(a float64) float64 {
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
