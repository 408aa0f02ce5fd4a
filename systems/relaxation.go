package systems

import (
	"math"

	"github.com/pthm-cable/slime/config"
)

// RelaxKernel holds the diffusion/evaporation parameters for one tick.
type RelaxKernel struct {
	W, H, C    int
	Radius     int
	Blend      float32   // clamp01(diffuseSpeed * dt)
	Decay      []float32 // max(0, 1 - evaporation[c] * dt) per channel
	Saturation float32
}

// NewRelaxKernel derives the per-tick relaxation factors from cfg and dt.
func NewRelaxKernel(cfg *config.Config, dt float32) *RelaxKernel {
	k := &RelaxKernel{
		W:          cfg.Derived.FieldW,
		H:          cfg.Derived.FieldH,
		C:          cfg.Field.Channels,
		Radius:     cfg.Field.DiffuseRadius,
		Saturation: float32(cfg.Field.Saturation),
		Decay:      make([]float32, cfg.Field.Channels),
	}
	k.SetDT(cfg.Field.DiffuseSpeed, cfg.Field.Evaporation, dt)
	return k
}

// SetDT recomputes the dt-dependent factors.
func (k *RelaxKernel) SetDT(diffuseSpeed float64, evaporation []float64, dt float32) {
	k.Blend = clamp01(float32(diffuseSpeed) * dt)
	for c := range k.Decay {
		k.Decay[c] = max(0, 1-float32(evaporation[c])*dt)
	}
}

// ScratchLen returns the per-worker scratch size Rows needs.
func (k *RelaxKernel) ScratchLen() int { return k.W * k.C }

// Rows relaxes rows [y0, y1) of the field: each value is the committed
// value plus this tick's pending deposits, blended toward its box
// neighbourhood mean, decayed and clamped. Results go to the scratch buffer
// only. colSum must hold at least ScratchLen values. Returns the number of
// non-finite results replaced by zero.
func (k *RelaxKernel) Rows(f *TrailField, y0, y1 int, colSum []float32) int {
	src := f.Current()
	pend := f.pendingBits()
	dst := f.Scratch()
	rowLen := k.W * k.C
	colSum = colSum[:rowLen]
	r := k.Radius
	norm := 1 / float32((2*r+1)*(2*r+1))
	degenerate := 0

	for y := y0; y < y1; y++ {
		base := y * rowLen

		if k.Blend > 0 {
			// Vertical sums of the neighbourhood rows, then a horizontal
			// window per cell.
			clear(colSum)
			for dy := -r; dy <= r; dy++ {
				sbase := modInt(y+dy, k.H) * rowLen
				srow := src[sbase : sbase+rowLen]
				prow := pend[sbase : sbase+rowLen]
				for i, v := range srow {
					colSum[i] += v + math.Float32frombits(prow[i])
				}
			}
		}

		for x := 0; x < k.W; x++ {
			for c := 0; c < k.C; c++ {
				i := base + x*k.C + c
				v := src[i] + math.Float32frombits(pend[i])

				if k.Blend > 0 {
					var s float32
					for dx := -r; dx <= r; dx++ {
						s += colSum[modInt(x+dx, k.W)*k.C+c]
					}
					v += (s*norm - v) * k.Blend
				}
				v *= k.Decay[c]

				switch {
				case !finite32(v):
					v = 0
					degenerate++
				case v < 0:
					v = 0
				case v > k.Saturation:
					v = k.Saturation
				}
				dst[i] = v
			}
		}
	}
	return degenerate
}
