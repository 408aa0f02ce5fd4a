package systems

import "github.com/pthm-cable/slime/config"

// Species holds the immutable per-species kernel parameters.
type Species struct {
	Name    string
	Channel int
	Deposit float32
	Weights []float32

	// Channels with a non-zero weight, so sensing skips neutral ones.
	active []int
}

// SpeciesTable builds the kernel view of the configured species.
func SpeciesTable(cfg *config.Config) []Species {
	out := make([]Species, len(cfg.Species))
	for i, sc := range cfg.Species {
		sp := Species{
			Name:    sc.Name,
			Channel: sc.DepositChannel,
			Deposit: float32(sc.Deposit),
			Weights: make([]float32, len(sc.SenseWeights)),
		}
		for c, w := range sc.SenseWeights {
			sp.Weights[c] = float32(w)
			if w != 0 {
				sp.active = append(sp.active, c)
			}
		}
		out[i] = sp
	}
	return out
}

// speciesShares splits n agents across species by ratio. Rounding
// remainders go to the earliest species so the counts always sum to n.
func speciesShares(cfg *config.Config, n int) []int {
	var total float64
	for _, sp := range cfg.Species {
		total += sp.Ratio
	}
	shares := make([]int, len(cfg.Species))
	if total <= 0 || n == 0 {
		if len(shares) > 0 {
			shares[0] = n
		}
		return shares
	}
	assigned := 0
	for i, sp := range cfg.Species {
		shares[i] = int(float64(n) * sp.Ratio / total)
		assigned += shares[i]
	}
	for i := 0; assigned < n; i = (i + 1) % len(shares) {
		if cfg.Species[i].Ratio > 0 {
			shares[i]++
			assigned++
		}
	}
	return shares
}
