package systems

// agentRand is a counter-based stream keyed by (seed, agent, tick).
// The same key always yields the same sequence regardless of which worker
// processes the agent or in which order.
type agentRand struct {
	state uint64
}

func newAgentRand(seed uint64, agent int, tick uint64) agentRand {
	h := seed ^ uint64(agent)*0x9E3779B97F4A7C15
	h ^= tick * 0xC2B2AE3D27D4EB4F
	return agentRand{state: mix64(h)}
}

// next advances the stream (splitmix64).
func (r *agentRand) next() uint64 {
	r.state += 0x9E3779B97F4A7C15
	return mix64(r.state)
}

// float32 returns a value in [0, 1).
func (r *agentRand) float32() float32 {
	return float32(r.next()>>40) / (1 << 24)
}

// bool returns an unbiased coin flip.
func (r *agentRand) bool() bool {
	return r.next()&(1<<63) != 0
}

func mix64(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}
