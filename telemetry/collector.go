package telemetry

import "github.com/pthm-cable/slime/systems"

// Sample is the simulation state a window flush reads.
type Sample struct {
	Field      systems.FieldView
	Agents     []systems.Agent
	NumSpecies int

	// Cumulative stepper counters; the collector reports per-window deltas.
	FailedTicks     uint64
	AgentDegenerate uint64
	FieldDegenerate uint64
}

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	runID               string
	windowDurationSec   float64
	windowDurationTicks uint64
	dt                  float32

	// Current window tracking
	windowStartTick uint64

	// Event counters for current window
	skippedTicks uint64

	// Cumulative counters at the start of the window
	lastFailed   uint64
	lastAgentDeg uint64
	lastFieldDeg uint64
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(runID string, windowDurationSec float64, dt float32) *Collector {
	ticksPerWindow := uint64(windowDurationSec / float64(dt))
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		runID:               runID,
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordSkipped records ticks the host dropped to stay within its frame budget.
func (c *Collector) RecordSkipped(n int) {
	if n > 0 {
		c.skippedTicks += uint64(n)
	}
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick uint64) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick uint64, s Sample) WindowStats {
	w := float64(s.Field.Width())
	h := float64(s.Field.Height())

	mass := ChannelMass(s.Field)
	var total float64
	for _, m := range mass {
		total += m
	}
	var maxCell float32
	for ch := 0; ch < s.Field.Channels(); ch++ {
		maxCell = max(maxCell, s.Field.Max(ch))
	}

	stats := WindowStats{
		RunID:           c.runID,
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * float64(c.dt),

		Agents: len(s.Agents),

		TotalMass:   total,
		ChannelMass: mass,
		MaxCell:     float64(maxCell),
		Contrast:    FieldContrast(s.Field),

		Separation:        CentroidSeparation(SpeciesCentroids(s.Agents, s.NumSpecies, w, h), w, h),
		HeadingDispersion: HeadingDispersion(s.Agents),

		Ticks:           currentTick - c.windowStartTick,
		SkippedTicks:    c.skippedTicks,
		FailedTicks:     s.FailedTicks - c.lastFailed,
		AgentDegenerate: s.AgentDegenerate - c.lastAgentDeg,
		FieldDegenerate: s.FieldDegenerate - c.lastFieldDeg,
	}
	for ch, dst := range []*float64{&stats.Mass0, &stats.Mass1, &stats.Mass2, &stats.Mass3} {
		if ch < len(mass) {
			*dst = mass[ch]
		}
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.skippedTicks = 0
	c.lastFailed = s.FailedTicks
	c.lastAgentDeg = s.AgentDegenerate
	c.lastFieldDeg = s.FieldDegenerate

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() uint64 {
	return c.windowDurationTicks
}
