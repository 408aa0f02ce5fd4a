// Package telemetry provides windowed field and swarm statistics, perf
// sampling, run persistence, and snapshots.
package telemetry

import (
	"log/slog"
	"sort"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	RunID           string  `csv:"run_id"`
	WindowStartTick uint64  `csv:"-"`
	WindowEndTick   uint64  `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	Agents int `csv:"agents"`

	// Field state at window end
	TotalMass   float64   `csv:"total_mass"`
	ChannelMass []float64 `csv:"-"`
	Mass0       float64   `csv:"mass_c0"`
	Mass1       float64   `csv:"mass_c1"`
	Mass2       float64   `csv:"mass_c2"`
	Mass3       float64   `csv:"mass_c3"`
	MaxCell     float64   `csv:"max_cell"`
	Contrast    float64   `csv:"contrast"`

	// Agent state at window end
	Separation        float64 `csv:"separation"`
	HeadingDispersion float64 `csv:"heading_dispersion"`

	// Events during window
	Ticks           uint64 `csv:"ticks"`
	SkippedTicks    uint64 `csv:"skipped_ticks"`
	FailedTicks     uint64 `csv:"failed_ticks"`
	AgentDegenerate uint64 `csv:"agent_degenerate"`
	FieldDegenerate uint64 `csv:"field_degenerate"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeDistribution calculates mean and percentiles of values.
func ComputeDistribution(values []float64) (mean, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(n)

	// Sort for percentiles
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("window_start", s.WindowStartTick),
		slog.Uint64("window_end", s.WindowEndTick),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("agents", s.Agents),
		slog.Float64("total_mass", s.TotalMass),
		slog.Any("channel_mass", s.ChannelMass),
		slog.Float64("max_cell", s.MaxCell),
		slog.Float64("contrast", s.Contrast),
		slog.Float64("separation", s.Separation),
		slog.Float64("heading_dispersion", s.HeadingDispersion),
		slog.Uint64("ticks", s.Ticks),
		slog.Uint64("skipped_ticks", s.SkippedTicks),
		slog.Uint64("failed_ticks", s.FailedTicks),
		slog.Uint64("agent_degenerate", s.AgentDegenerate),
		slog.Uint64("field_degenerate", s.FieldDegenerate),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"agents", s.Agents,
		"total_mass", s.TotalMass,
		"channel_mass", s.ChannelMass,
		"max_cell", s.MaxCell,
		"contrast", s.Contrast,
		"separation", s.Separation,
		"heading_dispersion", s.HeadingDispersion,
		"skipped_ticks", s.SkippedTicks,
		"failed_ticks", s.FailedTicks,
		"agent_degenerate", s.AgentDegenerate,
		"field_degenerate", s.FieldDegenerate,
	)
}
