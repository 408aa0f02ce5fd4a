package telemetry

import (
	"log/slog"
	"math"
	"time"
)

// Phase names for the simulation step.
const (
	PhaseAgents     = "agents"
	PhaseRelaxation = "relaxation"
	PhaseSwap       = "swap"
	PhaseTelemetry  = "telemetry"
	PhaseSnapshot   = "snapshot"
)

// phaseOrder is the logging order of phase breakdowns.
var phaseOrder = []string{PhaseAgents, PhaseRelaxation, PhaseSwap, PhaseTelemetry, PhaseSnapshot}

// PhaseOrder returns the phase names in display order.
func PhaseOrder() []string {
	return append([]string(nil), phaseOrder...)
}

// PerfSample is the timing of one tick.
type PerfSample struct {
	TickDuration time.Duration
	Phases       map[string]time.Duration
}

// PerfCollector times simulation phases over a ring of recent ticks.
// It is not safe for concurrent use.
type PerfCollector struct {
	now func() time.Time

	ring  []PerfSample
	next  int
	count int

	open       map[string]time.Duration
	tickStart  time.Time
	phaseStart time.Time
	phase      string

	lastFrame time.Time
	frame     time.Duration
}

// NewPerfCollector keeps the last window ticks. A window below 1 becomes 60.
func NewPerfCollector(window int) *PerfCollector {
	return newPerfCollector(window, time.Now)
}

func newPerfCollector(window int, now func() time.Time) *PerfCollector {
	if window < 1 {
		window = 60
	}
	return &PerfCollector{
		now:  now,
		ring: make([]PerfSample, window),
		open: make(map[string]time.Duration),
	}
}

// closePhase charges the time since the last StartPhase to the open phase.
func (p *PerfCollector) closePhase(at time.Time) {
	if p.phase != "" {
		p.open[p.phase] += at.Sub(p.phaseStart)
	}
}

// StartTick begins timing a new tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = p.now()
	p.open = make(map[string]time.Duration, len(phaseOrder))
	p.phase = ""
}

// StartPhase ends the running phase, if any, and starts timing phase.
func (p *PerfCollector) StartPhase(phase string) {
	at := p.now()
	p.closePhase(at)
	p.phaseStart = at
	p.phase = phase
}

// EndTick closes the running phase and records the tick.
func (p *PerfCollector) EndTick() {
	at := p.now()
	p.closePhase(at)
	p.phase = ""

	p.ring[p.next] = PerfSample{TickDuration: at.Sub(p.tickStart), Phases: p.open}
	p.next = (p.next + 1) % len(p.ring)
	p.count = min(p.count+1, len(p.ring))
}

// RecordFrame marks a presented frame.
func (p *PerfCollector) RecordFrame() {
	at := p.now()
	if !p.lastFrame.IsZero() {
		p.frame = at.Sub(p.lastFrame)
	}
	p.lastFrame = at
}

// PerfStats aggregates the collector window.
type PerfStats struct {
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration

	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64 // share of the average tick, 0..100

	TicksPerSecond float64

	FrameDuration time.Duration
	FPS           float64
}

// Stats aggregates the ticks currently in the window.
func (p *PerfCollector) Stats() PerfStats {
	out := PerfStats{
		PhaseAvg:      make(map[string]time.Duration),
		PhasePct:      make(map[string]float64),
		FrameDuration: p.frame,
	}
	if p.frame > 0 {
		out.FPS = float64(time.Second) / float64(p.frame)
	}
	if p.count == 0 {
		return out
	}

	var total time.Duration
	sums := make(map[string]time.Duration)
	for i, s := range p.ring[:p.count] {
		total += s.TickDuration
		if i == 0 || s.TickDuration < out.MinTickDuration {
			out.MinTickDuration = s.TickDuration
		}
		out.MaxTickDuration = max(out.MaxTickDuration, s.TickDuration)
		for phase, d := range s.Phases {
			sums[phase] += d
		}
	}

	n := time.Duration(p.count)
	out.AvgTickDuration = total / n
	for phase, sum := range sums {
		out.PhaseAvg[phase] = sum / n
		if total > 0 {
			out.PhasePct[phase] = float64(sum) / float64(total) * 100
		}
	}
	if out.AvgTickDuration > 0 {
		out.TicksPerSecond = float64(time.Second) / float64(out.AvgTickDuration)
	}
	return out
}

// LogStats logs the window with phases in display order. Phases under
// 0.1% are left out.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_tick_us", s.AvgTickDuration.Microseconds(),
		"min_tick_us", s.MinTickDuration.Microseconds(),
		"max_tick_us", s.MaxTickDuration.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}
	for _, phase := range phaseOrder {
		if pct := s.PhasePct[phase]; pct > 0.1 {
			attrs = append(attrs, phase+"_pct", math.Round(pct*10)/10)
		}
	}
	slog.Info("perf", attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd     uint64  `csv:"window_end"`
	AvgTickUS     int64   `csv:"avg_tick_us"`
	MinTickUS     int64   `csv:"min_tick_us"`
	MaxTickUS     int64   `csv:"max_tick_us"`
	TicksPerSec   float64 `csv:"ticks_per_sec"`
	FPS           float64 `csv:"fps"`
	AgentsPct     float64 `csv:"agents_pct"`
	RelaxationPct float64 `csv:"relaxation_pct"`
	SwapPct       float64 `csv:"swap_pct"`
	TelemetryPct  float64 `csv:"telemetry_pct"`
	SnapshotPct   float64 `csv:"snapshot_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd uint64) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:     windowEnd,
		AvgTickUS:     s.AvgTickDuration.Microseconds(),
		MinTickUS:     s.MinTickDuration.Microseconds(),
		MaxTickUS:     s.MaxTickDuration.Microseconds(),
		TicksPerSec:   s.TicksPerSecond,
		FPS:           s.FPS,
		AgentsPct:     s.PhasePct[PhaseAgents],
		RelaxationPct: s.PhasePct[PhaseRelaxation],
		SwapPct:       s.PhasePct[PhaseSwap],
		TelemetryPct:  s.PhasePct[PhaseTelemetry],
		SnapshotPct:   s.PhasePct[PhaseSnapshot],
	}
}
