package game

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/pthm-cable/slime/config"
	"github.com/pthm-cable/slime/renderer/palette"
	"github.com/pthm-cable/slime/systems"
	"github.com/pthm-cable/slime/telemetry"
)

// maxStepsPerUpdate bounds the steps-per-update control.
const maxStepsPerUpdate = 64

// defaultSnapshotDir receives key-press snapshots when no directory is set.
const defaultSnapshotDir = "snapshots"

// Options configures a Game.
type Options struct {
	Seed           int64
	LogStats       bool
	StatsWindowSec float64 // 0 = use config
	SnapshotDir    string  // "" disables interval snapshots
	OutputDir      string  // "" disables CSV output; "{run}" expands to the run ID
	StorePath      string  // "" disables the sqlite run store
	Headless       bool
	StepsPerUpdate int // 0 = use config
	Workers        int // 0 = use config

	// StatsCallback receives every flushed telemetry window.
	StatsCallback func(telemetry.WindowStats)
}

// Game hosts a Simulation: it drives ticks from the frame loop and feeds
// telemetry. Presentation lives in package viewer.
type Game struct {
	cfg     *config.Config
	sim     *Simulation
	rngSeed int64
	runID   string
	dt      float32

	// Frame loop
	stepsPerUpdate int
	frameBudget    time.Duration
	paused         bool
	stepOnce       bool
	skippedTicks   uint64
	stopped        bool

	// Telemetry
	collector        *telemetry.Collector
	perfCollector    *telemetry.PerfCollector
	outputManager    *telemetry.OutputManager
	store            *telemetry.RunStore
	snapshots        *telemetry.SnapshotWriter
	snapshotInterval uint64
	statsCallback    func(telemetry.WindowStats)
	logStats         bool
	lastStats        *telemetry.WindowStats
	agentBuf         []systems.Agent

	palette     *palette.Palette
	status      string
	statusUntil time.Time
}

// NewGameWithOptions builds a game from the global config.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := config.Cfg()
	ctx := context.Background()

	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)
	sim, err := NewSimulationWithOptions(cfg, opts.Seed, SimulationOptions{
		Workers: opts.Workers,
		Perf:    perf,
	})
	if err != nil {
		return nil, err
	}

	steps := cfg.Physics.StepsPerFrame
	if opts.StepsPerUpdate > 0 {
		steps = opts.StepsPerUpdate
	}
	statsWindow := cfg.Telemetry.StatsWindow
	if opts.StatsWindowSec > 0 {
		statsWindow = opts.StatsWindowSec
	}

	g := &Game{
		cfg:              cfg,
		sim:              sim,
		rngSeed:          opts.Seed,
		runID:            telemetry.NewRunID(),
		dt:               cfg.Derived.DT32,
		stepsPerUpdate:   min(max(steps, 1), maxStepsPerUpdate),
		frameBudget:      time.Duration(cfg.Physics.FrameBudgetMS * float64(time.Millisecond)),
		perfCollector:    perf,
		snapshotInterval: uint64(cfg.Snapshot.Interval),
		statsCallback:    opts.StatsCallback,
		logStats:         opts.LogStats,
		palette:          palette.FromConfig(cfg),
	}
	g.collector = telemetry.NewCollector(g.runID, statsWindow, g.dt)

	outputDir := strings.ReplaceAll(opts.OutputDir, "{run}", g.runID)
	if g.outputManager, err = telemetry.NewOutputManager(outputDir); err != nil {
		sim.Shutdown()
		return nil, err
	}
	if err := g.outputManager.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	if g.store, err = telemetry.OpenRunStore(ctx, opts.StorePath); err != nil {
		g.outputManager.Close()
		sim.Shutdown()
		return nil, err
	}
	if g.store != nil {
		cfgYAML, err := cfg.YAML()
		if err != nil {
			slog.Error("failed to encode config", "error", err)
		}
		if err := g.store.BeginRun(ctx, g.runID, opts.Seed, cfgYAML); err != nil {
			slog.Error("failed to record run", "error", err)
		}
	}

	snapshotDir := opts.SnapshotDir
	if snapshotDir == "" {
		g.snapshotInterval = 0
		if !opts.Headless {
			snapshotDir = defaultSnapshotDir
		}
	}
	g.snapshots = telemetry.NewSnapshotWriter(snapshotDir, g.palette, cfg.Snapshot.MaxWidth)

	g.logStartup()
	return g, nil
}

// Update advances the simulation for one displayed frame, honouring pause,
// single-step requests and the frame budget.
func (g *Game) Update() {
	g.perfCollector.RecordFrame()

	if g.paused && !g.stepOnce {
		return
	}
	steps := g.stepsPerUpdate
	if g.stepOnce {
		steps = 1
		g.stepOnce = false
	}
	g.runSteps(steps, g.frameBudget)
}

// UpdateHeadless advances the simulation without input or frame budget.
func (g *Game) UpdateHeadless() {
	g.runSteps(g.stepsPerUpdate, 0)
}

// runSteps runs up to n ticks. Once budget is spent the remaining ticks are
// skipped whole and counted.
func (g *Game) runSteps(n int, budget time.Duration) {
	start := time.Now()
	for i := 0; i < n; i++ {
		if g.stopped {
			return
		}
		if budget > 0 && i > 0 && time.Since(start) > budget {
			skipped := n - i
			g.skippedTicks += uint64(skipped)
			g.collector.RecordSkipped(skipped)
			return
		}
		g.step()
	}
}

// step runs one tick plus its telemetry and snapshot hooks.
func (g *Game) step() {
	g.perfCollector.StartTick()
	err := g.sim.Step(g.dt)
	if err != nil {
		g.perfCollector.EndTick()
		g.handleStepError(err)
		return
	}

	g.flushTelemetry()
	g.intervalSnapshot()
	g.perfCollector.EndTick()
}

func (g *Game) handleStepError(err error) {
	switch {
	case errors.Is(err, ErrShutdown):
		g.stopped = true
		slog.Warn("simulation is shut down, stopping updates")
	case errors.Is(err, ErrDevice):
		// The field keeps the last committed tick; try again next frame.
		slog.Error("tick failed", "tick", g.sim.Tick(), "error", err)
	case errors.Is(err, config.ErrInvalidConfig):
		g.stopped = true
		slog.Error("invalid step", "error", err)
	default:
		slog.Error("step error", "error", err)
	}
}

// Stopped reports whether the game stopped advancing after a fatal error.
func (g *Game) Stopped() bool {
	return g.stopped
}

// Tick returns the current simulation tick.
func (g *Game) Tick() uint64 {
	return g.sim.Tick()
}

// RunID returns the identifier recorded with this run's telemetry.
func (g *Game) RunID() string {
	return g.runID
}

// Simulation returns the hosted simulation.
func (g *Game) Simulation() *Simulation {
	return g.sim
}

// SkippedTicks returns the total ticks dropped to honour the frame budget.
func (g *Game) SkippedTicks() uint64 {
	return g.skippedTicks
}

// Unload flushes run records and releases all resources.
func (g *Game) Unload() {
	ctx := context.Background()
	if err := g.store.EndRun(ctx, g.runID, g.sim.Tick()); err != nil {
		slog.Error("failed to finish run record", "error", err)
	}
	if err := g.store.Close(); err != nil {
		slog.Error("failed to close run store", "error", err)
	}
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
	g.sim.Shutdown()
}
