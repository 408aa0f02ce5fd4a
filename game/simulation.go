package game

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/pthm-cable/slime/config"
	"github.com/pthm-cable/slime/systems"
	"github.com/pthm-cable/slime/telemetry"
)

// SimulationOptions configures a Simulation beyond its config.
type SimulationOptions struct {
	Workers  int                      // Overrides parallel.workers when > 0
	Observer PhaseObserver            // Receives every phase transition
	Perf     *telemetry.PerfCollector // Optional phase timing (caller owns StartTick/EndTick)
}

// SimStats holds stepper counters.
type SimStats struct {
	Tick            uint64
	Agents          int
	AgentDegenerate uint64 // Non-finite agent candidates discarded
	FieldDegenerate uint64 // Non-finite field results replaced by zero
	FailedTicks     uint64 // Ticks rolled back after a dispatch failure

	LastAgents time.Duration
	LastRelax  time.Duration
	LastTick   time.Duration
}

// Simulation owns the trail field, the agent population and the worker pool,
// and advances them one tick at a time.
type Simulation struct {
	mu    sync.Mutex // held for the whole of Step and Shutdown
	phase atomic.Uint32

	observer PhaseObserver
	perf     *telemetry.PerfCollector

	field  *systems.TrailField
	pop    *systems.Population
	agents *systems.AgentKernel
	relax  *systems.RelaxKernel

	diffuseSpeed float64
	evaporation  []float64
	relaxDT      float32

	pool    *workerPool
	scratch [][]float32 // per-worker relaxation rows

	width, height float32
	numSpecies    int
	tick          uint64
	stats         SimStats

	// Test hook: called after each dispatch, a non-nil error fails the phase.
	fault func(Phase) error
}

// NewSimulation validates cfg, allocates the field and spawns the population.
func NewSimulation(cfg *config.Config, seed int64) (*Simulation, error) {
	return NewSimulationWithOptions(cfg, seed, SimulationOptions{})
}

// NewSimulationWithOptions is NewSimulation with explicit options.
// Later changes to cfg do not affect the returned simulation.
func NewSimulationWithOptions(cfg *config.Config, seed int64, opts SimulationOptions) (*Simulation, error) {
	// Validate the clone: Clone recomputes Derived.
	cfg = cfg.Clone()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	w, h, c := cfg.Derived.FieldW, cfg.Derived.FieldH, cfg.Field.Channels
	workers := cfg.Parallel.Workers
	if opts.Workers > 0 {
		workers = opts.Workers
	}

	s := &Simulation{
		observer:     opts.Observer,
		perf:         opts.Perf,
		field:        systems.NewTrailField(w, h, c, float32(cfg.Field.Saturation)),
		pop:          systems.NewPopulation(systems.Spawn(cfg, seed)),
		agents:       systems.NewAgentKernel(cfg, seed),
		relax:        systems.NewRelaxKernel(cfg, cfg.Derived.DT32),
		diffuseSpeed: cfg.Field.DiffuseSpeed,
		evaporation:  cfg.Field.Evaporation,
		relaxDT:      cfg.Derived.DT32,
		pool:         newWorkerPool(workers, cfg.Parallel.Threshold, cfg.Parallel.ChunksPerWorker),
		width:        float32(w),
		height:       float32(h),
		numSpecies:   len(cfg.Species),
	}
	s.scratch = make([][]float32, s.pool.workers())
	for i := range s.scratch {
		s.scratch[i] = make([]float32, s.relax.ScratchLen())
	}
	s.stats.Agents = s.pop.Len()

	fieldBytes := uint64(w*h*c) * 4 * 3 // two buffers plus pending layer
	agentBytes := uint64(s.pop.Len()) * 16 * 2
	slog.Info("simulation allocated",
		"field", fmt.Sprintf("%dx%dx%d", w, h, c),
		"field_mem", humanize.IBytes(fieldBytes),
		"agents", humanize.Comma(int64(s.pop.Len())),
		"agent_mem", humanize.IBytes(agentBytes),
		"workers", s.pool.workers(),
		"seed", seed,
	)
	return s, nil
}

// transition moves the stepper to the next phase. Illegal transitions are
// programming errors.
func (s *Simulation) transition(to Phase) {
	from := Phase(s.phase.Load())
	if !validTransition(from, to) {
		panic(fmt.Sprintf("simulation: illegal phase transition %s -> %s", from, to))
	}
	s.phase.Store(uint32(to))
	if s.observer != nil {
		s.observer(from, to)
	}
}

func (s *Simulation) startPhase(name string) {
	if s.perf != nil {
		s.perf.StartPhase(name)
	}
}

// Step advances the simulation by one tick of dt seconds: agents sense the
// committed field and deposit into a pending layer, relaxation diffuses and
// evaporates into the scratch buffer, then both are committed together.
// On a dispatch failure the tick is rolled back and a *DeviceError returned.
func (s *Simulation) Step(dt float32) error {
	if !s.mu.TryLock() {
		return ErrStepInProgress
	}
	defer s.mu.Unlock()

	if Phase(s.phase.Load()) == PhaseShutdown {
		return &DeviceError{Phase: PhaseShutdown, Err: ErrShutdown}
	}
	if !(dt > 0) || math.IsInf(float64(dt), 0) {
		return &config.ConfigError{Field: "dt", Reason: fmt.Sprintf("must be positive and finite, got %v", dt)}
	}

	tickStart := time.Now()

	// Agents: scatter
	s.transition(PhaseAgentsUpdating)
	s.startPhase(telemetry.PhaseAgents)
	front, back := s.pop.Front(), s.pop.Back()
	var agentDegenerate atomic.Uint64
	err := s.pool.dispatch(len(front), 1, func(start, end, _ int) {
		if n := s.agents.Step(front, back, start, end, s.field, s.tick, dt); n > 0 {
			agentDegenerate.Add(uint64(n))
		}
	})
	if err == nil && s.fault != nil {
		err = s.fault(PhaseAgentsUpdating)
	}
	if err != nil {
		return s.abort(PhaseAgentsUpdating, err)
	}
	s.transition(PhaseAgentBarrier)
	agentsDone := time.Now()

	// Field: reduce + relax into scratch
	if dt != s.relaxDT {
		s.relax.SetDT(s.diffuseSpeed, s.evaporation, dt)
		s.relaxDT = dt
	}
	s.transition(PhaseFieldRelaxing)
	s.startPhase(telemetry.PhaseRelaxation)
	var fieldDegenerate atomic.Uint64
	err = s.pool.dispatch(s.relax.H, s.relax.W, func(y0, y1, worker int) {
		if n := s.relax.Rows(s.field, y0, y1, s.scratch[worker]); n > 0 {
			fieldDegenerate.Add(uint64(n))
		}
	})
	if err == nil && s.fault != nil {
		err = s.fault(PhaseFieldRelaxing)
	}
	if err != nil {
		return s.abort(PhaseFieldRelaxing, err)
	}
	s.transition(PhaseFieldBarrier)
	relaxDone := time.Now()

	// Commit
	s.startPhase(telemetry.PhaseSwap)
	s.field.Swap()
	s.pop.Commit()
	s.tick++
	s.transition(PhaseSwapped)

	s.stats.Tick = s.tick
	s.stats.AgentDegenerate += agentDegenerate.Load()
	s.stats.FieldDegenerate += fieldDegenerate.Load()
	s.stats.LastAgents = agentsDone.Sub(tickStart)
	s.stats.LastRelax = relaxDone.Sub(agentsDone)
	s.stats.LastTick = time.Since(tickStart)

	s.transition(PhaseIdle)
	return nil
}

// abort discards everything the failed tick produced.
func (s *Simulation) abort(phase Phase, err error) error {
	s.field.DiscardPending()
	s.stats.FailedTicks++
	s.transition(PhaseIdle)
	return &DeviceError{Phase: phase, Err: err}
}

// Field returns a read-only view of the committed trail buffer. It remains
// valid until the next Step.
func (s *Simulation) Field() systems.FieldView {
	return s.field.View()
}

// Agents returns a copy of the committed agent records.
func (s *Simulation) Agents() []systems.Agent {
	return s.AgentsInto(nil)
}

// AgentsInto copies the committed agent records into dst, reusing its storage.
func (s *Simulation) AgentsInto(dst []systems.Agent) []systems.Agent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pop.CopyTo(dst)
}

// Tick returns the number of committed ticks.
func (s *Simulation) Tick() uint64 {
	return s.tick
}

// Phase returns the current stepper phase.
func (s *Simulation) Phase() Phase {
	return Phase(s.phase.Load())
}

// Stats returns a snapshot of the stepper counters.
func (s *Simulation) Stats() SimStats {
	return s.stats
}

// Size returns the field dimensions in cells.
func (s *Simulation) Size() (w, h int) {
	return int(s.width), int(s.height)
}

// Validate scans the committed state for invariant violations.
// Errors match systems.ErrNumericDegeneracy.
func (s *Simulation) Validate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if Phase(s.phase.Load()) == PhaseShutdown {
		return nil
	}
	if err := s.field.Validate(); err != nil {
		return err
	}
	return s.pop.Validate(s.width, s.height, s.numSpecies)
}

// Shutdown stops the worker pool and releases the buffers. It waits for a
// tick in flight to finish. Calling it more than once is a no-op.
func (s *Simulation) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if Phase(s.phase.Load()) == PhaseShutdown {
		return
	}
	s.pool.stop()
	s.field.Release()
	s.pop.Release()
	s.scratch = nil
	s.transition(PhaseShutdown)
	slog.Info("simulation shut down", "tick", s.tick)
}
