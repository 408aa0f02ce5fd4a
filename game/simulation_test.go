package game

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/pthm-cable/slime/config"
	"github.com/pthm-cable/slime/systems"
	"github.com/pthm-cable/slime/telemetry"
)

func testConfig(w, h, n int) *config.Config {
	cfg := config.Default()
	cfg.Field.Width = w
	cfg.Field.Height = h
	cfg.Agents.Count = n
	cfg.Field.Saturation = 1e9
	cfg.Recompute()
	return cfg
}

// staticConfig has no diffusion and no evaporation, so the field only
// ever accumulates deposits.
func staticConfig(w, h, n int) *config.Config {
	cfg := testConfig(w, h, n)
	cfg.Field.DiffuseSpeed = 0
	cfg.Field.Evaporation = []float64{0, 0, 0, 0}
	cfg.Species = cfg.Species[:1]
	cfg.Species[0].Deposit = 1
	cfg.Recompute()
	return cfg
}

func mustSimulation(t *testing.T, cfg *config.Config, seed int64, opts SimulationOptions) *Simulation {
	t.Helper()
	s, err := NewSimulationWithOptions(cfg, seed, opts)
	if err != nil {
		t.Fatalf("NewSimulation: %v", err)
	}
	t.Cleanup(s.Shutdown)
	return s
}

func stepN(t *testing.T, s *Simulation, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := s.Step(1); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
	}
}

func TestNewSimulationRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(32, 32, -1)
	_, err := NewSimulation(cfg, 1)
	var ce *config.ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ConfigError, got %v", err)
	}
	if ce.Field != "agents.count" {
		t.Errorf("field = %q, want agents.count", ce.Field)
	}
}

func TestNewSimulationValidatesStaleConfig(t *testing.T) {
	cfg := testConfig(64, 64, 10)
	cfg.Field.Width = -4 // edited without Recompute

	_, err := NewSimulation(cfg, 1)
	var ce *config.ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ConfigError, got %v", err)
	}
	if ce.Field != "field.width" {
		t.Errorf("field = %q, want field.width", ce.Field)
	}
}

func TestNewSimulationRejectsNonFiniteCenter(t *testing.T) {
	tests := []struct {
		name  string
		field string
		edit  func(*config.Config)
	}{
		{"nan_x", "agents.spawn.center_x", func(c *config.Config) { c.Agents.Spawn.CenterX = math.NaN() }},
		{"inf_y", "agents.spawn.center_y", func(c *config.Config) { c.Agents.Spawn.CenterY = math.Inf(1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(64, 64, 10)
			tt.edit(cfg)
			cfg.Recompute()

			_, err := NewSimulation(cfg, 1)
			var ce *config.ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("expected *ConfigError, got %v", err)
			}
			if ce.Field != tt.field {
				t.Errorf("field = %q, want %s", ce.Field, tt.field)
			}
		})
	}
}

func TestStepPhaseOrder(t *testing.T) {
	var got [][2]Phase
	s := mustSimulation(t, testConfig(32, 32, 100), 1, SimulationOptions{
		Observer: func(from, to Phase) { got = append(got, [2]Phase{from, to}) },
	})

	stepN(t, s, 1)

	want := [][2]Phase{
		{PhaseIdle, PhaseAgentsUpdating},
		{PhaseAgentsUpdating, PhaseAgentBarrier},
		{PhaseAgentBarrier, PhaseFieldRelaxing},
		{PhaseFieldRelaxing, PhaseFieldBarrier},
		{PhaseFieldBarrier, PhaseSwapped},
		{PhaseSwapped, PhaseIdle},
	}
	if !slices.Equal(got, want) {
		t.Errorf("transitions:\n got %v\nwant %v", got, want)
	}
	if s.Phase() != PhaseIdle {
		t.Errorf("phase after step = %v, want idle", s.Phase())
	}
	if s.Tick() != 1 {
		t.Errorf("tick = %d, want 1", s.Tick())
	}
}

func TestValidTransition(t *testing.T) {
	tests := []struct {
		from, to Phase
		want     bool
	}{
		{PhaseIdle, PhaseAgentsUpdating, true},
		{PhaseIdle, PhaseFieldRelaxing, false},
		{PhaseAgentsUpdating, PhaseIdle, true},
		{PhaseAgentBarrier, PhaseIdle, false},
		{PhaseFieldRelaxing, PhaseIdle, true},
		{PhaseFieldBarrier, PhaseSwapped, true},
		{PhaseSwapped, PhaseAgentsUpdating, false},
		{PhaseIdle, PhaseShutdown, true},
		{PhaseFieldRelaxing, PhaseShutdown, false},
		{PhaseShutdown, PhaseIdle, false},
	}
	for _, tt := range tests {
		if got := validTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("validTransition(%v, %v) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestIllegalTransitionPanics(t *testing.T) {
	s := mustSimulation(t, testConfig(16, 16, 0), 1, SimulationOptions{})
	defer func() {
		if recover() == nil {
			t.Error("expected panic on idle -> swapped")
		}
	}()
	s.transition(PhaseSwapped)
}

func TestStepRollsBackOnFault(t *testing.T) {
	for _, phase := range []Phase{PhaseAgentsUpdating, PhaseFieldRelaxing} {
		t.Run(phase.String(), func(t *testing.T) {
			s := mustSimulation(t, testConfig(64, 64, 500), 3, SimulationOptions{})
			stepN(t, s, 5)

			field := s.Field().CopyTo(nil)
			agents := s.Agents()
			tick := s.Tick()

			boom := errors.New("boom")
			s.fault = func(p Phase) error {
				if p == phase {
					return boom
				}
				return nil
			}
			err := s.Step(1)
			if !errors.Is(err, ErrDevice) || !errors.Is(err, boom) {
				t.Fatalf("Step error = %v, want device error wrapping boom", err)
			}
			var de *DeviceError
			if !errors.As(err, &de) || de.Phase != phase {
				t.Errorf("error phase = %v, want %v", de, phase)
			}

			if s.Tick() != tick {
				t.Errorf("tick advanced to %d after failed step", s.Tick())
			}
			if !slices.Equal(s.Field().CopyTo(nil), field) {
				t.Error("field changed by failed step")
			}
			if !slices.Equal(s.Agents(), agents) {
				t.Error("agents changed by failed step")
			}
			if s.Phase() != PhaseIdle {
				t.Errorf("phase = %v, want idle", s.Phase())
			}
			if got := s.Stats().FailedTicks; got != 1 {
				t.Errorf("FailedTicks = %d, want 1", got)
			}

			// The next tick starts from the restored state.
			s.fault = nil
			stepN(t, s, 1)
			if s.Tick() != tick+1 {
				t.Errorf("tick = %d, want %d", s.Tick(), tick+1)
			}
		})
	}
}

func TestStepAfterFaultMatchesCleanRun(t *testing.T) {
	cfg := testConfig(64, 64, 500)
	clean := mustSimulation(t, cfg, 9, SimulationOptions{Workers: 1})
	faulty := mustSimulation(t, cfg, 9, SimulationOptions{Workers: 1})

	stepN(t, clean, 4)
	stepN(t, faulty, 2)
	faulty.fault = func(Phase) error { return errors.New("boom") }
	if err := faulty.Step(1); err == nil {
		t.Fatal("expected fault")
	}
	faulty.fault = nil
	stepN(t, faulty, 2)

	if !slices.Equal(clean.Field().CopyTo(nil), faulty.Field().CopyTo(nil)) {
		t.Error("field diverged after a rolled back tick")
	}
	if !slices.Equal(clean.Agents(), faulty.Agents()) {
		t.Error("agents diverged after a rolled back tick")
	}
}

func TestStepRejectsBadDT(t *testing.T) {
	s := mustSimulation(t, testConfig(16, 16, 10), 1, SimulationOptions{})
	for _, dt := range []float32{0, -1, float32(math.NaN()), float32(math.Inf(1))} {
		err := s.Step(dt)
		var ce *config.ConfigError
		if !errors.As(err, &ce) || ce.Field != "dt" {
			t.Errorf("Step(%v) = %v, want dt ConfigError", dt, err)
		}
		if !errors.Is(err, config.ErrInvalidConfig) {
			t.Errorf("Step(%v) error does not match ErrInvalidConfig", dt)
		}
	}
	if s.Tick() != 0 || s.Phase() != PhaseIdle {
		t.Errorf("state changed: tick %d phase %v", s.Tick(), s.Phase())
	}
}

func TestStepInProgress(t *testing.T) {
	s := mustSimulation(t, testConfig(16, 16, 10), 1, SimulationOptions{})
	s.mu.Lock()
	err := s.Step(1)
	s.mu.Unlock()
	if !errors.Is(err, ErrStepInProgress) {
		t.Errorf("Step while locked = %v, want ErrStepInProgress", err)
	}
}

func TestShutdown(t *testing.T) {
	s := mustSimulation(t, testConfig(16, 16, 10), 1, SimulationOptions{})
	stepN(t, s, 2)

	s.Shutdown()
	s.Shutdown()

	if s.Phase() != PhaseShutdown {
		t.Errorf("phase = %v, want shutdown", s.Phase())
	}
	err := s.Step(1)
	if !errors.Is(err, ErrShutdown) || !errors.Is(err, ErrDevice) {
		t.Errorf("Step after Shutdown = %v, want ErrShutdown", err)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Validate after Shutdown = %v", err)
	}
	if !s.Field().Empty() {
		t.Error("field buffers not released")
	}
}

func TestInvariantsHold(t *testing.T) {
	cfg := testConfig(64, 48, 2000)
	cfg.Field.Saturation = 1
	cfg.Motion.TurnJitter = 0.5
	cfg.Agents.Spawn.Mode = systems.SpawnUniform
	cfg.Recompute()
	s := mustSimulation(t, cfg, 11, SimulationOptions{})

	for i := 0; i < 30; i++ {
		stepN(t, s, 1)
		if err := s.Validate(); err != nil {
			t.Fatalf("tick %d: %v", s.Tick(), err)
		}
	}
	if got := len(s.Agents()); got != 2000 {
		t.Errorf("agent count = %d, want 2000", got)
	}
}

func TestZeroAgentsOnlyDecay(t *testing.T) {
	cfg := testConfig(16, 16, 0)
	cfg.Field.DiffuseSpeed = 0
	cfg.Field.Evaporation = []float64{0.5, 0.5, 0.5, 0.5}
	cfg.Recompute()
	s := mustSimulation(t, cfg, 1, SimulationOptions{})

	cur := s.field.Current()
	for i := range cur {
		cur[i] = 1
	}
	prev := s.Field().Mass()
	for i := 0; i < 5; i++ {
		stepN(t, s, 1)
		m := s.Field().Mass()
		if math.Abs(m-prev*0.5) > 1e-6*prev {
			t.Fatalf("tick %d: mass %v, want %v", s.Tick(), m, prev*0.5)
		}
		prev = m
	}
}

func TestDeterministicAcrossWorkerCounts(t *testing.T) {
	cfg := testConfig(64, 64, 3000)
	cfg.Parallel.Threshold = 1
	cfg.Motion.TurnJitter = 1
	cfg.Recompute()

	serial := mustSimulation(t, cfg, 42, SimulationOptions{Workers: 1})
	parallel := mustSimulation(t, cfg, 42, SimulationOptions{Workers: 4})
	stepN(t, serial, 20)
	stepN(t, parallel, 20)

	if !slices.Equal(serial.Agents(), parallel.Agents()) {
		t.Error("agent state depends on worker count")
	}
	if !slices.Equal(serial.Field().CopyTo(nil), parallel.Field().CopyTo(nil)) {
		t.Error("field state depends on worker count")
	}
}

func TestDifferentSeedsDiverge(t *testing.T) {
	cfg := testConfig(64, 64, 500)
	a := mustSimulation(t, cfg, 1, SimulationOptions{})
	b := mustSimulation(t, cfg, 2, SimulationOptions{})
	if slices.Equal(a.Agents(), b.Agents()) {
		t.Error("different seeds produced identical populations")
	}
}

func TestMassConservedWithoutEvaporation(t *testing.T) {
	cfg := staticConfig(64, 64, 800)
	s := mustSimulation(t, cfg, 5, SimulationOptions{})
	stepN(t, s, 10)
	if got, want := s.Field().Mass(), 800.0*10; got != want {
		t.Errorf("mass = %v, want %v", got, want)
	}

	// Diffusion redistributes but does not create or destroy mass.
	cfg.Field.DiffuseSpeed = 0.5
	cfg.Recompute()
	d := mustSimulation(t, cfg, 5, SimulationOptions{})
	stepN(t, d, 10)
	if got, want := d.Field().Mass(), 800.0*10; math.Abs(got-want) > want*1e-4 {
		t.Errorf("mass with diffusion = %v, want %v", got, want)
	}
}

func TestScenarioSingleTickMass(t *testing.T) {
	s := mustSimulation(t, staticConfig(256, 256, 1000), 1, SimulationOptions{})
	stepN(t, s, 1)
	if got := s.Field().Mass(); got != 1000 {
		t.Errorf("mass after one tick = %v, want 1000", got)
	}
}

func TestScenarioGeometricDecay(t *testing.T) {
	cfg := staticConfig(256, 256, 1000)
	cfg.Field.Evaporation = []float64{0.1, 0.1, 0.1, 0.1}
	cfg.Recompute()
	s := mustSimulation(t, cfg, 1, SimulationOptions{})

	// Each tick adds 1000 and the sum then decays by 0.9.
	want := 0.0
	for i := 0; i < 100; i++ {
		stepN(t, s, 1)
		want = (want + 1000) * 0.9
		if got := s.Field().Mass(); math.Abs(got-want) > want*1e-4 {
			t.Fatalf("tick %d: mass %v, want %v", i+1, got, want)
		}
	}
}

func TestScenarioRepulsiveSpeciesStayApart(t *testing.T) {
	cfg := testConfig(256, 256, 2000)
	cfg.Agents.Spawn.Mode = systems.SpawnClusters
	cfg.Agents.Spawn.OuterRadius = 10
	cfg.Field.Evaporation = []float64{0.05, 0.05, 0, 0}
	cfg.Species[0].SenseWeights = []float64{1, -1, 0, 0}
	cfg.Species[1].SenseWeights = []float64{-1, 1, 0, 0}
	cfg.Recompute()
	s := mustSimulation(t, cfg, 7, SimulationOptions{})

	w, h := 256.0, 256.0
	separation := func() float64 {
		c := telemetry.SpeciesCentroids(s.Agents(), 2, w, h)
		return telemetry.CentroidSeparation(c, w, h)
	}
	initial := separation()
	if initial < 100 {
		t.Fatalf("initial separation %v, clusters too close", initial)
	}

	stepN(t, s, 50)
	if got := separation(); got < initial/2 {
		t.Errorf("separation collapsed: %v -> %v", initial, got)
	}
}

func TestFieldBoundedWithoutSaturation(t *testing.T) {
	cfg := testConfig(32, 32, 200)
	cfg.Field.Evaporation = []float64{0.1, 0.1, 0.1, 0.1}
	cfg.Recompute()
	s := mustSimulation(t, cfg, 4, SimulationOptions{})
	stepN(t, s, 60)

	// Steady state of (v + deposits) * 0.9 with every deposit in one cell.
	bound := float32(cfg.Species[0].Deposit*200) / float32(cfg.Derived.MaxEvaporation)
	for i, v := range s.Field().Values() {
		if v > bound {
			t.Fatalf("value %v at %d exceeds %v", v, i, bound)
		}
	}
}
