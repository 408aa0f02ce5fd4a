package game

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/pthm-cable/slime/config"
	"github.com/pthm-cable/slime/telemetry"
)

// initGameConfig resets the global config to a small field.
func initGameConfig(c *qt.C) *config.Config {
	config.MustInit("")
	cfg := config.Cfg()
	cfg.Field.Width = 64
	cfg.Field.Height = 64
	cfg.Agents.Count = 300
	cfg.Telemetry.StatsWindow = 5
	cfg.Physics.DT = 1
	cfg.Recompute()
	c.Cleanup(func() { config.MustInit("") })
	return cfg
}

func newTestGame(c *qt.C, opts Options) *Game {
	g, err := NewGameWithOptions(opts)
	c.Assert(err, qt.IsNil)
	return g
}

func TestHeadlessRunWritesTelemetry(t *testing.T) {
	c := qt.New(t)
	cfg := initGameConfig(c)
	cfg.Snapshot.Interval = 10

	dir := t.TempDir()
	storePath := filepath.Join(dir, "runs.db")
	var windows []telemetry.WindowStats
	g := newTestGame(c, Options{
		Seed:           7,
		Headless:       true,
		StepsPerUpdate: 5,
		OutputDir:      filepath.Join(dir, "out", "{run}"),
		StorePath:      storePath,
		SnapshotDir:    filepath.Join(dir, "snaps"),
		StatsCallback:  func(w telemetry.WindowStats) { windows = append(windows, w) },
	})
	runID := g.RunID()

	for i := 0; i < 4; i++ {
		g.UpdateHeadless()
	}
	c.Assert(g.Tick(), qt.Equals, uint64(20))
	c.Assert(g.Stopped(), qt.IsFalse)
	c.Assert(windows, qt.HasLen, 4)
	c.Assert(windows[3].WindowEndTick, qt.Equals, uint64(20))
	c.Assert(windows[3].Agents, qt.Equals, 300)
	c.Assert(g.LastStats().WindowEndTick, qt.Equals, uint64(20))

	for _, name := range []string{"telemetry.csv", "perf.csv", "config.yaml"} {
		_, err := os.Stat(filepath.Join(dir, "out", runID, name))
		c.Assert(err, qt.IsNil, qt.Commentf("missing %s", name))
	}
	for _, tick := range []string{"10", "20"} {
		_, err := os.Stat(filepath.Join(dir, "snaps", "snapshot_"+tick+".json"))
		c.Assert(err, qt.IsNil)
		_, err = os.Stat(filepath.Join(dir, "snaps", "snapshot_"+tick+".png"))
		c.Assert(err, qt.IsNil)
	}

	g.Unload()

	ctx := context.Background()
	store, err := telemetry.OpenRunStore(ctx, storePath)
	c.Assert(err, qt.IsNil)
	defer store.Close()

	info, ok, err := store.Run(ctx, runID)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)
	c.Assert(info.Seed, qt.Equals, int64(7))
	c.Assert(info.Ticks, qt.Equals, uint64(20))
	c.Assert(info.EndedAt.IsZero(), qt.IsFalse)

	stored, err := store.Windows(ctx, runID)
	c.Assert(err, qt.IsNil)
	c.Assert(stored, qt.HasLen, 4)
}

func TestPauseAndSingleStep(t *testing.T) {
	c := qt.New(t)
	initGameConfig(c)
	g := newTestGame(c, Options{Seed: 1, Headless: true, StepsPerUpdate: 3})
	defer g.Unload()

	g.Update()
	c.Assert(g.Tick(), qt.Equals, uint64(3))

	g.TogglePause()
	g.Update()
	c.Assert(g.Tick(), qt.Equals, uint64(3))

	g.RequestStep()
	g.Update()
	c.Assert(g.Tick(), qt.Equals, uint64(4))
	g.Update()
	c.Assert(g.Tick(), qt.Equals, uint64(4))

	g.TogglePause()
	g.RequestStep() // ignored while running
	g.Update()
	c.Assert(g.Tick(), qt.Equals, uint64(7))
}

func TestStepsPerUpdateClamped(t *testing.T) {
	c := qt.New(t)
	initGameConfig(c)
	g := newTestGame(c, Options{Seed: 1, Headless: true})
	defer g.Unload()

	g.SetStepsPerUpdate(0)
	c.Assert(g.StepsPerUpdate(), qt.Equals, 1)
	g.SetStepsPerUpdate(1000)
	c.Assert(g.StepsPerUpdate(), qt.Equals, maxStepsPerUpdate)
}

func TestFrameBudgetSkipsWholeTicks(t *testing.T) {
	c := qt.New(t)
	cfg := initGameConfig(c)
	cfg.Physics.FrameBudgetMS = 1e-6

	g := newTestGame(c, Options{Seed: 1, Headless: true, StepsPerUpdate: 10})
	defer g.Unload()

	g.Update()
	// The first tick always runs; the budget is spent after it.
	c.Assert(g.Tick(), qt.Equals, uint64(1))
	c.Assert(g.SkippedTicks(), qt.Equals, uint64(9))

	// Headless updates ignore the budget.
	g.UpdateHeadless()
	c.Assert(g.Tick(), qt.Equals, uint64(11))
}

func TestStoppedAfterShutdown(t *testing.T) {
	c := qt.New(t)
	initGameConfig(c)
	g := newTestGame(c, Options{Seed: 1, Headless: true, StepsPerUpdate: 2})
	defer g.Unload()

	g.Simulation().Shutdown()
	g.UpdateHeadless()
	c.Assert(g.Stopped(), qt.IsTrue)
	c.Assert(g.Tick(), qt.Equals, uint64(0))
}

func TestSaveSnapshotDisabledHeadless(t *testing.T) {
	c := qt.New(t)
	initGameConfig(c)
	g := newTestGame(c, Options{Seed: 1, Headless: true})
	defer g.Unload()

	_, err := g.SaveSnapshot()
	c.Assert(err, qt.ErrorMatches, "snapshots disabled")
}

func TestSaveSnapshotSetsStatus(t *testing.T) {
	c := qt.New(t)
	initGameConfig(c)
	dir := t.TempDir()
	g := newTestGame(c, Options{Seed: 1, Headless: true, SnapshotDir: dir})
	defer g.Unload()

	g.UpdateHeadless()
	path, err := g.SaveSnapshot()
	c.Assert(err, qt.IsNil)
	c.Assert(path, qt.Equals, filepath.Join(dir, "snapshot_1.json"))
	c.Assert(g.Status(), qt.Contains, "snapshot saved")

	snap, err := telemetry.LoadSnapshot(path)
	c.Assert(err, qt.IsNil)
	c.Assert(snap.RunID, qt.Equals, g.RunID())
	c.Assert(snap.RNGSeed, qt.Equals, int64(1))
}
