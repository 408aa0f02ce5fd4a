package game

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
)

// logStartup logs the run parameters once the game is built.
func (g *Game) logStartup() {
	cfg := g.cfg

	species := make([]string, len(cfg.Species))
	for i, sp := range cfg.Species {
		species[i] = fmt.Sprintf("%s(ch%d ratio %.2f)", sp.Name, sp.DepositChannel, sp.Ratio)
	}

	var budget any = "unlimited"
	if g.frameBudget > 0 {
		budget = g.frameBudget.Round(time.Microsecond).String()
	}

	slog.Info("run started",
		"run_id", g.runID,
		"seed", g.rngSeed,
		"agents", humanize.Comma(int64(g.sim.Stats().Agents)),
		"species", species,
		"spawn", cfg.Agents.Spawn.Mode,
		"boundary", cfg.Motion.Boundary,
		"dt", g.dt,
		"steps_per_update", g.stepsPerUpdate,
		"frame_budget", budget,
		"stats_window_ticks", humanize.Comma(int64(g.collector.WindowDurationTicks())),
		"output_dir", g.outputManager.Dir(),
		"store", g.store.Path(),
		"snapshot_dir", g.snapshots.Dir(),
	)
}
