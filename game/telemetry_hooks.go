package game

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pthm-cable/slime/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and fans the
// window out to the log, CSV output, run store and callback.
func (g *Game) flushTelemetry() {
	tick := g.sim.Tick()
	if !g.collector.ShouldFlush(tick) {
		return
	}
	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)

	g.agentBuf = g.sim.AgentsInto(g.agentBuf)
	simStats := g.sim.Stats()
	stats := g.collector.Flush(tick, telemetry.Sample{
		Field:           g.sim.Field(),
		Agents:          g.agentBuf,
		NumSpecies:      g.cfg.Derived.NumSpecies,
		FailedTicks:     simStats.FailedTicks,
		AgentDegenerate: simStats.AgentDegenerate,
		FieldDegenerate: simStats.FieldDegenerate,
	})
	perfStats := g.perfCollector.Stats()
	g.lastStats = &stats

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}

	if err := g.store.RecordWindow(context.Background(), g.runID, stats); err != nil {
		slog.Error("failed to store window", "error", err)
	}
}

// intervalSnapshot saves a snapshot every snapshot.interval ticks.
func (g *Game) intervalSnapshot() {
	if g.snapshotInterval == 0 || g.sim.Tick()%g.snapshotInterval != 0 {
		return
	}
	g.perfCollector.StartPhase(telemetry.PhaseSnapshot)
	if _, err := g.SaveSnapshot(); err != nil {
		slog.Error("failed to save snapshot", "error", err)
	}
}

// SaveSnapshot writes the committed field as a PNG with a JSON sidecar.
// Returns the sidecar path.
func (g *Game) SaveSnapshot() (string, error) {
	if g.snapshots == nil {
		return "", fmt.Errorf("snapshots disabled")
	}

	snapshot := telemetry.Snapshot{
		RunID:   g.runID,
		RNGSeed: g.rngSeed,
		Tick:    g.sim.Tick(),
		Agents:  g.sim.Stats().Agents,
	}
	path, err := g.snapshots.Save(snapshot, g.sim.Field())
	if err != nil {
		return "", err
	}

	slog.Info("snapshot saved", "path", path, "tick", snapshot.Tick)
	g.setStatus("snapshot saved: " + path)
	return path, nil
}
