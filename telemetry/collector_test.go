package telemetry

import (
	"math"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/pthm-cable/slime/systems"
)

func TestCollectorWindowing(t *testing.T) {
	c := qt.New(t)
	col := NewCollector("run", 10, 0.5)
	c.Assert(col.WindowDurationTicks(), qt.Equals, uint64(20))

	c.Assert(col.ShouldFlush(19), qt.IsFalse)
	c.Assert(col.ShouldFlush(20), qt.IsTrue)
}

func TestCollectorMinimumWindow(t *testing.T) {
	c := qt.New(t)
	col := NewCollector("run", 0.1, 1)
	c.Assert(col.WindowDurationTicks(), qt.Equals, uint64(1))
}

func TestCollectorFlush(t *testing.T) {
	c := qt.New(t)
	col := NewCollector("run", 10, 1)

	data := make([]float32, 4*4*2)
	data[0] = 2
	data[1] = 1
	data[31] = 0.5
	sample := Sample{
		Field: systems.NewFieldView(4, 4, 2, data),
		Agents: []systems.Agent{
			{X: 1, Y: 1, Species: 0},
			{X: 3, Y: 1, Species: 1},
		},
		NumSpecies:      2,
		FailedTicks:     2,
		AgentDegenerate: 5,
		FieldDegenerate: 1,
	}

	col.RecordSkipped(3)
	col.RecordSkipped(-1)
	s := col.Flush(10, sample)

	c.Assert(s.RunID, qt.Equals, "run")
	c.Assert(s.WindowStartTick, qt.Equals, uint64(0))
	c.Assert(s.WindowEndTick, qt.Equals, uint64(10))
	c.Assert(s.SimTimeSec, qt.Equals, 10.0)
	c.Assert(s.Agents, qt.Equals, 2)
	c.Assert(s.TotalMass, qt.Equals, 3.5)
	c.Assert(s.Mass0, qt.Equals, 2.0)
	c.Assert(s.Mass1, qt.Equals, 1.5)
	c.Assert(s.Mass2, qt.Equals, 0.0)
	c.Assert(s.MaxCell, qt.Equals, 2.0)
	c.Assert(math.Abs(s.Separation-2) < 1e-9, qt.IsTrue, qt.Commentf("separation %v", s.Separation))
	c.Assert(s.Ticks, qt.Equals, uint64(10))
	c.Assert(s.SkippedTicks, qt.Equals, uint64(3))
	c.Assert(s.FailedTicks, qt.Equals, uint64(2))
	c.Assert(s.AgentDegenerate, qt.Equals, uint64(5))
	c.Assert(s.FieldDegenerate, qt.Equals, uint64(1))

	// Second window reports deltas only.
	sample.FailedTicks = 3
	sample.AgentDegenerate = 5
	s = col.Flush(20, sample)
	c.Assert(s.WindowStartTick, qt.Equals, uint64(10))
	c.Assert(s.Ticks, qt.Equals, uint64(10))
	c.Assert(s.SkippedTicks, qt.Equals, uint64(0))
	c.Assert(s.FailedTicks, qt.Equals, uint64(1))
	c.Assert(s.AgentDegenerate, qt.Equals, uint64(0))
	c.Assert(s.FieldDegenerate, qt.Equals, uint64(0))
	c.Assert(col.ShouldFlush(29), qt.IsFalse)
	c.Assert(col.ShouldFlush(30), qt.IsTrue)
}
