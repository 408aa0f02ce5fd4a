package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/slime/config"
)

func TestNormalizeRoundTrip(t *testing.T) {
	pv := NewParamVector()
	raw := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		if math.Abs(back[i]-raw[i]) > 1e-9 {
			t.Errorf("%s: got %v, want %v", pv.Specs[i].Name, back[i], raw[i])
		}
	}
}

func TestApplyToConfigClamps(t *testing.T) {
	pv := NewParamVector()
	cfg := config.Default()
	pv.ApplyToConfig(cfg, []float64{-5, 100, 0.5, 2})

	if cfg.Sensor.AngleSpacing != pv.Specs[0].Min {
		t.Errorf("angle = %v, want clamped to %v", cfg.Sensor.AngleSpacing, pv.Specs[0].Min)
	}
	if cfg.Sensor.Offset != pv.Specs[1].Max {
		t.Errorf("offset = %v, want clamped to %v", cfg.Sensor.Offset, pv.Specs[1].Max)
	}
	if cfg.Motion.TurnSpeed != 0.5 || cfg.Motion.MoveSpeed != 2 {
		t.Errorf("motion = %v/%v, want 0.5/2", cfg.Motion.TurnSpeed, cfg.Motion.MoveSpeed)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("applied config invalid: %v", err)
	}
}

func TestEvaluateSmallRun(t *testing.T) {
	cfg := config.Default()
	cfg.Field.Width = 48
	cfg.Field.Height = 48
	cfg.Agents.Count = 400
	cfg.Recompute()

	pv := NewParamVector()
	fe := NewFitnessEvaluator(pv, 20, []int64{1, 2, 3}, cfg)
	f1 := fe.Evaluate(pv.DefaultVector())
	if math.IsInf(f1, 0) || math.IsNaN(f1) {
		t.Fatalf("fitness = %v, want finite", f1)
	}
	last := fe.Last()
	if last.Fitness != f1 {
		t.Errorf("Last().Fitness = %v, want %v", last.Fitness, f1)
	}
	if last.Contrast <= 0 {
		t.Errorf("contrast = %v, want > 0 after deposits", last.Contrast)
	}

	// Deterministic for the same vector.
	if f2 := fe.Evaluate(pv.DefaultVector()); f2 != f1 {
		t.Errorf("second evaluation = %v, want %v", f2, f1)
	}

	// The base config is not modified.
	if cfg.Sensor.Offset != config.Default().Sensor.Offset {
		t.Error("Evaluate modified the base config")
	}
}
