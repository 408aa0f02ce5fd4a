// Package main provides CMA-ES optimization of slime sensing and motion
// parameters.
package main

import (
	"github.com/pthm-cable/slime/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Sensing
			{Name: "sensor_angle", Path: "sensor.angle_spacing", Min: 0.1, Max: 1.5, Default: 1.0},
			{Name: "sensor_offset", Path: "sensor.offset", Min: 1.0, Max: 30.0, Default: 5.0},
			// Motion
			{Name: "turn_speed", Path: "motion.turn_speed", Min: 0.01, Max: 1.0, Default: 0.1},
			{Name: "move_speed", Path: "motion.move_speed", Min: 0.25, Max: 3.0, Default: 1.0},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// FromConfig reads the current parameter values out of cfg, clamped to bounds.
func (pv *ParamVector) FromConfig(cfg *config.Config) []float64 {
	return pv.Clamp([]float64{
		cfg.Sensor.AngleSpacing,
		cfg.Sensor.Offset,
		cfg.Motion.TurnSpeed,
		cfg.Motion.MoveSpeed,
	})
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)

	cfg.Sensor.AngleSpacing = clamped[0]
	cfg.Sensor.Offset = clamped[1]
	cfg.Motion.TurnSpeed = clamped[2]
	cfg.Motion.MoveSpeed = clamped[3]

	cfg.Recompute()
}
