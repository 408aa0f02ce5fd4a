package config

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is matched by every *ConfigError.
var ErrInvalidConfig = errors.New("invalid config")

// ConfigError reports a configuration field that failed validation.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Is reports ErrInvalidConfig as a match.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

func invalid(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Validate checks the configuration for values the simulation cannot run with.
// The first violation is returned as a *ConfigError.
func (c *Config) Validate() error {
	d := c.Derived
	if d.FieldW <= 0 {
		return invalid("field.width", "must be positive, got %d", d.FieldW)
	}
	if d.FieldH <= 0 {
		return invalid("field.height", "must be positive, got %d", d.FieldH)
	}
	if c.Field.Channels < 1 {
		return invalid("field.channels", "must be at least 1, got %d", c.Field.Channels)
	}
	if !finite(c.Field.Saturation) || c.Field.Saturation <= 0 {
		return invalid("field.saturation", "must be positive and finite, got %v", c.Field.Saturation)
	}
	if !finite(c.Field.DiffuseSpeed) || c.Field.DiffuseSpeed < 0 {
		return invalid("field.diffuse_speed", "must be non-negative and finite, got %v", c.Field.DiffuseSpeed)
	}
	if c.Field.DiffuseRadius < 0 {
		return invalid("field.diffuse_radius", "must be non-negative, got %d", c.Field.DiffuseRadius)
	}
	if c.Field.DiffuseRadius*2+1 > min(d.FieldW, d.FieldH) {
		return invalid("field.diffuse_radius", "neighbourhood %d exceeds field", c.Field.DiffuseRadius*2+1)
	}
	if len(c.Field.Evaporation) != c.Field.Channels {
		return invalid("field.evaporation", "need %d rates, got %d", c.Field.Channels, len(c.Field.Evaporation))
	}
	for i, e := range c.Field.Evaporation {
		if !finite(e) || e < 0 {
			return invalid(fmt.Sprintf("field.evaporation[%d]", i), "must be non-negative and finite, got %v", e)
		}
	}

	if c.Agents.Count < 0 {
		return invalid("agents.count", "must not be negative, got %d", c.Agents.Count)
	}
	if err := c.validateSpawn(); err != nil {
		return err
	}

	if len(c.Species) > 256 {
		return invalid("species", "at most 256 species, got %d", len(c.Species))
	}
	var ratio float64
	for i, sp := range c.Species {
		field := fmt.Sprintf("species[%d]", i)
		if sp.DepositChannel < 0 || sp.DepositChannel >= c.Field.Channels {
			return invalid(field+".deposit_channel", "channel %d outside [0,%d)", sp.DepositChannel, c.Field.Channels)
		}
		if !finite(sp.Deposit) || sp.Deposit < 0 {
			return invalid(field+".deposit", "must be non-negative and finite, got %v", sp.Deposit)
		}
		if !finite(sp.Ratio) || sp.Ratio < 0 {
			return invalid(field+".ratio", "must be non-negative and finite, got %v", sp.Ratio)
		}
		if len(sp.SenseWeights) != c.Field.Channels {
			return invalid(field+".sense_weights", "need %d weights, got %d", c.Field.Channels, len(sp.SenseWeights))
		}
		for j, w := range sp.SenseWeights {
			if !finite(w) {
				return invalid(fmt.Sprintf("%s.sense_weights[%d]", field, j), "must be finite")
			}
		}
		ratio += sp.Ratio
	}
	if ratio <= 0 {
		return invalid("species", "ratios must sum to a positive value")
	}

	if !finite(c.Sensor.AngleSpacing) {
		return invalid("sensor.angle_spacing", "must be finite")
	}
	if !finite(c.Sensor.Offset) || c.Sensor.Offset < 0 {
		return invalid("sensor.offset", "must be non-negative and finite, got %v", c.Sensor.Offset)
	}
	if c.Sensor.Size < 0 {
		return invalid("sensor.size", "must be non-negative, got %d", c.Sensor.Size)
	}

	if !finite(c.Motion.TurnSpeed) || c.Motion.TurnSpeed < 0 {
		return invalid("motion.turn_speed", "must be non-negative and finite, got %v", c.Motion.TurnSpeed)
	}
	if !finite(c.Motion.MoveSpeed) || c.Motion.MoveSpeed < 0 {
		return invalid("motion.move_speed", "must be non-negative and finite, got %v", c.Motion.MoveSpeed)
	}
	if !finite(c.Motion.TurnJitter) || c.Motion.TurnJitter < 0 || c.Motion.TurnJitter > 1 {
		return invalid("motion.turn_jitter", "must be in [0,1], got %v", c.Motion.TurnJitter)
	}
	switch c.Motion.Boundary {
	case "", "wrap", "reflect":
	default:
		return invalid("motion.boundary", "unknown policy %q", c.Motion.Boundary)
	}

	if !finite(c.Physics.DT) || c.Physics.DT <= 0 {
		return invalid("physics.dt", "must be positive and finite, got %v", c.Physics.DT)
	}
	if c.Physics.StepsPerFrame < 0 {
		return invalid("physics.steps_per_frame", "must not be negative, got %d", c.Physics.StepsPerFrame)
	}
	if c.Parallel.Workers < 0 {
		return invalid("parallel.workers", "must not be negative, got %d", c.Parallel.Workers)
	}
	return nil
}

func (c *Config) validateSpawn() error {
	s := c.Agents.Spawn
	switch s.Mode {
	case "", "ring", "disc", "uniform", "clusters", "noise":
	default:
		return invalid("agents.spawn.mode", "unknown mode %q", s.Mode)
	}
	switch s.Heading {
	case "", "outward", "inward", "random":
	default:
		return invalid("agents.spawn.heading", "unknown heading %q", s.Heading)
	}
	if !finite(s.CenterX) {
		return invalid("agents.spawn.center_x", "must be finite, got %v", s.CenterX)
	}
	if !finite(s.CenterY) {
		return invalid("agents.spawn.center_y", "must be finite, got %v", s.CenterY)
	}
	if !finite(s.InnerRadius) || s.InnerRadius < 0 {
		return invalid("agents.spawn.inner_radius", "must be non-negative and finite, got %v", s.InnerRadius)
	}
	if !finite(s.OuterRadius) || s.OuterRadius < s.InnerRadius {
		return invalid("agents.spawn.outer_radius", "must be finite and >= inner_radius, got %v", s.OuterRadius)
	}
	if s.Mode == "noise" {
		if !finite(s.NoiseScale) || s.NoiseScale <= 0 {
			return invalid("agents.spawn.noise_scale", "must be positive, got %v", s.NoiseScale)
		}
		if !finite(s.NoiseThreshold) || s.NoiseThreshold < 0 || s.NoiseThreshold >= 1 {
			return invalid("agents.spawn.noise_threshold", "must be in [0,1), got %v", s.NoiseThreshold)
		}
	}
	return nil
}
