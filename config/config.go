// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Field     FieldConfig     `yaml:"field"`
	Agents    AgentsConfig    `yaml:"agents"`
	Species   []SpeciesConfig `yaml:"species"`
	Sensor    SensorConfig    `yaml:"sensor"`
	Motion    MotionConfig    `yaml:"motion"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Parallel  ParallelConfig  `yaml:"parallel"`
	Render    RenderConfig    `yaml:"render"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Snapshot  SnapshotConfig  `yaml:"snapshot"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// FieldConfig describes the trail map.
type FieldConfig struct {
	Width         int       `yaml:"width"`          // Cells (0 = screen width)
	Height        int       `yaml:"height"`         // Cells (0 = screen height)
	Channels      int       `yaml:"channels"`       // Float channels per cell
	Saturation    float64   `yaml:"saturation"`     // Upper bound for every channel value
	DiffuseSpeed  float64   `yaml:"diffuse_speed"`  // Blend toward neighbourhood mean, per second
	DiffuseRadius int       `yaml:"diffuse_radius"` // Neighbourhood radius in cells (1 = 3x3)
	Evaporation   []float64 `yaml:"evaporation"`    // Per-channel decay rate per second
}

// AgentsConfig holds population size and the initial distribution.
type AgentsConfig struct {
	Count int         `yaml:"count"`
	Spawn SpawnConfig `yaml:"spawn"`
}

// SpawnConfig describes where agents start.
type SpawnConfig struct {
	Mode           string  `yaml:"mode"`            // ring, disc, uniform, clusters, noise
	CenterX        float64 `yaml:"center_x"`        // Focal point (negative = field centre)
	CenterY        float64 `yaml:"center_y"`        // Focal point (negative = field centre)
	InnerRadius    float64 `yaml:"inner_radius"`    // Ring inner radius
	OuterRadius    float64 `yaml:"outer_radius"`    // Ring/disc/cluster outer radius
	Heading        string  `yaml:"heading"`         // outward, inward, random
	NoiseScale     float64 `yaml:"noise_scale"`     // Noise frequency in cells^-1
	NoiseThreshold float64 `yaml:"noise_threshold"` // Minimum normalised noise to accept a spawn point
}

// SpeciesConfig describes one agent species.
type SpeciesConfig struct {
	Name           string    `yaml:"name"`
	Ratio          float64   `yaml:"ratio"`           // Relative share of the population
	DepositChannel int       `yaml:"deposit_channel"` // Channel written by this species
	Deposit        float64   `yaml:"deposit"`         // Amount added per step
	SenseWeights   []float64 `yaml:"sense_weights"`   // Per-channel weight when sensing (negative repels)
}

// SensorConfig holds sensing geometry.
type SensorConfig struct {
	AngleSpacing float64 `yaml:"angle_spacing"` // Radians between centre and side sensors
	Offset       float64 `yaml:"offset"`        // Distance from agent to sample point
	Size         int     `yaml:"size"`          // Footprint radius in cells (side 2*size+1)
}

// MotionConfig holds steering and movement parameters.
type MotionConfig struct {
	TurnSpeed  float64 `yaml:"turn_speed"`  // Radians per second
	MoveSpeed  float64 `yaml:"move_speed"`  // Cells per second
	TurnJitter float64 `yaml:"turn_jitter"` // 0 = exact turns, 1 = turn scaled by a uniform draw
	Boundary   string  `yaml:"boundary"`    // wrap or reflect
}

// PhysicsConfig holds time stepping parameters.
type PhysicsConfig struct {
	DT            float64 `yaml:"dt"`
	StepsPerFrame int     `yaml:"steps_per_frame"`
	FrameBudgetMS float64 `yaml:"frame_budget_ms"` // 0 disables tick skipping
}

// ParallelConfig holds worker pool parameters.
type ParallelConfig struct {
	Workers         int `yaml:"workers"`           // 0 = GOMAXPROCS
	Threshold       int `yaml:"threshold"`         // Below this many items work runs inline
	ChunksPerWorker int `yaml:"chunks_per_worker"` // Index ranges handed to each worker per dispatch
}

// RenderConfig holds presenter parameters.
type RenderConfig struct {
	Exposure      float64     `yaml:"exposure"`
	ChannelColors [][]float64 `yaml:"channel_colors"` // RGB in [0,1] per channel
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"` // Simulation seconds per stats window
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// SnapshotConfig holds PNG snapshot parameters.
type SnapshotConfig struct {
	Interval int `yaml:"interval"`  // Ticks between snapshots (0 = only on demand)
	MaxWidth int `yaml:"max_width"` // Downscale wider snapshots (0 = native size)
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32           float32 // Physics.DT as float32
	FieldW         int     // Effective field width
	FieldH         int     // Effective field height
	NumSpecies     int
	MaxEvaporation float64
	CenterX        float64 // Effective spawn centre
	CenterY        float64
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	return cfg, nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	out := *c
	out.Field.Evaporation = append([]float64(nil), c.Field.Evaporation...)
	out.Species = make([]SpeciesConfig, len(c.Species))
	for i, sp := range c.Species {
		sp.SenseWeights = append([]float64(nil), sp.SenseWeights...)
		out.Species[i] = sp
	}
	out.Render.ChannelColors = make([][]float64, len(c.Render.ChannelColors))
	for i, col := range c.Render.ChannelColors {
		out.Render.ChannelColors[i] = append([]float64(nil), col...)
	}
	out.computeDerived()
	return &out
}

// Recompute refreshes derived values after fields were edited in code.
func (c *Config) Recompute() {
	c.computeDerived()
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Physics.DT)

	// Field dimensions default to screen size if not specified
	c.Derived.FieldW = c.Field.Width
	if c.Derived.FieldW == 0 {
		c.Derived.FieldW = c.Screen.Width
	}
	c.Derived.FieldH = c.Field.Height
	if c.Derived.FieldH == 0 {
		c.Derived.FieldH = c.Screen.Height
	}

	// Synthesize a single species if none specified
	if len(c.Species) == 0 {
		weights := make([]float64, max(c.Field.Channels, 1))
		weights[0] = 1
		c.Species = []SpeciesConfig{{
			Name:         "default",
			Ratio:        1,
			Deposit:      1,
			SenseWeights: weights,
		}}
	}
	for i := range c.Species {
		sp := &c.Species[i]
		if sp.Name == "" {
			sp.Name = fmt.Sprintf("species-%d", i)
		}
		// Missing weights: attracted to own channel only
		if len(sp.SenseWeights) == 0 && c.Field.Channels > 0 {
			sp.SenseWeights = make([]float64, c.Field.Channels)
			if sp.DepositChannel >= 0 && sp.DepositChannel < c.Field.Channels {
				sp.SenseWeights[sp.DepositChannel] = 1
			}
		}
	}
	c.Derived.NumSpecies = len(c.Species)

	// Pad evaporation with the last configured rate
	if n := len(c.Field.Evaporation); n > 0 && n < c.Field.Channels {
		last := c.Field.Evaporation[n-1]
		for len(c.Field.Evaporation) < c.Field.Channels {
			c.Field.Evaporation = append(c.Field.Evaporation, last)
		}
	}
	c.Derived.MaxEvaporation = 0
	for _, e := range c.Field.Evaporation {
		c.Derived.MaxEvaporation = math.Max(c.Derived.MaxEvaporation, e)
	}

	c.Derived.CenterX = c.Agents.Spawn.CenterX
	if c.Derived.CenterX < 0 {
		c.Derived.CenterX = float64(c.Derived.FieldW) / 2
	}
	c.Derived.CenterY = c.Agents.Spawn.CenterY
	if c.Derived.CenterY < 0 {
		c.Derived.CenterY = float64(c.Derived.FieldH) / 2
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := c.YAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// YAML returns the configuration encoded as YAML.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}
