package systems

import (
	"math"

	"github.com/pthm-cable/slime/config"
)

// Boundary policies.
const (
	BoundaryWrap    = "wrap"
	BoundaryReflect = "reflect"
)

// AgentKernel holds the parameters of the per-agent sense/steer/move/deposit
// update. It is built once from the config and never modified afterwards.
type AgentKernel struct {
	W, H, C int
	fw, fh  float32
	maxX    float32 // largest representable coordinate below W (reflect)
	maxY    float32

	SensorAngle  float32
	SensorOffset float32
	SensorSize   int
	TurnSpeed    float32
	MoveSpeed    float32
	TurnJitter   float32
	Reflect      bool

	Species []Species
	Seed    uint64
}

// NewAgentKernel copies the agent parameters out of cfg.
func NewAgentKernel(cfg *config.Config, seed int64) *AgentKernel {
	w, h := cfg.Derived.FieldW, cfg.Derived.FieldH
	return &AgentKernel{
		W: w, H: h, C: cfg.Field.Channels,
		fw: float32(w), fh: float32(h),
		maxX: nextBelow(float32(w)),
		maxY: nextBelow(float32(h)),

		SensorAngle:  float32(cfg.Sensor.AngleSpacing),
		SensorOffset: float32(cfg.Sensor.Offset),
		SensorSize:   cfg.Sensor.Size,
		TurnSpeed:    float32(cfg.Motion.TurnSpeed),
		MoveSpeed:    float32(cfg.Motion.MoveSpeed),
		TurnJitter:   float32(cfg.Motion.TurnJitter),
		Reflect:      cfg.Motion.Boundary == BoundaryReflect,

		Species: SpeciesTable(cfg),
		Seed:    uint64(seed),
	}
}

// Step updates agents [lo, hi): it reads committed records from src and the
// committed field, writes next records into dst and scatters deposits into
// the field's pending layer. Returns the number of discarded non-finite
// candidates.
func (k *AgentKernel) Step(src, dst []Agent, lo, hi int, field *TrailField, tick uint64, dt float32) int {
	cur := field.Current()
	turn := k.TurnSpeed * dt
	move := k.MoveSpeed * dt
	degenerate := 0

	for i := lo; i < hi; i++ {
		a := src[i]
		sp := &k.Species[a.Species]
		rng := newAgentRand(k.Seed, i, tick)

		// Sense
		wF := k.sense(cur, a.X, a.Y, a.Heading, sp)
		wL := k.sense(cur, a.X, a.Y, a.Heading+k.SensorAngle, sp)
		wR := k.sense(cur, a.X, a.Y, a.Heading-k.SensorAngle, sp)

		// Steer
		amount := turn
		if k.TurnJitter > 0 {
			amount *= 1 - k.TurnJitter*rng.float32()
		}
		heading := a.Heading
		switch {
		case wF >= wL && wF >= wR:
		case wL == wR:
			if rng.bool() {
				heading += amount
			} else {
				heading -= amount
			}
		case wL > wR:
			heading += amount
		default:
			heading -= amount
		}
		if finite32(heading) {
			heading = normalizeHeading(heading)
		} else {
			heading = a.Heading
			degenerate++
		}

		// Move
		x := a.X + move*cos32(heading)
		y := a.Y + move*sin32(heading)
		if !finite32(x) || !finite32(y) {
			x, y = a.X, a.Y
			degenerate++
		}
		if k.Reflect {
			if x < 0 || x >= k.fw || y < 0 || y >= k.fh {
				x = min(max(x, 0), k.maxX)
				y = min(max(y, 0), k.maxY)
				heading = normalizeHeading(rng.float32() * twoPi32)
			}
		} else {
			x = wrapCoord(x, k.fw)
			y = wrapCoord(y, k.fh)
		}

		dst[i] = Agent{X: x, Y: y, Heading: heading, Species: a.Species}

		// Deposit
		if sp.Deposit > 0 {
			cx := min(int(x), k.W-1)
			cy := min(int(y), k.H-1)
			field.Deposit((cy*k.W+cx)*k.C+sp.Channel, sp.Deposit)
		}
	}
	return degenerate
}

// sense sums the species-weighted channel values over the sensor footprint
// centred SensorOffset cells ahead along angle. The footprint wraps.
func (k *AgentKernel) sense(cur []float32, x, y, angle float32, sp *Species) float32 {
	if len(sp.active) == 0 {
		return 0
	}
	px := floorInt(x + k.SensorOffset*cos32(angle))
	py := floorInt(y + k.SensorOffset*sin32(angle))
	s := k.SensorSize

	var sum float32
	for dy := -s; dy <= s; dy++ {
		row := modInt(py+dy, k.H) * k.W
		for dx := -s; dx <= s; dx++ {
			base := (row + modInt(px+dx, k.W)) * k.C
			for _, c := range sp.active {
				sum += sp.Weights[c] * cur[base+c]
			}
		}
	}
	return sum
}

// Sense exposes the sensor for a single probe. Used by tests and tools.
func (k *AgentKernel) Sense(field FieldView, x, y, angle float32, species uint8) float32 {
	return k.sense(field.Values(), x, y, angle, &k.Species[species])
}

func nextBelow(v float32) float32 {
	return math.Nextafter32(v, 0)
}
