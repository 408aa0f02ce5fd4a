package systems

import "fmt"

// Agent is one particle of the swarm.
type Agent struct {
	X, Y    float32
	Heading float32 // radians, [0, 2*Pi)
	Species uint8
}

// Population holds the agent records. The front buffer is the committed
// state; the agent phase writes next-tick records into the back buffer,
// which only becomes visible on Commit.
type Population struct {
	front []Agent
	back  []Agent
}

// NewPopulation takes ownership of agents as the initial committed state.
func NewPopulation(agents []Agent) *Population {
	return &Population{
		front: agents,
		back:  make([]Agent, len(agents)),
	}
}

// Len returns the number of agents.
func (p *Population) Len() int { return len(p.front) }

// Front returns the committed records. Callers must not modify them.
func (p *Population) Front() []Agent { return p.front }

// Back returns the records being written for the tick in flight.
func (p *Population) Back() []Agent { return p.back }

// Commit makes the back buffer the committed state.
func (p *Population) Commit() {
	p.front, p.back = p.back, p.front
}

// CopyTo copies the committed records into dst, growing it if needed.
func (p *Population) CopyTo(dst []Agent) []Agent {
	if cap(dst) < len(p.front) {
		dst = make([]Agent, len(p.front))
	}
	dst = dst[:len(p.front)]
	copy(dst, p.front)
	return dst
}

// Release drops both buffers.
func (p *Population) Release() {
	p.front = nil
	p.back = nil
}

// Validate checks that every committed agent is in bounds with a finite,
// normalised heading and a known species.
func (p *Population) Validate(w, h float32, numSpecies int) error {
	for i, a := range p.front {
		if !finite32(a.X) || !finite32(a.Y) || a.X < 0 || a.X >= w || a.Y < 0 || a.Y >= h {
			return fmt.Errorf("%w: agent %d position (%v,%v)", ErrNumericDegeneracy, i, a.X, a.Y)
		}
		if !finite32(a.Heading) || a.Heading < 0 || a.Heading >= twoPi32 {
			return fmt.Errorf("%w: agent %d heading %v", ErrNumericDegeneracy, i, a.Heading)
		}
		if int(a.Species) >= numSpecies {
			return fmt.Errorf("%w: agent %d species %d", ErrNumericDegeneracy, i, a.Species)
		}
	}
	return nil
}
