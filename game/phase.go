package game

import "fmt"

// Phase is a state of the simulation stepper.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseAgentsUpdating
	PhaseAgentBarrier
	PhaseFieldRelaxing
	PhaseFieldBarrier
	PhaseSwapped
	PhaseShutdown
)

var phaseNames = [...]string{
	PhaseIdle:           "idle",
	PhaseAgentsUpdating: "agents_updating",
	PhaseAgentBarrier:   "agent_barrier",
	PhaseFieldRelaxing:  "field_relaxing",
	PhaseFieldBarrier:   "field_barrier",
	PhaseSwapped:        "swapped",
	PhaseShutdown:       "shutdown",
}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

// validTransition reports whether the stepper may move from one phase to the next.
// A failed dispatch returns to Idle from the phase that was running.
func validTransition(from, to Phase) bool {
	switch to {
	case PhaseShutdown:
		return from == PhaseIdle
	case PhaseIdle:
		return from == PhaseSwapped || from == PhaseAgentsUpdating || from == PhaseFieldRelaxing
	}
	switch from {
	case PhaseIdle:
		return to == PhaseAgentsUpdating
	case PhaseAgentsUpdating:
		return to == PhaseAgentBarrier
	case PhaseAgentBarrier:
		return to == PhaseFieldRelaxing
	case PhaseFieldRelaxing:
		return to == PhaseFieldBarrier
	case PhaseFieldBarrier:
		return to == PhaseSwapped
	}
	return false
}

// PhaseObserver receives every stepper transition.
type PhaseObserver func(from, to Phase)
