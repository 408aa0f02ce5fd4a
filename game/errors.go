package game

import (
	"errors"
	"fmt"
)

var (
	// ErrDevice is matched by every *DeviceError.
	ErrDevice = errors.New("device error")
	// ErrShutdown is wrapped by Step after Shutdown.
	ErrShutdown = errors.New("simulation shut down")
	// ErrPoolStopped is returned when work is dispatched to a stopped pool.
	ErrPoolStopped = errors.New("worker pool stopped")
	// ErrStepInProgress is returned when Step is called while another tick runs.
	ErrStepInProgress = errors.New("step already in progress")
)

// DeviceError reports a failed dispatch. The simulation keeps the state of
// the last completed tick.
type DeviceError struct {
	Phase Phase
	Err   error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device: %s: %v", e.Phase, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// Is reports ErrDevice as a match.
func (e *DeviceError) Is(target error) bool {
	return target == ErrDevice
}
