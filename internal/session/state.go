package session

import (
	"fmt"
)

// State is the orchestrator's lifecycle state
type State string

const (
	StateIdle          State = "idle"
	StateImageSelected State = "image_selected"
	StateConverting    State = "converting"
	StateReady         State = "ready"
	StateError         State = "error"
)

// transition moves o to the target state when allowed. Callers hold o.mu.
func (o *Orchestrator) transition(to State) error {
	if !isAllowedTransition(o.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidState, o.state, to)
	}
	o.state = to
	return nil
}

func isAllowedTransition(from, to State) bool {
	if to == StateIdle || to == StateImageSelected {
		// Reset and a new upload are accepted from anywhere
		return true
	}
	switch from {
	case StateImageSelected, StateError:
		return to == StateConverting
	case StateConverting:
		return to == StateReady || to == StateError
	default:
		return false
	}
}
