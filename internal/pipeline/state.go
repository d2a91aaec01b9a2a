package pipeline

import "errors"

// State is the lifecycle of a workflow instance:
// Idle → Processing → {Displaying, Failed}, and Reset back to Idle.
type State int

const (
	Idle State = iota
	Processing
	Displaying
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Processing:
		return "processing"
	case Displaying:
		return "displaying"
	case Failed:
		return "error"
	default:
		return "unknown"
	}
}

// ErrInProgress is returned when a workflow already has an attempt running.
var ErrInProgress = errors.New("an analysis is already in progress")
