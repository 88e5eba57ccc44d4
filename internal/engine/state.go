package engine

import "fmt"

// State is a state of the run state machine.
type State int

const (
	StateIdle State = iota
	StateResolving
	StateRunning
	StateAdvancing
	StateCompleted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StateRunning:
		return "running"
	case StateAdvancing:
		return "advancing"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(b []byte) error {
	for c := StateIdle; c <= StateAborted; c++ {
		if c.String() == string(b) {
			*s = c
			return nil
		}
	}
	return fmt.Errorf("unknown run state %q", b)
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateAborted
}

// Reason explains why a run was aborted.
type Reason string

const (
	ReasonEmpty     Reason = "empty"
	ReasonNoStart   Reason = "no-start"
	ReasonCycle     Reason = "cycle"
	ReasonCancelled Reason = "cancelled"
)
