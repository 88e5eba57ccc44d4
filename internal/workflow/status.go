package workflow

import "fmt"

// Status is the transient execution status of a node. It is owned by the
// engine for the duration of a run and is never persisted.
type Status int

const (
	// StatusIdle is the resting state of every node.
	StatusIdle Status = iota
	// StatusRunning marks the node whose unit of work is in flight.
	StatusRunning
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// MarshalText encodes the status by name for JSON and socket payloads.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a status name.
func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "idle":
		*s = StatusIdle
	case "running":
		*s = StatusRunning
	default:
		return fmt.Errorf("unknown node status %q", string(b))
	}
	return nil
}
