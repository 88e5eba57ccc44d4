package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/stepflow/internal/execution"
	"github.com/specialistvlad/stepflow/internal/workflow"
)

// Outcome is the result of executing one node.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// MarshalText encodes the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes an outcome name.
func (o *Outcome) UnmarshalText(b []byte) error {
	switch string(b) {
	case "success":
		*o = OutcomeSuccess
	case "failure":
		*o = OutcomeFailure
	default:
		return fmt.Errorf("unknown outcome %q", b)
	}
	return nil
}

// Step is the record of one visited node.
type Step struct {
	NodeID    string           `json:"node_id"`
	Kind      workflow.Kind    `json:"node_type"`
	Outcome   Outcome          `json:"outcome"`
	Result    execution.Result `json:"result,omitempty"`
	Error     string           `json:"error,omitempty"`
	Cause     error            `json:"-"`
	StartedAt time.Time        `json:"started_at"`
	Duration  time.Duration    `json:"duration"`
}

// Failed reports whether the node's unit of work failed.
func (s Step) Failed() bool {
	return s.Outcome == OutcomeFailure
}

// Summary is the report of one run.
type Summary struct {
	RunID      string    `json:"run_id"`
	Workflow   string    `json:"workflow"`
	State      State     `json:"state"`
	Reason     Reason    `json:"reason,omitempty"`
	Error      string    `json:"error,omitempty"`
	Steps      []Step    `json:"steps"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Started reports whether at least one node was executed. A run that
// aborted while resolving its start node did not start.
func (s *Summary) Started() bool {
	return len(s.Steps) > 0
}

// Visited returns the executed node ids in order.
func (s *Summary) Visited() []string {
	ids := make([]string, 0, len(s.Steps))
	for _, st := range s.Steps {
		ids = append(ids, st.NodeID)
	}
	return ids
}

// Failures returns the steps whose unit of work failed.
func (s *Summary) Failures() []Step {
	var failed []Step
	for _, st := range s.Steps {
		if st.Failed() {
			failed = append(failed, st)
		}
	}
	return failed
}

// Succeeded reports whether the run completed and every node succeeded.
func (s *Summary) Succeeded() bool {
	return s.State == StateCompleted && len(s.Failures()) == 0
}

// Err joins the per-node failures into one error, nil if there were none.
func (s *Summary) Err() error {
	var errs []error
	for _, st := range s.Failures() {
		cause := st.Cause
		if cause == nil {
			cause = errors.New(st.Error)
		}
		errs = append(errs, &NodeExecutionError{NodeID: st.NodeID, Kind: st.Kind, Cause: cause})
	}
	return errors.Join(errs...)
}

// Duration returns the wall time of the run.
func (s *Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
