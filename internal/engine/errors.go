package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/stepflow/internal/workflow"
)

var (
	// ErrEmptyGraph means the workflow had no nodes when the run started.
	ErrEmptyGraph = errors.New("workflow has no nodes")
	// ErrNoStartNode means every node of a non-empty workflow is the target
	// of some edge.
	ErrNoStartNode = errors.New("workflow has no node without an incoming edge")
)

// NotStarted reports whether err means the run aborted before any node was
// executed.
func NotStarted(err error) bool {
	return errors.Is(err, ErrEmptyGraph) || errors.Is(err, ErrNoStartNode)
}

// CycleError is returned when the walk reaches a node it already executed.
type CycleError struct {
	NodeID string
	// Path lists the nodes executed before the revisit, in order.
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected: node %q revisited after %s", e.NodeID, strings.Join(e.Path, " -> "))
}

// NodeExecutionError records the failure of one node's unit of work. It is
// collected in the Summary, never returned from Run on its own.
type NodeExecutionError struct {
	NodeID string
	Kind   workflow.Kind
	Cause  error
}

func (e *NodeExecutionError) Error() string {
	return fmt.Sprintf("node %q (%s) failed: %v", e.NodeID, e.Kind, e.Cause)
}

func (e *NodeExecutionError) Unwrap() error {
	return e.Cause
}
