// Package nodestore defines the side table that holds the mutable, per-run
// state of workflow nodes.
//
// # Why Node Store Exists
//
// Workflow documents are persistence-shaped data: they are loaded, edited and
// saved. The status of a node during a run is not. Keeping it out of the
// workflow.Node records means a run can never leak "running" into a saved
// document, and two concurrent runs over the same workflow never alias each
// other's state.
//
// # Lifecycle
//
//  1. **Created** by the engine when a run starts, empty (every node Idle)
//  2. **Mutated** as the run visits nodes: status, then output or error
//  3. **Read** back into each step of the run summary once the node finishes
//  4. **Discarded** when the run ends
package nodestore

import (
	"context"

	"github.com/specialistvlad/stepflow/internal/workflow"
)

// Store manages the execution state of nodes keyed by node id.
//
// Implementations MUST be safe for concurrent use: status observers may read
// while the engine writes.
type Store interface {
	// SetStatus records the status of a node. It does not validate that the
	// node exists in any topology.
	SetStatus(ctx context.Context, id string, status workflow.Status) error

	// GetStatus returns the status of a node, StatusIdle if none was set.
	GetStatus(ctx context.Context, id string) (workflow.Status, error)

	// SetOutput records the result payload of a node whose unit of work
	// succeeded.
	SetOutput(ctx context.Context, id string, output map[string]any) error

	// GetOutput returns the recorded output, nil if there is none.
	GetOutput(ctx context.Context, id string) (map[string]any, error)

	// SetError records why a node's unit of work failed.
	SetError(ctx context.Context, id string, nodeErr error) error

	// GetError returns the recorded failure, nil if the node did not fail.
	GetError(ctx context.Context, id string) (error, error)
}
