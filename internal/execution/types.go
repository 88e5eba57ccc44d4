// Package execution is the per-node execution service: the unit of work the
// engine invokes once for every node it visits. Handlers are registered by
// node kind; the same Registry serves in-process runs and the HTTP endpoint.
package execution

import (
	"context"

	"github.com/specialistvlad/stepflow/internal/workflow"
)

// Request asks the service to execute one node.
type Request struct {
	NodeID   string        `json:"node_id"`
	NodeKind workflow.Kind `json:"node_type"`
	// TaskInput is optional caller-provided data forwarded to the handler.
	TaskInput any `json:"task_data,omitempty"`
}

// Result is the free-form payload a handler returns.
type Result map[string]any

// HandlerFunc executes the unit of work for one node.
type HandlerFunc func(ctx context.Context, req Request) (Result, error)
