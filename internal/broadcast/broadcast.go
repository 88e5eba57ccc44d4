// Package broadcast publishes run and node status over socket.io so editors
// can highlight the node being executed.
//
// Events:
//
//	node_status   {run_id, node_id, status, at}
//	run_started   {run_id, workflow}
//	run_finished  the run summary
package broadcast

import (
	"context"
	"time"

	"github.com/specialistvlad/stepflow/internal/ctxlog"
	"github.com/specialistvlad/stepflow/internal/engine"
	"github.com/specialistvlad/stepflow/internal/status"
)

// Event names emitted to every connected client.
const (
	EventNodeStatus  = "node_status"
	EventRunStarted  = "run_started"
	EventRunFinished = "run_finished"
)

// Emitter sends one event to every connected client.
type Emitter interface {
	Emit(event string, payload any)
}

// NodeStatusMessage is the payload of EventNodeStatus.
type NodeStatusMessage struct {
	RunID  string    `json:"run_id"`
	NodeID string    `json:"node_id"`
	Status string    `json:"status"`
	At     time.Time `json:"at"`
}

// RunStartedMessage is the payload of EventRunStarted.
type RunStartedMessage struct {
	RunID    string `json:"run_id"`
	Workflow string `json:"workflow"`
}

// Broadcaster turns engine notifications into socket.io events. It is both
// a status.Observer and an engine.RunListener.
type Broadcaster struct {
	emitter Emitter
}

var (
	_ status.Observer    = (*Broadcaster)(nil)
	_ engine.RunListener = (*Broadcaster)(nil)
)

// New creates a broadcaster that writes to emitter.
func New(emitter Emitter) *Broadcaster {
	return &Broadcaster{emitter: emitter}
}

// NodeStatusChanged implements status.Observer.
func (b *Broadcaster) NodeStatusChanged(ctx context.Context, ev status.Event) {
	b.emitter.Emit(EventNodeStatus, NodeStatusMessage{
		RunID:  ev.RunID,
		NodeID: ev.NodeID,
		Status: ev.Status.String(),
		At:     ev.At,
	})
	ctxlog.FromContext(ctx).Debug("Broadcast node status.", "node_id", ev.NodeID, "status", ev.Status.String())
}

// RunStarted announces a run before its start node is resolved.
func (b *Broadcaster) RunStarted(_ context.Context, runID, workflowName string) {
	b.emitter.Emit(EventRunStarted, RunStartedMessage{RunID: runID, Workflow: workflowName})
}

// RunFinished publishes the final summary of a run.
func (b *Broadcaster) RunFinished(_ context.Context, s *engine.Summary) {
	if s == nil {
		return
	}
	b.emitter.Emit(EventRunFinished, s)
}
