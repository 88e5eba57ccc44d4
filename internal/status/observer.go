// Package status publishes per-node execution status to interested
// observers without touching workflow topology.
package status

import (
	"context"
	"time"

	"github.com/specialistvlad/stepflow/internal/ctxlog"
	"github.com/specialistvlad/stepflow/internal/workflow"
)

// Event is a single status change of one node within one run.
type Event struct {
	RunID  string          `json:"run_id"`
	NodeID string          `json:"node_id"`
	Status workflow.Status `json:"status"`
	At     time.Time       `json:"at"`
}

// Observer receives status changes. It is a pure sink: nothing it returns is
// consumed, and a slow observer slows the run down, so implementations that
// do I/O should hand events off quickly.
type Observer interface {
	NodeStatusChanged(ctx context.Context, ev Event)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(ctx context.Context, ev Event)

// NodeStatusChanged calls f(ctx, ev).
func (f ObserverFunc) NodeStatusChanged(ctx context.Context, ev Event) {
	f(ctx, ev)
}

// Multi fans every event out to each observer in order.
type Multi []Observer

// NodeStatusChanged implements Observer.
func (m Multi) NodeStatusChanged(ctx context.Context, ev Event) {
	for _, o := range m {
		if o != nil {
			o.NodeStatusChanged(ctx, ev)
		}
	}
}

// Discard is an Observer that drops every event.
var Discard Observer = ObserverFunc(func(context.Context, Event) {})

// LogObserver writes every event at debug level to the logger carried by
// the context. The engine's context logger already carries the run and node
// ids.
type LogObserver struct{}

// NodeStatusChanged implements Observer.
func (LogObserver) NodeStatusChanged(ctx context.Context, ev Event) {
	ctxlog.FromContext(ctx).Debug("Node status changed.", "status", ev.Status.String())
}
