package status

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/specialistvlad/stepflow/internal/nodestore"
	"github.com/specialistvlad/stepflow/internal/workflow"
)

// ErrAnotherNodeRunning is returned when a node is marked running while a
// different node of the same run still is.
var ErrAnotherNodeRunning = errors.New("another node is already running")

// Publisher owns the status side table of one run and notifies an Observer
// after every change. At most one node can be running at a time.
type Publisher struct {
	runID    string
	store    nodestore.Store
	observer Observer
	now      func() time.Time

	mu     sync.Mutex
	active string
}

// NewPublisher creates a publisher for one run. A nil observer is replaced
// by Discard.
func NewPublisher(runID string, store nodestore.Store, observer Observer) *Publisher {
	if observer == nil {
		observer = Discard
	}
	return &Publisher{
		runID:    runID,
		store:    store,
		observer: observer,
		now:      time.Now,
	}
}

// SetStatus updates the status of exactly one node and notifies the
// observer. Marking a second node running before the first was reset fails
// with ErrAnotherNodeRunning and leaves the side table unchanged.
func (p *Publisher) SetStatus(ctx context.Context, nodeID string, s workflow.Status) error {
	p.mu.Lock()
	switch s {
	case workflow.StatusRunning:
		if p.active != "" && p.active != nodeID {
			active := p.active
			p.mu.Unlock()
			return fmt.Errorf("mark %q running: %w (%q)", nodeID, ErrAnotherNodeRunning, active)
		}
		p.active = nodeID
	case workflow.StatusIdle:
		if p.active == nodeID {
			p.active = ""
		}
	}
	err := p.store.SetStatus(ctx, nodeID, s)
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("store status of %q: %w", nodeID, err)
	}

	p.observer.NodeStatusChanged(ctx, Event{
		RunID:  p.runID,
		NodeID: nodeID,
		Status: s,
		At:     p.now(),
	})
	return nil
}

// Status returns the current status of a node.
func (p *Publisher) Status(ctx context.Context, nodeID string) (workflow.Status, error) {
	return p.store.GetStatus(ctx, nodeID)
}

// Running returns the id of the node currently marked running, if any.
func (p *Publisher) Running() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active, p.active != ""
}
