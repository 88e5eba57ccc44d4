// Package testutil holds helpers shared by tests across packages.
package testutil

import (
	"context"
	"sync"

	"github.com/specialistvlad/stepflow/internal/execution"
	"github.com/specialistvlad/stepflow/internal/status"
	"github.com/specialistvlad/stepflow/internal/workflow"
)

// RecordingObserver keeps every status event and tracks the highest number
// of nodes that were running at the same time.
type RecordingObserver struct {
	mu         sync.Mutex
	events     []status.Event
	running    map[string]bool
	maxRunning int
}

// NodeStatusChanged implements status.Observer.
func (r *RecordingObserver) NodeStatusChanged(_ context.Context, ev status.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running == nil {
		r.running = make(map[string]bool)
	}
	r.events = append(r.events, ev)
	if ev.Status == workflow.StatusRunning {
		r.running[ev.NodeID] = true
	} else {
		delete(r.running, ev.NodeID)
	}
	if len(r.running) > r.maxRunning {
		r.maxRunning = len(r.running)
	}
}

// Events returns a copy of the recorded events.
func (r *RecordingObserver) Events() []status.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]status.Event, len(r.events))
	copy(out, r.events)
	return out
}

// MaxRunning returns the largest number of simultaneously running nodes seen.
func (r *RecordingObserver) MaxRunning() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxRunning
}

// StillRunning returns the ids of nodes that were never reset to idle.
func (r *RecordingObserver) StillRunning() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for id := range r.running {
		ids = append(ids, id)
	}
	return ids
}

// StubExecutor records every request and answers from per-node scripts.
// Nodes without a scripted failure succeed with {"result": "ok"}.
type StubExecutor struct {
	mu       sync.Mutex
	calls    []execution.Request
	Failures map[string]error
	// OnCall, when set, runs inside Execute before the answer is returned.
	OnCall func(ctx context.Context, req execution.Request)
}

// Execute implements engine.Executor.
func (s *StubExecutor) Execute(ctx context.Context, req execution.Request) (execution.Result, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	err := s.Failures[req.NodeID]
	hook := s.OnCall
	s.mu.Unlock()

	if hook != nil {
		hook(ctx, req)
	}
	if err != nil {
		return nil, err
	}
	return execution.Result{"result": "ok"}, nil
}

// Calls returns the ids of the nodes executed, in call order.
func (s *StubExecutor) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.calls))
	for _, c := range s.calls {
		ids = append(ids, c.NodeID)
	}
	return ids
}

// Requests returns a copy of every request received.
func (s *StubExecutor) Requests() []execution.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]execution.Request, len(s.calls))
	copy(out, s.calls)
	return out
}
