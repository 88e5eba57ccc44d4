package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/stepflow/internal/ctxlog"
	"github.com/specialistvlad/stepflow/internal/execution"
	"github.com/specialistvlad/stepflow/internal/graph"
	"github.com/specialistvlad/stepflow/internal/inmemorystore"
	"github.com/specialistvlad/stepflow/internal/nodestore"
	"github.com/specialistvlad/stepflow/internal/status"
	"github.com/specialistvlad/stepflow/internal/workflow"
)

// Executor performs the unit of work of one node. Implementations include
// the in-process execution.Registry and the HTTP client.Execution.
type Executor interface {
	Execute(ctx context.Context, req execution.Request) (execution.Result, error)
}

// RunListener is told when a run begins and when it reaches a terminal
// state. RunFinished receives the same Summary that Run returns.
type RunListener interface {
	RunStarted(ctx context.Context, runID, workflow string)
	RunFinished(ctx context.Context, s *Summary)
}

// RunListeners fans out to several listeners in order.
type RunListeners []RunListener

func (ls RunListeners) RunStarted(ctx context.Context, runID, workflow string) {
	for _, l := range ls {
		l.RunStarted(ctx, runID, workflow)
	}
}

func (ls RunListeners) RunFinished(ctx context.Context, s *Summary) {
	for _, l := range ls {
		l.RunFinished(ctx, s)
	}
}

// Engine walks workflows. It is safe to call Run concurrently; each run
// gets its own status side table.
type Engine struct {
	executor  Executor
	observer  status.Observer
	stepDelay time.Duration
	taskInput any
	listener  RunListener
	newRunID  func() string
	newStore  func() nodestore.Store
	now       func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithStepDelay pauses for d after a node is reset to idle and before its
// successor is resolved, so status changes stay visible to humans. It only
// affects pacing.
func WithStepDelay(d time.Duration) Option {
	return func(e *Engine) { e.stepDelay = d }
}

// WithTaskInput sets the optional task input forwarded with every request.
func WithTaskInput(v any) Option {
	return func(e *Engine) { e.taskInput = v }
}

// WithRunListener registers l for run start and finish notifications.
func WithRunListener(l RunListener) Option {
	return func(e *Engine) { e.listener = l }
}

// WithRunIDFunc replaces the run id generator.
func WithRunIDFunc(f func() string) Option {
	return func(e *Engine) { e.newRunID = f }
}

// WithStoreFactory replaces the per-run status side table constructor.
func WithStoreFactory(f func() nodestore.Store) Option {
	return func(e *Engine) { e.newStore = f }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an engine that executes nodes with executor and reports
// status changes to observer. A nil observer discards events.
func New(executor Executor, observer status.Observer, opts ...Option) *Engine {
	if observer == nil {
		observer = status.Discard
	}
	e := &Engine{
		executor: executor,
		observer: observer,
		listener: RunListeners(nil),
		newRunID: uuid.NewString,
		newStore: inmemorystore.New,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.listener == nil {
		e.listener = RunListeners(nil)
	}
	return e
}

// Run executes wf from its start node until no successor resolves.
//
// The returned Summary is never nil. The error is non-nil only when the run
// aborted: ErrEmptyGraph or ErrNoStartNode (no node was executed), a
// *CycleError, or a wrapped context error. Per-node failures do not produce
// an error here; they are reported by Summary.Failures and Summary.Err.
func (e *Engine) Run(ctx context.Context, wf workflow.Workflow) (*Summary, error) {
	r := &run{
		engine:  e,
		id:      e.newRunID(),
		store:   e.newStore(),
		visited: make(map[string]struct{}),
		state:   StateIdle,
	}
	ctx = ctxlog.WithRun(ctx, r.id, wf.Name)
	r.logger = ctxlog.FromContext(ctx)
	r.publisher = status.NewPublisher(r.id, r.store, e.observer)
	r.summary = &Summary{
		RunID:     r.id,
		Workflow:  wf.Name,
		Steps:     []Step{},
		StartedAt: e.now(),
	}

	e.listener.RunStarted(ctx, r.id, wf.Name)
	err := r.walk(ctx, wf)
	r.summary.FinishedAt = e.now()
	r.summary.State = r.state
	if err != nil {
		r.summary.Error = err.Error()
	}
	e.listener.RunFinished(context.WithoutCancel(ctx), r.summary)
	return r.summary, err
}

// run holds the state of one execution of a workflow.
type run struct {
	engine    *Engine
	id        string
	store     nodestore.Store
	publisher *status.Publisher
	logger    *slog.Logger
	summary   *Summary
	state     State
	visited   map[string]struct{}
}

func (r *run) transition(to State, args ...any) {
	r.logger.Debug("Run state transition.", append([]any{"from", r.state.String(), "to", to.String()}, args...)...)
	r.state = to
}

func (r *run) abort(reason Reason, err error) error {
	r.transition(StateAborted, "reason", string(reason))
	r.summary.Reason = reason
	r.logger.Warn("⛔ Workflow run aborted.", "reason", string(reason), "error", err)
	return err
}

func (r *run) walk(ctx context.Context, wf workflow.Workflow) error {
	r.transition(StateResolving)
	snap := graph.NewSnapshot(wf)

	if snap.Len() == 0 {
		return r.abort(ReasonEmpty, fmt.Errorf("workflow %q: %w", wf.Name, ErrEmptyGraph))
	}
	current, ok := snap.FindStart()
	if !ok {
		return r.abort(ReasonNoStart, fmt.Errorf("workflow %q: %w", wf.Name, ErrNoStartNode))
	}
	r.logger.Info("🚀 Starting workflow run.", "start_node", current.ID, "nodes", snap.Len())

	for {
		if err := ctx.Err(); err != nil {
			return r.abort(ReasonCancelled, fmt.Errorf("run cancelled before node %q: %w", current.ID, err))
		}
		if _, seen := r.visited[current.ID]; seen {
			return r.abort(ReasonCycle, &CycleError{NodeID: current.ID, Path: r.summary.Visited()})
		}
		r.visited[current.ID] = struct{}{}

		r.transition(StateRunning, "node_id", current.ID)
		r.runNode(ctx, current)

		r.transition(StateAdvancing, "node_id", current.ID)
		if ignored := snap.IgnoredEdges(current.ID); len(ignored) > 0 {
			r.logger.Warn("Node has several outgoing edges; only the first is followed.", "node_id", current.ID, "ignored", len(ignored))
		}
		r.pause(ctx)

		next, ok := snap.FindSuccessor(current.ID)
		if !ok {
			break
		}
		current = next
	}

	r.transition(StateCompleted)
	r.logger.Info("🏁 Workflow run completed.", "visited", len(r.summary.Steps), "failed", len(r.summary.Failures()))
	return nil
}

// runNode executes exactly one node: running → call → idle. The outcome is
// appended to the summary; nothing here aborts the run.
func (r *run) runNode(ctx context.Context, n workflow.Node) {
	nodeCtx := ctxlog.WithNode(ctx, n.ID, string(n.Kind))
	logger := ctxlog.FromContext(nodeCtx)
	step := Step{NodeID: n.ID, Kind: n.Kind, StartedAt: r.engine.now()}

	var res execution.Result
	err := r.publisher.SetStatus(nodeCtx, n.ID, workflow.StatusRunning)
	if err == nil {
		logger.Info("▶️ Executing node.")
		res, err = r.invoke(nodeCtx, execution.Request{NodeID: n.ID, NodeKind: n.Kind, TaskInput: r.engine.taskInput})
	}

	// The reset must happen even when ctx was cancelled during the call.
	resetCtx := context.WithoutCancel(nodeCtx)
	if resetErr := r.publisher.SetStatus(resetCtx, n.ID, workflow.StatusIdle); resetErr != nil {
		logger.Error("Failed to reset node status.", "error", resetErr)
	}
	step.Duration = r.engine.now().Sub(step.StartedAt)

	if err != nil {
		r.recordFailure(resetCtx, &step, err)
		logger.Warn("❌ Node failed, continuing with successor.", "error", step.Cause)
	} else {
		r.recordOutput(resetCtx, &step, res)
		logger.Info("✅ Node finished.")
	}
	r.summary.Steps = append(r.summary.Steps, step)
}

// recordFailure writes the node error to the side table and fills the step
// from what the table holds. The in-flight error is kept when the table
// cannot be written or read.
func (r *run) recordFailure(ctx context.Context, step *Step, err error) {
	logger := ctxlog.FromContext(ctx)
	cause := err
	if werr := r.store.SetError(ctx, step.NodeID, err); werr != nil {
		logger.Error("Failed to record node error.", "error", werr)
	} else if stored, rerr := r.store.GetError(ctx, step.NodeID); rerr != nil {
		logger.Error("Failed to read node error.", "error", rerr)
	} else if stored != nil {
		cause = stored
	}
	step.Outcome = OutcomeFailure
	step.Cause = cause
	step.Error = cause.Error()
}

// recordOutput writes the node result to the side table and fills the step
// from what the table holds. The in-flight result is kept when the table
// cannot be written or read.
func (r *run) recordOutput(ctx context.Context, step *Step, res execution.Result) {
	logger := ctxlog.FromContext(ctx)
	if werr := r.store.SetOutput(ctx, step.NodeID, res); werr != nil {
		logger.Error("Failed to record node output.", "error", werr)
	} else if stored, rerr := r.store.GetOutput(ctx, step.NodeID); rerr != nil {
		logger.Error("Failed to read node output.", "error", rerr)
	} else {
		res = stored
	}
	step.Outcome = OutcomeSuccess
	step.Result = res
}

// invoke calls the executor and turns a panic into an ordinary error so a
// misbehaving executor is recorded as a node failure.
func (r *run) invoke(ctx context.Context, req execution.Request) (res execution.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			res, err = nil, fmt.Errorf("executor panicked: %v", p)
		}
	}()
	return r.engine.executor.Execute(ctx, req)
}

func (r *run) pause(ctx context.Context) {
	if r.engine.stepDelay <= 0 {
		return
	}
	t := time.NewTimer(r.engine.stepDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
