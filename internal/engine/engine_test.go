package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/specialistvlad/stepflow/internal/ctxlog"
	"github.com/specialistvlad/stepflow/internal/execution"
	"github.com/specialistvlad/stepflow/internal/inmemorystore"
	"github.com/specialistvlad/stepflow/internal/nodestore"
	"github.com/specialistvlad/stepflow/internal/status"
	"github.com/specialistvlad/stepflow/internal/testutil"
	"github.com/specialistvlad/stepflow/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newWorkflow builds a workflow whose nodes are declared in the given order
// and whose edges are given as source/target pairs.
func newWorkflow(nodes []string, edges ...[2]string) workflow.Workflow {
	wf := workflow.Workflow{Name: "test"}
	for _, id := range nodes {
		wf.Nodes = append(wf.Nodes, workflow.Node{ID: id, Kind: workflow.Kind("kind-" + id)})
	}
	for _, e := range edges {
		wf.Edges = append(wf.Edges, workflow.Edge{Source: e[0], Target: e[1]})
	}
	return wf
}

func newEngine(exec Executor, obs status.Observer, opts ...Option) *Engine {
	seq := 0
	opts = append([]Option{WithRunIDFunc(func() string {
		seq++
		return "run-" + string(rune('0'+seq))
	})}, opts...)
	return New(exec, obs, opts...)
}

func TestRun_EmptyGraph(t *testing.T) {
	exec := &testutil.StubExecutor{}
	obs := &testutil.RecordingObserver{}

	summary, err := newEngine(exec, obs).Run(context.Background(), workflow.Workflow{Name: "empty"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyGraph))
	assert.True(t, NotStarted(err))
	require.NotNil(t, summary)
	assert.Equal(t, StateAborted, summary.State)
	assert.Equal(t, ReasonEmpty, summary.Reason)
	assert.False(t, summary.Started())
	assert.Empty(t, exec.Calls())
	assert.Empty(t, obs.Events())
}

func TestRun_NoStartNode(t *testing.T) {
	exec := &testutil.StubExecutor{}
	obs := &testutil.RecordingObserver{}
	wf := newWorkflow([]string{"A", "B"}, [2]string{"A", "B"}, [2]string{"B", "A"})

	summary, err := newEngine(exec, obs).Run(context.Background(), wf)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoStartNode))
	assert.True(t, NotStarted(err))
	assert.Equal(t, ReasonNoStart, summary.Reason)
	assert.False(t, summary.Started())
	assert.Empty(t, exec.Calls())
}

func TestRun_LinearChainInOrder(t *testing.T) {
	exec := &testutil.StubExecutor{}
	obs := &testutil.RecordingObserver{}
	// Declaration order differs from path order.
	wf := newWorkflow([]string{"C", "B", "A"}, [2]string{"B", "C"}, [2]string{"A", "B"})

	summary, err := newEngine(exec, obs, WithTaskInput("Test Input")).Run(context.Background(), wf)

	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, exec.Calls())
	assert.Equal(t, []string{"A", "B", "C"}, summary.Visited())
	assert.Equal(t, StateCompleted, summary.State)
	assert.True(t, summary.Succeeded())
	assert.NoError(t, summary.Err())

	reqs := exec.Requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, workflow.Kind("kind-A"), reqs[0].NodeKind)
	assert.Equal(t, "Test Input", reqs[0].TaskInput)
	assert.Equal(t, execution.Result{"result": "ok"}, summary.Steps[2].Result)
}

func TestRun_AtMostOneNodeRunning(t *testing.T) {
	obs := &testutil.RecordingObserver{}
	exec := &testutil.StubExecutor{}
	var seenRunning []string
	exec.OnCall = func(ctx context.Context, req execution.Request) {
		// While a call is in flight exactly this node must be running.
		evs := obs.Events()
		last := evs[len(evs)-1]
		assert.Equal(t, req.NodeID, last.NodeID)
		assert.Equal(t, workflow.StatusRunning, last.Status)
		seenRunning = append(seenRunning, last.NodeID)
	}
	wf := newWorkflow([]string{"A", "B", "C", "D"}, [2]string{"A", "B"}, [2]string{"B", "C"}, [2]string{"C", "D"})

	_, err := newEngine(exec, obs).Run(context.Background(), wf)

	require.NoError(t, err)
	assert.Equal(t, 1, obs.MaxRunning())
	assert.Empty(t, obs.StillRunning())
	assert.Equal(t, []string{"A", "B", "C", "D"}, seenRunning)

	// running/idle pairs strictly alternate per node.
	evs := obs.Events()
	require.Len(t, evs, 8)
	for i := 0; i < len(evs); i += 2 {
		assert.Equal(t, workflow.StatusRunning, evs[i].Status)
		assert.Equal(t, workflow.StatusIdle, evs[i+1].Status)
		assert.Equal(t, evs[i].NodeID, evs[i+1].NodeID)
		assert.Equal(t, "run-1", evs[i].RunID)
	}
}

func TestRun_FailureDoesNotStopTraversal(t *testing.T) {
	remoteErr := errors.New("remote returned 500")
	exec := &testutil.StubExecutor{Failures: map[string]error{"B": remoteErr}}
	obs := &testutil.RecordingObserver{}
	wf := newWorkflow([]string{"A", "B", "C"}, [2]string{"A", "B"}, [2]string{"B", "C"})

	summary, err := newEngine(exec, obs).Run(context.Background(), wf)

	require.NoError(t, err, "per-node failures must not abort the run")
	assert.Equal(t, []string{"A", "B", "C"}, exec.Calls())
	assert.Equal(t, StateCompleted, summary.State)
	assert.False(t, summary.Succeeded())

	require.Len(t, summary.Steps, 3)
	assert.Equal(t, OutcomeSuccess, summary.Steps[0].Outcome)
	assert.Equal(t, OutcomeFailure, summary.Steps[1].Outcome)
	assert.Equal(t, "remote returned 500", summary.Steps[1].Error)
	assert.Equal(t, OutcomeSuccess, summary.Steps[2].Outcome)

	failures := summary.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, "B", failures[0].NodeID)

	runErr := summary.Err()
	require.Error(t, runErr)
	var nodeErr *NodeExecutionError
	require.True(t, errors.As(runErr, &nodeErr))
	assert.Equal(t, "B", nodeErr.NodeID)
	assert.True(t, errors.Is(runErr, remoteErr))

	// B is reset even though its call failed.
	assert.Empty(t, obs.StillRunning())
}

type panickingExecutor struct{}

func (panickingExecutor) Execute(context.Context, execution.Request) (execution.Result, error) {
	panic("handler exploded")
}

func TestRun_ExecutorPanicIsRecorded(t *testing.T) {
	obs := &testutil.RecordingObserver{}
	wf := newWorkflow([]string{"A", "B"}, [2]string{"A", "B"})

	summary, err := newEngine(panickingExecutor{}, obs).Run(context.Background(), wf)

	require.NoError(t, err)
	require.Len(t, summary.Failures(), 2)
	assert.Contains(t, summary.Steps[0].Error, "handler exploded")
	assert.Empty(t, obs.StillRunning())
}

func TestRun_CycleIsDetected(t *testing.T) {
	exec := &testutil.StubExecutor{}
	obs := &testutil.RecordingObserver{}
	wf := newWorkflow([]string{"S", "A", "B"}, [2]string{"S", "A"}, [2]string{"A", "B"}, [2]string{"B", "A"})

	summary, err := newEngine(exec, obs).Run(context.Background(), wf)

	require.Error(t, err)
	var cycleErr *CycleError
	require.True(t, errors.As(err, &cycleErr))
	assert.Equal(t, "A", cycleErr.NodeID)
	assert.Equal(t, []string{"S", "A", "B"}, cycleErr.Path)
	assert.False(t, NotStarted(err))

	assert.Equal(t, []string{"S", "A", "B"}, exec.Calls(), "each node runs at most once")
	assert.Equal(t, StateAborted, summary.State)
	assert.Equal(t, ReasonCycle, summary.Reason)
	assert.True(t, summary.Started())
}

func TestRun_SelfLoop(t *testing.T) {
	exec := &testutil.StubExecutor{}
	wf := newWorkflow([]string{"S", "A"}, [2]string{"S", "A"}, [2]string{"A", "A"})

	_, err := newEngine(exec, nil).Run(context.Background(), wf)

	var cycleErr *CycleError
	require.True(t, errors.As(err, &cycleErr))
	assert.Equal(t, []string{"S", "A"}, exec.Calls())
}

func TestRun_DanglingEdgeCompletes(t *testing.T) {
	exec := &testutil.StubExecutor{}
	wf := newWorkflow([]string{"A"}, [2]string{"A", "ghost"})

	summary, err := newEngine(exec, nil).Run(context.Background(), wf)

	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, exec.Calls())
	assert.Equal(t, StateCompleted, summary.State)
}

func TestRun_FollowsOnlyFirstOutgoingEdge(t *testing.T) {
	exec := &testutil.StubExecutor{}
	wf := newWorkflow([]string{"A", "B", "C"}, [2]string{"A", "C"}, [2]string{"A", "B"})

	_, err := newEngine(exec, nil).Run(context.Background(), wf)

	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, exec.Calls())
}

func TestRun_CancelledBetweenNodes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	obs := &testutil.RecordingObserver{}
	exec := &testutil.StubExecutor{OnCall: func(_ context.Context, req execution.Request) {
		if req.NodeID == "A" {
			cancel()
		}
	}}
	wf := newWorkflow([]string{"A", "B"}, [2]string{"A", "B"})

	summary, err := newEngine(exec, obs).Run(ctx, wf)

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, ReasonCancelled, summary.Reason)
	assert.Equal(t, []string{"A"}, exec.Calls())
	assert.Empty(t, obs.StillRunning(), "A must be reset even after cancellation")
}

func TestRun_SnapshotIgnoresConcurrentEdits(t *testing.T) {
	wf := newWorkflow([]string{"A", "B", "C"}, [2]string{"A", "B"}, [2]string{"B", "C"})
	exec := &testutil.StubExecutor{OnCall: func(_ context.Context, req execution.Request) {
		if req.NodeID == "A" {
			// An editor rewiring the graph mid-run must not change the path.
			wf.Edges[1].Target = "A"
			wf.Nodes = wf.Nodes[:1]
		}
	}}

	summary, err := newEngine(exec, nil).Run(context.Background(), wf)

	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, summary.Visited())
}

func TestRun_StepDelayPacesTheRun(t *testing.T) {
	exec := &testutil.StubExecutor{}
	wf := newWorkflow([]string{"A", "B", "C"}, [2]string{"A", "B"}, [2]string{"B", "C"})

	start := time.Now()
	summary, err := newEngine(exec, nil, WithStepDelay(10*time.Millisecond)).Run(context.Background(), wf)

	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, summary.Visited())
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestRun_ConcurrentRunsAreIndependent(t *testing.T) {
	exec := &testutil.StubExecutor{}
	eng := New(exec, nil)
	wf := newWorkflow([]string{"A", "B"}, [2]string{"A", "B"})

	var wg sync.WaitGroup
	summaries := make([]*Summary, 8)
	for i := range summaries {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := eng.Run(context.Background(), wf)
			assert.NoError(t, err)
			summaries[i] = s
		}(i)
	}
	wg.Wait()

	ids := map[string]struct{}{}
	for _, s := range summaries {
		require.NotNil(t, s)
		assert.Equal(t, []string{"A", "B"}, s.Visited())
		ids[s.RunID] = struct{}{}
	}
	assert.Len(t, ids, len(summaries), "run ids must be unique")
	assert.Len(t, exec.Calls(), 16)
}

type recordingListener struct {
	mu       sync.Mutex
	started  []string
	finished []*Summary
}

func (l *recordingListener) RunStarted(_ context.Context, runID, _ string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.started = append(l.started, runID)
}

func (l *recordingListener) RunFinished(_ context.Context, s *Summary) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.finished = append(l.finished, s)
}

func TestRun_NotifiesRunListeners(t *testing.T) {
	first, second := &recordingListener{}, &recordingListener{}
	eng := newEngine(&testutil.StubExecutor{}, nil, WithRunListener(RunListeners{first, second}))

	ok, err := eng.Run(context.Background(), newWorkflow([]string{"A"}))
	require.NoError(t, err)
	aborted, err := eng.Run(context.Background(), workflow.Workflow{})
	require.Error(t, err)

	for _, l := range []*recordingListener{first, second} {
		assert.Equal(t, []string{ok.RunID, aborted.RunID}, l.started)
		require.Len(t, l.finished, 2)
		assert.Same(t, ok, l.finished[0])
		assert.Equal(t, StateAborted, l.finished[1].State)
	}
}

func TestSummary_TextEncodings(t *testing.T) {
	b, err := StateCompleted.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "completed", string(b))
	assert.True(t, StateAborted.Terminal())
	assert.False(t, StateAdvancing.Terminal())

	b, err = OutcomeFailure.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "failure", string(b))

	var st State
	require.NoError(t, st.UnmarshalText([]byte("aborted")))
	assert.Equal(t, StateAborted, st)
	assert.Error(t, st.UnmarshalText([]byte("exploded")))

	var o Outcome
	require.NoError(t, o.UnmarshalText([]byte("success")))
	assert.Equal(t, OutcomeSuccess, o)
}

// sideTable wraps the in-memory node store. Writes fail with writeErr when it
// is set; reads mark what they return so tests can tell where a step's data
// came from.
type sideTable struct {
	nodestore.Store
	writeErr error
}

func (s *sideTable) SetOutput(ctx context.Context, id string, output map[string]any) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	return s.Store.SetOutput(ctx, id, output)
}

func (s *sideTable) GetOutput(ctx context.Context, id string) (map[string]any, error) {
	out, err := s.Store.GetOutput(ctx, id)
	if err != nil || out == nil {
		return out, err
	}
	marked := map[string]any{"stored": true}
	for k, v := range out {
		marked[k] = v
	}
	return marked, nil
}

func (s *sideTable) SetError(ctx context.Context, id string, nodeErr error) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	return s.Store.SetError(ctx, id, nodeErr)
}

func (s *sideTable) GetError(ctx context.Context, id string) (error, error) {
	nodeErr, err := s.Store.GetError(ctx, id)
	if err != nil || nodeErr == nil {
		return nodeErr, err
	}
	return fmt.Errorf("stored: %w", nodeErr), nil
}

func TestRun_StepsAreFilledFromSideTable(t *testing.T) {
	remoteErr := errors.New("remote said no")
	exec := &testutil.StubExecutor{Failures: map[string]error{"B": remoteErr}}
	table := &sideTable{Store: inmemorystore.New()}
	wf := newWorkflow([]string{"A", "B"}, [2]string{"A", "B"})

	summary, err := newEngine(exec, &testutil.RecordingObserver{},
		WithStoreFactory(func() nodestore.Store { return table }),
	).Run(context.Background(), wf)

	require.NoError(t, err)
	require.Len(t, summary.Steps, 2)
	assert.Equal(t, execution.Result{"stored": true, "result": "ok"}, summary.Steps[0].Result)
	assert.Equal(t, "stored: remote said no", summary.Steps[1].Error)
	assert.True(t, errors.Is(summary.Steps[1].Cause, remoteErr))
}

func TestRun_SideTableWriteFailureIsLogged(t *testing.T) {
	logs := &testutil.SafeBuffer{}
	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(logs, nil)))
	exec := &testutil.StubExecutor{Failures: map[string]error{"B": errors.New("boom")}}
	table := &sideTable{Store: inmemorystore.New(), writeErr: errors.New("disk full")}
	wf := newWorkflow([]string{"A", "B"}, [2]string{"A", "B"})

	summary, err := newEngine(exec, &testutil.RecordingObserver{},
		WithStoreFactory(func() nodestore.Store { return table }),
	).Run(ctx, wf)

	require.NoError(t, err)
	require.Len(t, summary.Steps, 2)
	// The in-flight values survive a failed write.
	assert.Equal(t, execution.Result{"result": "ok"}, summary.Steps[0].Result)
	assert.Equal(t, "boom", summary.Steps[1].Error)

	out := logs.String()
	assert.Contains(t, out, "Failed to record node output.")
	assert.Contains(t, out, "Failed to record node error.")
	assert.Contains(t, out, "disk full")
}
