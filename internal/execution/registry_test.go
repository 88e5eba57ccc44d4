package execution

import (
	"context"
	"errors"
	"testing"

	"github.com/specialistvlad/stepflow/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_DispatchesByKind(t *testing.T) {
	r := NewDefaultRegistry()

	res, err := r.Execute(context.Background(), Request{NodeID: "process-9", NodeKind: "process-3", TaskInput: "Test Input"})
	require.NoError(t, err)
	assert.Equal(t, "Process 3 executed", res["result"])
	assert.Equal(t, "Test Input", res["input"])
	assert.Equal(t, "TEST INPUT", res["output"])
}

func TestRegistry_UnknownKind(t *testing.T) {
	r := NewDefaultRegistry()

	_, err := r.Execute(context.Background(), Request{NodeID: "x", NodeKind: "process-42"})
	require.Error(t, err)

	var unknown *UnknownKindError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, workflow.Kind("process-42"), unknown.Kind)
	assert.Equal(t, "Function not found for node type: process-42", err.Error())
}

func TestRegistry_HandlerErrorIsWrapped(t *testing.T) {
	boom := errors.New("boom")
	r := NewRegistry()
	r.Register("custom", &RegisteredHandler{Name: "custom_fn", Fn: func(context.Context, Request) (Result, error) {
		return nil, boom
	}})

	_, err := r.Execute(context.Background(), Request{NodeID: "n", NodeKind: "custom"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Contains(t, err.Error(), "custom_fn")
}

func TestRegistry_NilResultBecomesEmpty(t *testing.T) {
	r := NewRegistry()
	r.Register("quiet", &RegisteredHandler{Name: "quiet", Fn: func(context.Context, Request) (Result, error) {
		return nil, nil
	}})

	res, err := r.Execute(context.Background(), Request{NodeKind: "quiet"})
	require.NoError(t, err)
	assert.NotNil(t, res)
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := NewDefaultRegistry()
	assert.Panics(t, func() {
		r.Register(workflow.KindStart, &RegisteredHandler{Name: "again"})
	})
}

func TestRegistry_FunctionNames(t *testing.T) {
	r := NewDefaultRegistry()

	assert.Equal(t, "process_function_1", r.FunctionName("process-1"))
	assert.Equal(t, "start_function", r.FunctionName(workflow.KindStart))
	assert.Equal(t, UnknownFunction, r.FunctionName("nope"))
	assert.Len(t, r.Kinds(), ProcessCount+2)
}

func TestProcess_HonorsCancellation(t *testing.T) {
	r := NewDefaultRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Execute(ctx, Request{NodeKind: "process-1"})
	assert.True(t, errors.Is(err, context.Canceled))
}
