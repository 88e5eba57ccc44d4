package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/specialistvlad/stepflow/internal/execution"
	"github.com/specialistvlad/stepflow/internal/store"
	"github.com/specialistvlad/stepflow/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func TestExecution_Success(t *testing.T) {
	var got execution.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, ExecuteNodePath, r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusOK, map[string]any{"node_id": got.NodeID, "result": "Process 1 executed"})
	}))
	defer srv.Close()

	c := NewExecution(srv.URL, time.Second)
	defer c.Close()

	res, err := c.Execute(context.Background(), execution.Request{NodeID: "process-1", NodeKind: "process-1", TaskInput: "Test Input"})

	require.NoError(t, err)
	assert.Equal(t, execution.Result{"result": "Process 1 executed"}, res)
	assert.Equal(t, "process-1", got.NodeID)
	assert.Equal(t, workflow.Kind("process-1"), got.NodeKind)
	assert.Equal(t, "Test Input", got.TaskInput)
}

func TestExecution_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Function not found for node type: bogus"})
	}))
	defer srv.Close()

	_, err := NewExecution(srv.URL, time.Second).Execute(context.Background(), execution.Request{NodeID: "n1", NodeKind: "bogus"})

	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, http.StatusBadRequest, remote.StatusCode)
	assert.Equal(t, "Function not found for node type: bogus", remote.Message)
	assert.Equal(t, "n1", remote.NodeID)
}

func TestExecution_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewExecution(url, time.Second).Execute(context.Background(), execution.Request{NodeID: "n1"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), `execute node "n1"`)
}

func TestPersistence_SaveAndLoad(t *testing.T) {
	saved := map[string]workflow.Workflow{}
	mux := http.NewServeMux()
	mux.HandleFunc(SaveWorkflowPath, func(w http.ResponseWriter, r *http.Request) {
		var wf workflow.Workflow
		require.NoError(t, json.NewDecoder(r.Body).Decode(&wf))
		saved[wf.Name] = wf
		writeJSON(w, http.StatusOK, map[string]string{"message": "Workflow saved", "workflow_id": "wf-1"})
	})
	mux.HandleFunc(LoadWorkflowPath, func(w http.ResponseWriter, r *http.Request) {
		wf, ok := saved[r.URL.Query().Get("name")]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Workflow not found"})
			return
		}
		writeJSON(w, http.StatusOK, wf)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := NewPersistence(srv.URL, time.Second)
	defer p.Close()
	ctx := context.Background()

	wf := workflow.Workflow{
		Nodes: []workflow.Node{{ID: "a", Kind: workflow.ProcessKind(1)}, {ID: "b", Kind: workflow.ProcessKind(2)}},
		Edges: []workflow.Edge{{Source: "a", Target: "b"}},
	}
	id, err := p.Save(ctx, wf)
	require.NoError(t, err)
	assert.Equal(t, "wf-1", id)

	loaded, err := p.Load(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, workflow.DefaultName, loaded.Name)
	assert.Equal(t, []string{"a", "b"}, loaded.NodeIDs())
	assert.Equal(t, workflow.ProcessKind(2), loaded.Nodes[1].Kind)
	assert.Equal(t, wf.Edges, loaded.Edges)
}

func TestPersistence_LoadNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Workflow not found"})
	}))
	defer srv.Close()

	_, err := NewPersistence(srv.URL, time.Second).Load(context.Background(), "missing")

	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "load", perr.Op)
	assert.Equal(t, http.StatusNotFound, perr.StatusCode)
	assert.Equal(t, "Workflow not found", perr.Message)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestPersistence_SaveServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "disk full"})
	}))
	defer srv.Close()

	_, err := NewPersistence(srv.URL, time.Second).Save(context.Background(), workflow.Workflow{Name: "x"})

	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "save", perr.Op)
	assert.Equal(t, "disk full", perr.Message)
	assert.False(t, errors.Is(err, store.ErrNotFound))
}
