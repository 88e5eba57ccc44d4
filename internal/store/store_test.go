package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/stepflow/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleWorkflow(name string) workflow.Workflow {
	return workflow.Workflow{
		Name: name,
		Nodes: []workflow.Node{
			{ID: "start", Kind: workflow.KindStart, Data: workflow.NodeData{Label: "Start"}, Position: workflow.Position{X: 200, Y: 50}},
			{ID: "process-1", Kind: workflow.ProcessKind(1), Data: workflow.NodeData{Label: "Process 1"}, Position: workflow.Position{X: 200, Y: 150}},
			{ID: "end", Kind: workflow.KindEnd, Data: workflow.NodeData{Label: "End"}, Position: workflow.Position{X: 200, Y: 400}},
		},
		Edges: []workflow.Edge{
			{ID: "e1", Source: "start", Target: "process-1"},
			{ID: "e2", Source: "process-1", Target: "end"},
		},
	}
}

// backends runs the same behavioral tests against every Store.
func backends(t *testing.T) map[string]func(t *testing.T) Store {
	t.Helper()
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemory() },
		"file": func(t *testing.T) Store {
			s, err := NewFile(t.TempDir())
			require.NoError(t, err)
			return s
		},
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			wf := sampleWorkflow("pipeline")

			saved, err := s.Save(ctx, wf)
			require.NoError(t, err)
			require.NotEmpty(t, saved.ID)

			loaded, err := s.Load(ctx, "pipeline")
			require.NoError(t, err)
			assert.Equal(t, saved.ID, loaded.ID)
			if diff := cmp.Diff(wf, loaded.Workflow); diff != "" {
				t.Errorf("loaded workflow mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStore_SaveUpsertsByName(t *testing.T) {
	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			first, err := s.Save(ctx, sampleWorkflow("pipeline"))
			require.NoError(t, err)

			updated := sampleWorkflow("pipeline")
			updated.Edges = updated.Edges[:1]
			second, err := s.Save(ctx, updated)
			require.NoError(t, err)

			assert.Equal(t, first.ID, second.ID, "id must survive an update")
			assert.True(t, first.CreatedAt.Equal(second.CreatedAt))

			loaded, err := s.Load(ctx, "pipeline")
			require.NoError(t, err)
			assert.Len(t, loaded.Workflow.Edges, 1)

			entries, err := s.List(ctx)
			require.NoError(t, err)
			assert.Len(t, entries, 1)
		})
	}
}

func TestStore_DefaultName(t *testing.T) {
	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			rec, err := s.Save(ctx, sampleWorkflow(""))
			require.NoError(t, err)
			assert.Equal(t, workflow.DefaultName, rec.Workflow.Name)

			loaded, err := s.Load(ctx, "")
			require.NoError(t, err)
			assert.Equal(t, rec.ID, loaded.ID)
		})
	}
}

func TestStore_LoadMissing(t *testing.T) {
	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := newStore(t).Load(context.Background(), "nope")
			assert.True(t, errors.Is(err, ErrNotFound))
		})
	}
}

func TestStore_ListSortedByName(t *testing.T) {
	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			for _, n := range []string{"zeta", "alpha", "with/slash"} {
				_, err := s.Save(ctx, sampleWorkflow(n))
				require.NoError(t, err)
			}

			entries, err := s.List(ctx)
			require.NoError(t, err)
			var names []string
			for _, e := range entries {
				names = append(names, e.Name)
				assert.Equal(t, 3, e.Nodes)
				assert.Equal(t, 2, e.Edges)
			}
			assert.Equal(t, []string{"alpha", "with/slash", "zeta"}, names)
		})
	}
}

func TestStore_CancelledContext(t *testing.T) {
	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := newStore(t).Save(ctx, sampleWorkflow("x"))
			assert.ErrorIs(t, err, context.Canceled)
		})
	}
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	_, err := s.Save(ctx, sampleWorkflow("pipeline"))
	require.NoError(t, err)

	loaded, err := s.Load(ctx, "pipeline")
	require.NoError(t, err)
	loaded.Workflow.Nodes[0].ID = "mutated"

	again, err := s.Load(ctx, "pipeline")
	require.NoError(t, err)
	assert.Equal(t, "start", again.Workflow.Nodes[0].ID)
}

func TestFile_SkipsCorruptDocuments(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFile(dir)
	require.NoError(t, err)
	_, err = s.Save(ctx, sampleWorkflow("good"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	entries, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "good", entries[0].Name)

	_, err = s.Load(ctx, "bad")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}
