// Package store persists workflows by name.
//
// Two backends exist: Memory, used by tests and the default server
// configuration, and File, which keeps one JSON document per workflow in a
// directory. Both upsert by name and keep the id assigned on first save.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/specialistvlad/stepflow/internal/workflow"
)

// ErrNotFound is returned by Load when no workflow has the requested name.
var ErrNotFound = errors.New("workflow not found")

// Record is a stored workflow together with its bookkeeping fields.
type Record struct {
	ID        string            `json:"id"`
	Workflow  workflow.Workflow `json:"workflow"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Entry describes a stored workflow without its graph.
type Entry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Nodes     int       `json:"nodes"`
	Edges     int       `json:"edges"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store loads and saves workflows by name.
type Store interface {
	// Load returns the workflow saved under name or ErrNotFound.
	Load(ctx context.Context, name string) (Record, error)
	// Save inserts wf or replaces the workflow with the same name. An empty
	// name is stored as workflow.DefaultName. The returned record carries the
	// id, which is stable across updates.
	Save(ctx context.Context, wf workflow.Workflow) (Record, error)
	// List returns every stored workflow ordered by name.
	List(ctx context.Context) ([]Entry, error)
}

func entryOf(r Record) Entry {
	return Entry{
		ID:        r.ID,
		Name:      r.Workflow.Name,
		Nodes:     len(r.Workflow.Nodes),
		Edges:     len(r.Workflow.Edges),
		UpdatedAt: r.UpdatedAt,
	}
}

func normalizeName(name string) string {
	if name == "" {
		return workflow.DefaultName
	}
	return name
}
