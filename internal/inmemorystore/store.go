package inmemorystore

import (
	"context"
	"sync"

	"github.com/specialistvlad/stepflow/internal/nodestore"
	"github.com/specialistvlad/stepflow/internal/workflow"
)

// Store is an in-memory implementation of nodestore.Store.
type Store struct {
	states  sync.Map // Key: node id, Value: workflow.Status
	outputs sync.Map // Key: node id, Value: map[string]any
	errors  sync.Map // Key: node id, Value: error
}

// New creates a new, empty in-memory node state store.
func New() nodestore.Store {
	return &Store{}
}

// SetStatus updates the execution status of a specific node.
func (s *Store) SetStatus(ctx context.Context, id string, status workflow.Status) error {
	s.states.Store(id, status)
	return nil
}

// GetStatus retrieves the execution status of a specific node.
// If a status has not been set, it returns StatusIdle.
func (s *Store) GetStatus(ctx context.Context, id string) (workflow.Status, error) {
	status, ok := s.states.Load(id)
	if !ok {
		return workflow.StatusIdle, nil
	}
	return status.(workflow.Status), nil
}

// SetOutput records the successful output of a node.
func (s *Store) SetOutput(ctx context.Context, id string, output map[string]any) error {
	s.outputs.Store(id, output)
	return nil
}

// GetOutput retrieves the recorded output of a completed node.
func (s *Store) GetOutput(ctx context.Context, id string) (map[string]any, error) {
	output, ok := s.outputs.Load(id)
	if !ok {
		return nil, nil
	}
	return output.(map[string]any), nil
}

// SetError records the failure error of a node.
func (s *Store) SetError(ctx context.Context, id string, nodeErr error) error {
	s.errors.Store(id, nodeErr)
	return nil
}

// GetError retrieves the recorded error of a failed node.
func (s *Store) GetError(ctx context.Context, id string) (error, error) {
	err, ok := s.errors.Load(id)
	if !ok {
		return nil, nil
	}
	return err.(error), nil
}
