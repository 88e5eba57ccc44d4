package execution

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/specialistvlad/stepflow/internal/ctxlog"
	"github.com/specialistvlad/stepflow/internal/workflow"
)

// UnknownFunction is the function name recorded for kinds with no handler.
const UnknownFunction = "unknown_function"

// UnknownKindError is returned when no handler is registered for a kind.
type UnknownKindError struct {
	Kind workflow.Kind
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("Function not found for node type: %s", e.Kind)
}

// RegisteredHandler pairs a handler with the function name reported to
// clients when a workflow is saved.
type RegisteredHandler struct {
	Name string
	Fn   HandlerFunc
}

// Registry holds all handlers by node kind.
type Registry struct {
	mu  sync.RWMutex
	all map[workflow.Kind]*RegisteredHandler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{all: make(map[workflow.Kind]*RegisteredHandler)}
}

// Register adds a handler for kind. Registering the same kind twice is a
// programming error and panics.
func (r *Registry) Register(kind workflow.Kind, handler *RegisteredHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.all[kind]; exists {
		panic(fmt.Sprintf("execution handler for kind '%s' already registered", kind))
	}
	r.all[kind] = handler
}

// Lookup returns the handler registered for kind.
func (r *Registry) Lookup(kind workflow.Kind) (*RegisteredHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.all[kind]
	return h, ok
}

// FunctionName returns the registered function name for kind, or
// UnknownFunction.
func (r *Registry) FunctionName(kind workflow.Kind) string {
	if h, ok := r.Lookup(kind); ok {
		return h.Name
	}
	return UnknownFunction
}

// Kinds returns every registered kind, sorted.
func (r *Registry) Kinds() []workflow.Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]workflow.Kind, 0, len(r.all))
	for k := range r.all {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Execute dispatches req to the handler registered for its kind. It makes
// the registry usable directly as the engine's executor for in-process runs.
func (r *Registry) Execute(ctx context.Context, req Request) (Result, error) {
	h, ok := r.Lookup(req.NodeKind)
	if !ok {
		return nil, &UnknownKindError{Kind: req.NodeKind}
	}
	logger := ctxlog.FromContext(ctx).With("node_id", req.NodeID, "node_type", string(req.NodeKind), "function", h.Name)
	logger.Debug("Dispatching node to handler.")

	res, err := h.Fn(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", h.Name, err)
	}
	if res == nil {
		res = Result{}
	}
	return res, nil
}
