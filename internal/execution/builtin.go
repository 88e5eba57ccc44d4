package execution

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/stepflow/internal/workflow"
)

// ProcessCount is the number of built-in process handlers.
const ProcessCount = 6

// RegisterBuiltins adds the structural start/end handlers and the built-in
// process-1 … process-N handlers to r.
func RegisterBuiltins(r *Registry) {
	r.Register(workflow.KindStart, &RegisteredHandler{Name: "start_function", Fn: structural("Workflow started")})
	r.Register(workflow.KindEnd, &RegisteredHandler{Name: "end_function", Fn: structural("Workflow finished")})
	for i := 1; i <= ProcessCount; i++ {
		r.Register(workflow.ProcessKind(i), &RegisteredHandler{
			Name: fmt.Sprintf("process_function_%d", i),
			Fn:   process(i),
		})
	}
}

// NewDefaultRegistry returns a registry with the built-ins registered.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterBuiltins(r)
	return r
}

func structural(message string) HandlerFunc {
	return func(ctx context.Context, req Request) (Result, error) {
		return Result{"result": message}, nil
	}
}

// process returns the handler for process-n. It reports what it did and
// echoes the task input back so callers can see it arrived.
func process(n int) HandlerFunc {
	return func(ctx context.Context, req Request) (Result, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res := Result{"result": fmt.Sprintf("Process %d executed", n)}
		if req.TaskInput != nil {
			res["input"] = req.TaskInput
			if s, ok := req.TaskInput.(string); ok {
				res["output"] = strings.ToUpper(s)
			}
		}
		return res, nil
	}
}
