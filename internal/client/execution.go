package client

import (
	"context"
	"fmt"
	"time"

	"github.com/specialistvlad/stepflow/internal/execution"
	"resty.dev/v3"
)

// RemoteError is returned when the execution service answers with an error
// status.
type RemoteError struct {
	NodeID     string
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("execute node %q: status %d: %s", e.NodeID, e.StatusCode, e.Message)
}

// Execution calls the remote execution service. It satisfies engine.Executor.
type Execution struct {
	http *resty.Client
}

// NewExecution creates an execution client for the service at baseURL.
func NewExecution(baseURL string, timeout time.Duration) *Execution {
	return &Execution{http: newResty(baseURL, timeout)}
}

// Close releases idle connections.
func (e *Execution) Close() error {
	return e.http.Close()
}

// Execute posts one node to the execution service. The node_id echoed by the
// service is removed from the returned result.
func (e *Execution) Execute(ctx context.Context, req execution.Request) (execution.Result, error) {
	out := execution.Result{}
	res, err := e.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&errorBody{}).
		Post(ExecuteNodePath)
	if err != nil {
		return nil, fmt.Errorf("execute node %q: %w", req.NodeID, err)
	}
	if res.IsError() {
		return nil, &RemoteError{NodeID: req.NodeID, StatusCode: res.StatusCode(), Message: remoteMessage(res)}
	}
	delete(out, "node_id")
	return out, nil
}
