package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/specialistvlad/stepflow/internal/ctxlog"
	"github.com/specialistvlad/stepflow/internal/store"
	"github.com/specialistvlad/stepflow/internal/workflow"
	"resty.dev/v3"
)

// PersistenceError reports a failed load or save. It stays local to the
// operation that produced it.
type PersistenceError struct {
	Op         string // "load" or "save"
	Name       string
	StatusCode int // zero when no response was received
	Message    string
	Err        error
}

func (e *PersistenceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s workflow %q: status %d: %s", e.Op, e.Name, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s workflow %q: %v", e.Op, e.Name, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Persistence loads and saves workflows through the remote API.
type Persistence struct {
	http *resty.Client
}

// NewPersistence creates a persistence client for the API at baseURL.
func NewPersistence(baseURL string, timeout time.Duration) *Persistence {
	return &Persistence{http: newResty(baseURL, timeout)}
}

// Close releases idle connections.
func (p *Persistence) Close() error {
	return p.http.Close()
}

// Load fetches the workflow saved under name. A missing workflow yields a
// *PersistenceError that matches store.ErrNotFound.
func (p *Persistence) Load(ctx context.Context, name string) (workflow.Workflow, error) {
	name = normalizeName(name)
	var wf workflow.Workflow
	res, err := p.http.R().
		SetContext(ctx).
		SetQueryParam("name", name).
		SetResult(&wf).
		SetError(&errorBody{}).
		Get(LoadWorkflowPath)
	if err != nil {
		return workflow.Workflow{}, &PersistenceError{Op: "load", Name: name, Err: err}
	}
	if res.IsError() {
		perr := &PersistenceError{Op: "load", Name: name, StatusCode: res.StatusCode(), Message: remoteMessage(res)}
		if res.StatusCode() == http.StatusNotFound {
			perr.Err = store.ErrNotFound
		} else {
			perr.Err = errors.New(perr.Message)
		}
		return workflow.Workflow{}, perr
	}
	if wf.Name == "" {
		wf.Name = name
	}
	ctxlog.FromContext(ctx).Debug("Workflow loaded.", "name", name, "nodes", len(wf.Nodes), "edges", len(wf.Edges))
	return wf, nil
}

type saveResponse struct {
	Message    string `json:"message"`
	WorkflowID string `json:"workflow_id"`
}

// Save stores wf under its name and returns the id assigned by the server.
func (p *Persistence) Save(ctx context.Context, wf workflow.Workflow) (string, error) {
	wf.Name = normalizeName(wf.Name)
	var out saveResponse
	res, err := p.http.R().
		SetContext(ctx).
		SetBody(wf).
		SetResult(&out).
		SetError(&errorBody{}).
		Post(SaveWorkflowPath)
	if err != nil {
		return "", &PersistenceError{Op: "save", Name: wf.Name, Err: err}
	}
	if res.IsError() {
		msg := remoteMessage(res)
		return "", &PersistenceError{Op: "save", Name: wf.Name, StatusCode: res.StatusCode(), Message: msg, Err: errors.New(msg)}
	}
	ctxlog.FromContext(ctx).Debug("Workflow saved.", "name", wf.Name, "workflow_id", out.WorkflowID)
	return out.WorkflowID, nil
}

func normalizeName(name string) string {
	if name == "" {
		return workflow.DefaultName
	}
	return name
}
