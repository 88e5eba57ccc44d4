package client

import (
	"time"

	"resty.dev/v3"
)

// Paths served by the stepflow API.
const (
	ExecuteNodePath  = "/api/execute_node/"
	SaveWorkflowPath = "/api/save_workflow/"
	LoadWorkflowPath = "/api/load_workflow/"
)

// DefaultTimeout bounds a single request when the caller does not set one.
const DefaultTimeout = 30 * time.Second

// errorBody is the error document returned by the API.
type errorBody struct {
	Error string `json:"error"`
}

func newResty(baseURL string, timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
}

// remoteMessage extracts a human readable message from a failed response.
func remoteMessage(res *resty.Response) string {
	if e, ok := res.Error().(*errorBody); ok && e.Error != "" {
		return e.Error
	}
	if body := res.String(); body != "" {
		return body
	}
	return res.Status()
}
