// Package watch subscribes to the status events a stepflow server
// broadcasts and prints them as they arrive.
package watch

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/specialistvlad/stepflow/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Event names, mirrored from the broadcasting side.
const (
	eventNodeStatus  = "node_status"
	eventRunStarted  = "run_started"
	eventRunFinished = "run_finished"
)

// DefaultConnectTimeout bounds the initial connection.
const DefaultConnectTimeout = 15 * time.Second

// Options configures a subscription.
type Options struct {
	// URL of the socket.io endpoint, e.g. http://localhost:8080/socket.io/.
	URL                string
	ConnectTimeout     time.Duration
	InsecureSkipVerify bool
	// RunID, when set, filters out events of other runs.
	RunID string
}

// Subscribe connects to the server and writes one line per event to out
// until ctx is cancelled. It fails when the first connection cannot be
// established.
func Subscribe(ctx context.Context, opts Options, out io.Writer) error {
	logger := ctxlog.FromContext(ctx).With("component", "watch", "url", opts.URL)

	parsed, err := url.Parse(opts.URL)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}

	sopts := socket.DefaultOptions()
	sopts.SetPath(parsed.Path)
	if opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		sopts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	sopts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host)
	manager := socket.NewManager(baseURL, sopts)
	client := manager.Socket("/", sopts)
	defer client.Disconnect()

	p := &printer{out: out, runID: opts.RunID}
	connected := make(chan error, 1)

	client.Once(types.EventName("connect"), func(...any) {
		logger.Info("Connected to status stream.", "sid", client.Id())
		report(connected, nil)
	})
	client.Once(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		report(connected, err)
	})
	client.On(types.EventName(eventNodeStatus), func(data ...any) { p.nodeStatus(first(data)) })
	client.On(types.EventName(eventRunStarted), func(data ...any) { p.runStarted(first(data)) })
	client.On(types.EventName(eventRunFinished), func(data ...any) { p.runFinished(first(data)) })

	client.Connect()

	select {
	case err := <-connected:
		if err != nil {
			return fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		return nil
	case <-time.After(opts.ConnectTimeout):
		return fmt.Errorf("timed out after %s waiting for socket.io connection", opts.ConnectTimeout)
	}

	<-ctx.Done()
	logger.Debug("Status stream closed.")
	return nil
}

// report hands the outcome of the connection attempt to Subscribe. Only the
// first outcome counts; later ones are dropped since nobody may be receiving.
func report(ch chan<- error, err error) {
	select {
	case ch <- err:
	default:
	}
}

func first(data []any) map[string]any {
	if len(data) == 0 {
		return nil
	}
	m, _ := data[0].(map[string]any)
	return m
}

// printer renders events. Callbacks may arrive on different goroutines.
type printer struct {
	mu    sync.Mutex
	out   io.Writer
	runID string
}

func (p *printer) skip(m map[string]any) bool {
	if m == nil {
		return true
	}
	return p.runID != "" && str(m, "run_id") != p.runID
}

func (p *printer) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format, args...)
}

func (p *printer) nodeStatus(m map[string]any) {
	if p.skip(m) {
		return
	}
	p.printf("[%s] node %s %s\n", short(str(m, "run_id")), str(m, "node_id"), str(m, "status"))
}

func (p *printer) runStarted(m map[string]any) {
	if p.skip(m) {
		return
	}
	p.printf("[%s] run started: %s\n", short(str(m, "run_id")), str(m, "workflow"))
}

func (p *printer) runFinished(m map[string]any) {
	if p.skip(m) {
		return
	}
	failed := 0
	steps, _ := m["steps"].([]any)
	for _, s := range steps {
		if step, ok := s.(map[string]any); ok && str(step, "outcome") == "failure" {
			failed++
		}
	}
	line := fmt.Sprintf("[%s] run %s: %d visited, %d failed", short(str(m, "run_id")), str(m, "state"), len(steps), failed)
	if reason := str(m, "reason"); reason != "" {
		line += " (" + reason + ")"
	}
	p.printf("%s\n", line)
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
