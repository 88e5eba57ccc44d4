// Package runs keeps the summaries of finished workflow runs in memory.
package runs

import (
	"context"
	"sort"
	"sync"

	"github.com/specialistvlad/stepflow/internal/engine"
)

// DefaultLimit is the number of summaries a History keeps when no limit is
// given.
const DefaultLimit = 100

// History is a bounded, concurrency-safe record of run summaries. When the
// limit is reached the oldest summary is evicted.
type History struct {
	mu    sync.RWMutex
	limit int
	order []string
	byID  map[string]*engine.Summary
}

var _ engine.RunListener = (*History)(nil)

// NewHistory creates a history that keeps at most limit summaries.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &History{limit: limit, byID: make(map[string]*engine.Summary)}
}

// Add records s. Adding a summary with a known run id replaces it.
func (h *History) Add(s *engine.Summary) {
	if s == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.byID[s.RunID]; !ok {
		h.order = append(h.order, s.RunID)
	}
	h.byID[s.RunID] = s
	for len(h.order) > h.limit {
		delete(h.byID, h.order[0])
		h.order = h.order[1:]
	}
}

// RunStarted implements engine.RunListener. Runs are recorded once they
// finish.
func (h *History) RunStarted(context.Context, string, string) {}

// RunFinished implements engine.RunListener.
func (h *History) RunFinished(_ context.Context, s *engine.Summary) {
	h.Add(s)
}

// Get returns the summary of one run.
func (h *History) Get(runID string) (*engine.Summary, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.byID[runID]
	return s, ok
}

// List returns the summaries, most recently started first.
func (h *History) List() []*engine.Summary {
	h.mu.RLock()
	out := make([]*engine.Summary, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, h.byID[id])
	}
	h.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out
}

// Len returns the number of summaries kept.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.order)
}
