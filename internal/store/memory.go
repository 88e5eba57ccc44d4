package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/stepflow/internal/workflow"
)

// Memory is a Store that keeps workflows in a map. The zero value is not
// usable; call NewMemory.
type Memory struct {
	mu      sync.RWMutex
	records map[string]Record
	now     func() time.Time
	newID   func() string
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		records: make(map[string]Record),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

func (m *Memory) Load(ctx context.Context, name string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[normalizeName(name)]
	if !ok {
		return Record{}, ErrNotFound
	}
	r.Workflow = r.Workflow.Clone()
	return r, nil
}

func (m *Memory) Save(ctx context.Context, wf workflow.Workflow) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	wf = wf.Clone()
	wf.Name = normalizeName(wf.Name)

	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	r, ok := m.records[wf.Name]
	if !ok {
		r = Record{ID: m.newID(), CreatedAt: now}
	}
	r.Workflow = wf
	r.UpdatedAt = now
	m.records[wf.Name] = r

	r.Workflow = r.Workflow.Clone()
	return r, nil
}

func (m *Memory) List(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, entryOf(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
