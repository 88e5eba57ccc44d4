package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/stepflow/internal/ctxlog"
	"github.com/specialistvlad/stepflow/internal/workflow"
)

const fileExt = ".json"

// File is a Store that writes one JSON document per workflow into a
// directory. File names are the path-escaped workflow names.
type File struct {
	dir   string
	mu    sync.Mutex
	now   func() time.Time
	newID func() string
}

var _ Store = (*File)(nil)

// NewFile creates a file store rooted at dir, creating the directory when
// it does not exist.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory %q: %w", dir, err)
	}
	return &File{dir: dir, now: time.Now, newID: uuid.NewString}, nil
}

// Dir returns the directory the store writes to.
func (f *File) Dir() string { return f.dir }

func (f *File) path(name string) string {
	return filepath.Join(f.dir, url.PathEscape(name)+fileExt)
}

func (f *File) Load(ctx context.Context, name string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read(f.path(normalizeName(name)))
}

func (f *File) read(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("read %q: %w", path, err)
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("decode %q: %w", path, err)
	}
	return r, nil
}

func (f *File) Save(ctx context.Context, wf workflow.Workflow) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	wf = wf.Clone()
	wf.Name = normalizeName(wf.Name)

	f.mu.Lock()
	defer f.mu.Unlock()

	path := f.path(wf.Name)
	now := f.now()
	r, err := f.read(path)
	switch {
	case errors.Is(err, ErrNotFound):
		r = Record{ID: f.newID(), CreatedAt: now}
	case err != nil:
		return Record{}, err
	}
	r.Workflow = wf
	r.UpdatedAt = now

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return Record{}, fmt.Errorf("encode workflow %q: %w", wf.Name, err)
	}
	// Write to a temp file first so a crash never leaves a truncated document.
	tmp, err := os.CreateTemp(f.dir, ".save-*")
	if err != nil {
		return Record{}, fmt.Errorf("save workflow %q: %w", wf.Name, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return Record{}, fmt.Errorf("save workflow %q: %w", wf.Name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return Record{}, fmt.Errorf("save workflow %q: %w", wf.Name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return Record{}, fmt.Errorf("save workflow %q: %w", wf.Name, err)
	}
	ctxlog.FromContext(ctx).Debug("Workflow written.", "name", wf.Name, "path", path)
	return r, nil
}

func (f *File) List(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	dirEntries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", f.dir, err)
	}
	var out []Entry
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), fileExt) {
			continue
		}
		r, err := f.read(filepath.Join(f.dir, de.Name()))
		if err != nil {
			ctxlog.FromContext(ctx).Warn("Skipping unreadable workflow file.", "file", de.Name(), "error", err)
			continue
		}
		out = append(out, entryOf(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
