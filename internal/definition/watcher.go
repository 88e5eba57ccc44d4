package definition

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/specialistvlad/stepflow/internal/ctxlog"
	"github.com/specialistvlad/stepflow/internal/workflow"
)

// DefaultDebounce is how long the watcher waits after the last change to a
// file before importing it.
const DefaultDebounce = 300 * time.Millisecond

// Sink receives every workflow the watcher imports.
type Sink interface {
	Save(ctx context.Context, wf workflow.Workflow) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, wf workflow.Workflow) error

func (f SinkFunc) Save(ctx context.Context, wf workflow.Workflow) error { return f(ctx, wf) }

// Watcher imports definition files from a directory into a Sink, first all
// at once and then whenever a file is created or written.
type Watcher struct {
	dir      string
	sink     Sink
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// NewWatcher creates a watcher for dir.
func NewWatcher(dir string, sink Sink) *Watcher {
	return &Watcher{dir: dir, sink: sink, debounce: DefaultDebounce, pending: make(map[string]*time.Timer)}
}

// SetDebounce overrides DefaultDebounce.
func (w *Watcher) SetDebounce(d time.Duration) { w.debounce = d }

// ImportAll imports every definition file currently in the directory and
// returns how many workflows were saved. Broken files are logged and
// skipped.
func (w *Watcher) ImportAll(ctx context.Context) (int, error) {
	files, err := FindFiles(w.dir)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, f := range files {
		n, err := w.importFile(ctx, f)
		if err != nil {
			ctxlog.FromContext(ctx).Warn("Skipping definition file.", "file", f, "error", err)
			continue
		}
		total += n
	}
	return total, nil
}

func (w *Watcher) importFile(ctx context.Context, path string) (int, error) {
	wfs, err := ReadFile(path)
	if err != nil {
		return 0, err
	}
	for _, wf := range wfs {
		if err := w.sink.Save(ctx, wf); err != nil {
			return 0, fmt.Errorf("import workflow %q: %w", wf.Name, err)
		}
	}
	ctxlog.FromContext(ctx).Info("📥 Imported definition file.", "file", path, "workflows", len(wfs))
	return len(wfs), nil
}

// Run performs the initial import and then watches the directory until ctx
// is cancelled. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx).With("component", "definition_watcher", "dir", w.dir)
	ctx = ctxlog.WithLogger(ctx, logger)

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create import directory: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()
	if err := w.addRecursive(fw, w.dir); err != nil {
		return err
	}

	n, err := w.ImportAll(ctx)
	if err != nil {
		return err
	}
	logger.Info("Watching definition directory.", "imported", n)

	defer w.stopPending()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = w.addRecursive(fw, ev.Name)
					continue
				}
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				w.schedule(ctx, ev.Name)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Error("Watcher error.", "error", err)
		}
	}
}

func (w *Watcher) addRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fw.Add(p)
		}
		return nil
	})
}

func (w *Watcher) schedule(ctx context.Context, path string) {
	if _, err := FormatFromPath(path); errors.Is(err, ErrUnsupportedFormat) {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		if _, err := w.importFile(ctx, path); err != nil {
			ctxlog.FromContext(ctx).Warn("Failed to import definition file.", "file", path, "error", err)
		}
	})
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for p, t := range w.pending {
		t.Stop()
		delete(w.pending, p)
	}
}
