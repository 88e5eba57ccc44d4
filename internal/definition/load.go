package definition

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/specialistvlad/stepflow/internal/ctxlog"
	"github.com/specialistvlad/stepflow/internal/workflow"
)

// ReadFile decodes every workflow defined in the file at path.
func ReadFile(path string) ([]workflow.Workflow, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definition: %w", err)
	}
	return Decode(path, data, format)
}

// WriteFile encodes wf into path using the format implied by its extension.
func WriteFile(path string, wf workflow.Workflow) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := Encode(wf, format)
	if err != nil {
		return fmt.Errorf("encode workflow %q: %w", wf.Name, err)
	}
	return os.WriteFile(path, data, 0o644)
}

// FindFiles returns the supported definition files under the given paths in
// lexical order. Directories are walked recursively and paths that do not
// exist are skipped.
func FindFiles(paths ...string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	add := func(p string) {
		if _, err := FormatFromPath(p); err != nil {
			return
		}
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		files = append(files, p)
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", root, err)
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}

// Load reads every definition file under paths. It stops at the first file
// that fails to decode.
func Load(ctx context.Context, paths ...string) ([]workflow.Workflow, error) {
	logger := ctxlog.FromContext(ctx)
	files, err := FindFiles(paths...)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered definition files.", "count", len(files))

	var out []workflow.Workflow
	for _, f := range files {
		wfs, err := ReadFile(f)
		if err != nil {
			return nil, err
		}
		out = append(out, wfs...)
	}
	return out, nil
}
