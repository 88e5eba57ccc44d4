package definition

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/stepflow/internal/workflow"
	"gopkg.in/yaml.v3"
)

// Format names a definition file encoding.
type Format string

const (
	FormatHCL  Format = "hcl"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ErrUnsupportedFormat is returned for file extensions no decoder handles.
var ErrUnsupportedFormat = errors.New("unsupported definition format")

// FormatFromPath picks the format from the extension of path.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		return FormatHCL, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}
}

// ParseFormat converts a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatHCL, FormatYAML, FormatJSON:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// Decode parses data in the given format. filename is used in diagnostics
// and as the fallback workflow name.
func Decode(filename string, data []byte, format Format) ([]workflow.Workflow, error) {
	var (
		wfs []workflow.Workflow
		err error
	)
	switch format {
	case FormatHCL:
		wfs, err = decodeHCL(filename, data)
	case FormatYAML:
		var wf workflow.Workflow
		if err = yaml.Unmarshal(data, &wf); err == nil {
			wfs = []workflow.Workflow{wf}
		}
	case FormatJSON:
		var wf workflow.Workflow
		if err = json.Unmarshal(data, &wf); err == nil {
			wfs = []workflow.Workflow{wf}
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}

	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	for i := range wfs {
		if wfs[i].Name == "" {
			wfs[i].Name = stem
		}
		if err := workflow.Validate(wfs[i]); err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
	}
	return wfs, nil
}

// Encode renders wf in the given format.
func Encode(wf workflow.Workflow, format Format) ([]byte, error) {
	switch format {
	case FormatHCL:
		return encodeHCL(wf), nil
	case FormatYAML:
		return yaml.Marshal(wf)
	case FormatJSON:
		out, err := json.MarshalIndent(wf, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(out, '\n'), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
