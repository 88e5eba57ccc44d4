package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/stepflow/internal/ctxlog"
)

// fileRoot mirrors the blocks of a configuration file. Attributes are
// decoded as strings; empty means "keep the default".
type fileRoot struct {
	Server    *serverBlock    `hcl:"server,block"`
	Storage   *storageBlock   `hcl:"storage,block"`
	Execution *executionBlock `hcl:"execution,block"`
	Engine    *engineBlock    `hcl:"engine,block"`
	Log       *logBlock       `hcl:"log,block"`
	Import    *importBlock    `hcl:"import,block"`
}

type serverBlock struct {
	Address      string `hcl:"address,optional"`
	SocketIOPath string `hcl:"socketio_path,optional"`
}

type storageBlock struct {
	Driver string `hcl:"driver,optional"`
	Dir    string `hcl:"dir,optional"`
}

type executionBlock struct {
	Endpoint  string `hcl:"endpoint,optional"`
	Timeout   string `hcl:"timeout,optional"`
	TaskInput string `hcl:"task_input,optional"`
}

type engineBlock struct {
	StepDelay string `hcl:"step_delay,optional"`
}

type logBlock struct {
	Level  string `hcl:"level,optional"`
	Format string `hcl:"format,optional"`
}

type importBlock struct {
	Dir string `hcl:"dir,optional"`
}

// Load reads the configuration file at path. An empty path returns
// Default().
func Load(ctx context.Context, path string) (*Config, error) {
	if path == "" {
		ctxlog.FromContext(ctx).Debug("No configuration file given, using defaults.")
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(path, data)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Configuration loaded.", "path", path)
	return cfg, nil
}

// Parse decodes configuration source. filename is used in diagnostics.
func Parse(filename string, src []byte) (*Config, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, evalContext(), &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	cfg := Default()
	if err := root.apply(cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return cfg, nil
}

func (r *fileRoot) apply(cfg *Config) error {
	if b := r.Server; b != nil {
		setString(&cfg.Server.Address, b.Address)
		setString(&cfg.Server.SocketIOPath, b.SocketIOPath)
	}
	if b := r.Storage; b != nil {
		setString(&cfg.Storage.Driver, b.Driver)
		setString(&cfg.Storage.Dir, b.Dir)
	}
	if b := r.Execution; b != nil {
		setString(&cfg.Execution.Endpoint, b.Endpoint)
		setString(&cfg.Execution.TaskInput, b.TaskInput)
		if err := setDuration(&cfg.Execution.Timeout, "execution.timeout", b.Timeout); err != nil {
			return err
		}
	}
	if b := r.Engine; b != nil {
		if err := setDuration(&cfg.Engine.StepDelay, "engine.step_delay", b.StepDelay); err != nil {
			return err
		}
	}
	if b := r.Log; b != nil {
		setString(&cfg.Log.Level, b.Level)
		setString(&cfg.Log.Format, b.Format)
	}
	if b := r.Import; b != nil {
		setString(&cfg.Import.Dir, b.Dir)
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, name, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*dst = d
	return nil
}

// Overrides holds values given on the command line. Empty fields leave the
// loaded configuration untouched.
type Overrides struct {
	Address   string
	LogLevel  string
	LogFormat string
}

// Apply merges o into cfg and revalidates it.
func (o Overrides) Apply(cfg *Config) error {
	setString(&cfg.Server.Address, o.Address)
	setString(&cfg.Log.Level, o.LogLevel)
	setString(&cfg.Log.Format, o.LogFormat)
	return cfg.Validate()
}
