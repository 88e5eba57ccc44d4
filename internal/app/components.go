package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/stepflow/internal/client"
	"github.com/specialistvlad/stepflow/internal/config"
	"github.com/specialistvlad/stepflow/internal/ctxlog"
	"github.com/specialistvlad/stepflow/internal/engine"
	"github.com/specialistvlad/stepflow/internal/execution"
	"github.com/specialistvlad/stepflow/internal/store"
)

// NewStore opens the workflow store selected by cfg.
func NewStore(ctx context.Context, cfg config.StorageConfig) (store.Store, error) {
	logger := ctxlog.FromContext(ctx)
	switch cfg.Driver {
	case config.DriverFile:
		s, err := store.NewFile(cfg.Dir)
		if err != nil {
			return nil, err
		}
		logger.Info("🗄️ Using file workflow store.", "dir", cfg.Dir)
		return s, nil
	case config.DriverMemory, "":
		logger.Info("🗄️ Using in-memory workflow store.")
		return store.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// NewExecutor returns the executor the engine uses: the remote execution
// service when an endpoint is configured, otherwise reg in-process. The
// returned close function releases its resources.
func NewExecutor(ctx context.Context, cfg config.ExecutionConfig, reg *execution.Registry) (engine.Executor, func() error) {
	logger := ctxlog.FromContext(ctx)
	if cfg.Endpoint == "" {
		logger.Info("⚙️ Executing nodes in-process.", "kinds", len(reg.Kinds()))
		return reg, func() error { return nil }
	}
	logger.Info("⚙️ Executing nodes remotely.", "endpoint", cfg.Endpoint, "timeout", cfg.Timeout)
	c := client.NewExecution(cfg.Endpoint, cfg.Timeout)
	return c, c.Close
}

// EngineOptions translates the engine and execution settings.
func EngineOptions(cfg *config.Config) []engine.Option {
	opts := []engine.Option{engine.WithStepDelay(cfg.Engine.StepDelay)}
	if cfg.Execution.TaskInput != "" {
		opts = append(opts, engine.WithTaskInput(cfg.Execution.TaskInput))
	}
	return opts
}
