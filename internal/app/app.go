package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/specialistvlad/stepflow/internal/api"
	"github.com/specialistvlad/stepflow/internal/broadcast"
	"github.com/specialistvlad/stepflow/internal/config"
	"github.com/specialistvlad/stepflow/internal/ctxlog"
	"github.com/specialistvlad/stepflow/internal/definition"
	"github.com/specialistvlad/stepflow/internal/engine"
	"github.com/specialistvlad/stepflow/internal/execution"
	"github.com/specialistvlad/stepflow/internal/runs"
	"github.com/specialistvlad/stepflow/internal/status"
	"github.com/specialistvlad/stepflow/internal/store"
	"github.com/specialistvlad/stepflow/internal/workflow"
	"golang.org/x/sync/errgroup"
)

// shutdownTimeout bounds the graceful HTTP shutdown.
const shutdownTimeout = 5 * time.Second

// App encapsulates the service's dependencies, configuration, and lifecycle.
type App struct {
	cfg       *config.Config
	logger    *slog.Logger
	registry  *execution.Registry
	store     store.Store
	engine    *engine.Engine
	runs      *runs.History
	socket    *broadcast.Server
	router    *gin.Engine
	closeExec func() error

	mu   sync.Mutex
	addr net.Addr
}

// NewApp builds every component from cfg. Logs are written to outW.
func NewApp(outW io.Writer, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger := NewLogger(cfg.Log.Level, cfg.Log.Format, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	st, err := NewStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	reg := execution.NewDefaultRegistry()
	exec, closeExec := NewExecutor(ctx, cfg.Execution, reg)

	history := runs.NewHistory(runs.DefaultLimit)
	socket := broadcast.NewServer(ctx, cfg.Server.SocketIOPath)
	caster := broadcast.New(socket)

	opts := append(EngineOptions(cfg),
		engine.WithRunListener(engine.RunListeners{history, caster}),
	)
	eng := engine.New(exec, status.Multi{caster, status.LogObserver{}}, opts...)

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(ctx, api.Deps{
		Registry:     reg,
		Store:        st,
		Engine:       eng,
		Runs:         history,
		SocketIO:     socket.Handler(),
		SocketIOPath: cfg.Server.SocketIOPath,
	})

	return &App{
		cfg:       cfg,
		logger:    logger,
		registry:  reg,
		store:     st,
		engine:    eng,
		runs:      history,
		socket:    socket,
		router:    router,
		closeExec: closeExec,
	}, nil
}

// Store returns the workflow store. This is primarily for testing.
func (a *App) Store() store.Store { return a.store }

// Addr returns the address the API listens on, or nil before Run has bound
// it.
func (a *App) Addr() net.Addr {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addr
}

// Run serves until ctx is cancelled or a component fails.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")
	defer a.close()

	ln, err := net.Listen("tcp", a.cfg.Server.Address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.cfg.Server.Address, err)
	}
	a.mu.Lock()
	a.addr = ln.Addr()
	a.mu.Unlock()

	srv := &http.Server{
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("🚀 API server starting.", "address", "http://"+ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		a.logger.Info("🛑 Shutting down API server...")
		return srv.Shutdown(shutdownCtx)
	})
	if dir := a.cfg.Import.Dir; dir != "" {
		w := definition.NewWatcher(dir, definition.SinkFunc(a.importWorkflow))
		g.Go(func() error { return w.Run(gctx) })
	}

	err = g.Wait()
	a.logger.Debug("App.Run method finished.")
	return err
}

func (a *App) importWorkflow(ctx context.Context, wf workflow.Workflow) error {
	for i := range wf.Nodes {
		wf.Nodes[i].Function = a.registry.FunctionName(wf.Nodes[i].Kind)
	}
	_, err := a.store.Save(ctx, wf)
	return err
}

func (a *App) close() {
	a.socket.Close()
	if err := a.closeExec(); err != nil {
		a.logger.Warn("Failed to close executor.", "error", err)
	}
}
