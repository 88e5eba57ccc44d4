package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/specialistvlad/stepflow/internal/ctxlog"
	"github.com/specialistvlad/stepflow/internal/engine"
	"github.com/specialistvlad/stepflow/internal/execution"
	"github.com/specialistvlad/stepflow/internal/runs"
	"github.com/specialistvlad/stepflow/internal/store"
)

// Deps are the collaborators the handlers use. Registry, Store, Engine and
// Runs are required.
type Deps struct {
	Registry *execution.Registry
	Store    store.Store
	Engine   *engine.Engine
	Runs     *runs.History
	// SocketIO, when set, is mounted at SocketIOPath.
	SocketIO     http.Handler
	SocketIOPath string
}

type server struct {
	deps   Deps
	logger *slog.Logger
}

// NewRouter builds the gin router. The logger carried by ctx is used for
// request logs and is attached to every request context.
func NewRouter(ctx context.Context, deps Deps) *gin.Engine {
	s := &server{deps: deps, logger: ctxlog.FromContext(ctx).With("component", "api")}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())
	r.Use(cors())

	r.GET("/health", s.handleHealth)

	api := r.Group("/api")
	api.Any("/execute_node/", s.handleExecuteNode)
	api.Any("/save_workflow/", s.handleSaveWorkflow)
	api.GET("/load_workflow/", s.handleLoadWorkflow)
	api.GET("/workflows", s.handleListWorkflows)
	api.POST("/run_workflow/", s.handleRunWorkflow)
	api.GET("/runs", s.handleListRuns)
	api.GET("/runs/:id", s.handleGetRun)

	if deps.SocketIO != nil {
		path := strings.TrimSuffix(deps.SocketIOPath, "/")
		if path == "" {
			path = "/socket.io"
		}
		h := gin.WrapH(deps.SocketIO)
		r.GET(path+"/*any", h)
		r.POST(path+"/*any", h)
	}
	return r
}

// requestLogger logs every request with slog and puts a request-scoped
// logger into the request context.
func (s *server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		logger := s.logger.With("method", c.Request.Method, "path", c.Request.URL.Path)
		c.Request = c.Request.WithContext(ctxlog.WithLogger(c.Request.Context(), logger))

		c.Next()

		logger.Debug("Request handled.", "status", c.Writer.Status(), "duration", time.Since(start))
	}
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func errorJSON(c *gin.Context, code int, msg string) {
	c.JSON(code, gin.H{"error": msg})
}

func (s *server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now().Unix()})
}
