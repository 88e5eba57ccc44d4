package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/specialistvlad/stepflow/internal/ctxlog"
	"github.com/specialistvlad/stepflow/internal/engine"
	"github.com/specialistvlad/stepflow/internal/execution"
	"github.com/specialistvlad/stepflow/internal/store"
	"github.com/specialistvlad/stepflow/internal/workflow"
)

const (
	msgInvalidRequest   = "Invalid request"
	msgWorkflowNotFound = "Workflow not found"
	msgRunNotFound      = "Run not found"
)

func (s *server) handleExecuteNode(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		errorJSON(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	var req execution.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	ctx := c.Request.Context()
	logger := ctxlog.FromContext(ctx)

	res, err := s.deps.Registry.Execute(ctx, req)
	if err != nil {
		var unknown *execution.UnknownKindError
		if errors.As(err, &unknown) {
			errorJSON(c, http.StatusBadRequest, unknown.Error())
			return
		}
		logger.Warn("Node handler failed.", "node_id", req.NodeID, "node_type", string(req.NodeKind), "error", err)
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}

	body := gin.H{}
	for k, v := range res {
		body[k] = v
	}
	body["node_id"] = req.NodeID
	c.JSON(http.StatusOK, body)
}

func (s *server) handleSaveWorkflow(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		errorJSON(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	var wf workflow.Workflow
	if err := c.ShouldBindJSON(&wf); err != nil {
		errorJSON(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	if err := workflow.Validate(wf); err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}
	for i := range wf.Nodes {
		wf.Nodes[i].Function = s.deps.Registry.FunctionName(wf.Nodes[i].Kind)
	}

	rec, err := s.deps.Store.Save(c.Request.Context(), wf)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}
	ctxlog.FromContext(c.Request.Context()).Info("💾 Workflow saved.", "name", rec.Workflow.Name, "workflow_id", rec.ID, "nodes", len(wf.Nodes))
	c.JSON(http.StatusOK, gin.H{"message": "Workflow saved", "workflow_id": rec.ID})
}

func (s *server) handleLoadWorkflow(c *gin.Context) {
	name := c.DefaultQuery("name", workflow.DefaultName)
	rec, err := s.deps.Store.Load(c.Request.Context(), name)
	if errors.Is(err, store.ErrNotFound) {
		errorJSON(c, http.StatusNotFound, msgWorkflowNotFound)
		return
	}
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}
	wf := rec.Workflow
	if withDefaults, _ := strconv.ParseBool(c.Query("defaults")); withDefaults {
		wf = workflow.WithDefaultNodes(wf)
	}
	c.JSON(http.StatusOK, loadResponse{Workflow: wf, NextNodeID: workflow.NextProcessID(wf.Nodes)})
}

// loadResponse is the stored workflow plus the id an editor should give the
// next process node it adds.
type loadResponse struct {
	workflow.Workflow
	NextNodeID string `json:"next_node_id"`
}

func (s *server) handleListWorkflows(c *gin.Context) {
	entries, err := s.deps.Store.List(c.Request.Context())
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"workflows": entries})
}

// runRequest names a stored workflow or carries one inline. Nodes present
// means inline.
type runRequest struct {
	Name          string          `json:"name"`
	Nodes         []workflow.Node `json:"nodes"`
	Edges         []workflow.Edge `json:"edges"`
	MergeDefaults bool            `json:"merge_defaults"`
}

func (s *server) handleRunWorkflow(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	ctx := c.Request.Context()

	wf := workflow.Workflow{Name: req.Name, Nodes: req.Nodes, Edges: req.Edges}
	if req.Nodes == nil {
		name := req.Name
		if name == "" {
			name = workflow.DefaultName
		}
		rec, err := s.deps.Store.Load(ctx, name)
		if errors.Is(err, store.ErrNotFound) {
			errorJSON(c, http.StatusNotFound, msgWorkflowNotFound)
			return
		}
		if err != nil {
			errorJSON(c, http.StatusInternalServerError, err.Error())
			return
		}
		wf = rec.Workflow
	}
	if req.MergeDefaults {
		wf = workflow.WithDefaultNodes(wf)
	}

	summary, err := s.deps.Engine.Run(ctx, wf)
	if engine.NotStarted(err) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "summary": summary})
		return
	}
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "summary": summary})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *server) handleListRuns(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"runs": s.deps.Runs.List()})
}

func (s *server) handleGetRun(c *gin.Context) {
	summary, ok := s.deps.Runs.Get(c.Param("id"))
	if !ok {
		errorJSON(c, http.StatusNotFound, msgRunNotFound)
		return
	}
	c.JSON(http.StatusOK, summary)
}
