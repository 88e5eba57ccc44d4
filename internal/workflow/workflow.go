// Package workflow defines the graph model shared by the editor, persistence
// and the execution engine. Types here are plain data: they carry no runtime
// state and no behavior beyond small helpers.
package workflow

import "strconv"

// DefaultName is the workflow name used when a caller does not provide one.
const DefaultName = "Untitled Workflow"

// Kind selects which handler the execution service dispatches a node to.
type Kind string

const (
	KindStart Kind = "start"
	KindEnd   Kind = "end"
)

// ProcessKind returns the kind of the n-th process handler, e.g. "process-3".
func ProcessKind(n int) Kind {
	return Kind("process-" + strconv.Itoa(n))
}

// Position is the editor canvas coordinate of a node. The engine ignores it.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// NodeData holds the presentation fields the editor keeps under "data".
type NodeData struct {
	Label string `json:"label" yaml:"label,omitempty"`
}

// Node is a single step of a workflow. The JSON shape matches the editor's
// node records so that saved documents can be handed back unchanged.
type Node struct {
	ID       string   `json:"id" yaml:"id"`
	Kind     Kind     `json:"nodeType" yaml:"kind"`
	Data     NodeData `json:"data" yaml:"data,omitempty"`
	Position Position `json:"position" yaml:"position,omitempty"`
	// Function is the name of the handler the node resolved to when it was
	// saved. It is informational and recomputed on every save.
	Function string `json:"function,omitempty" yaml:"function,omitempty"`
}

// Label returns the display label of the node.
func (n Node) Label() string {
	return n.Data.Label
}

// Edge is a directed link from Source to Target.
type Edge struct {
	ID     string `json:"id,omitempty" yaml:"id,omitempty"`
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

// Workflow is a named set of nodes and edges. Declaration order of both
// slices is significant: it decides which start node and which outgoing edge
// the engine follows when several qualify.
type Workflow struct {
	Name  string `json:"name" yaml:"name"`
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`
}

// Clone returns a deep copy of w so callers can hand out snapshots without
// sharing backing arrays.
func (w Workflow) Clone() Workflow {
	out := Workflow{Name: w.Name}
	if w.Nodes != nil {
		out.Nodes = make([]Node, len(w.Nodes))
		copy(out.Nodes, w.Nodes)
	}
	if w.Edges != nil {
		out.Edges = make([]Edge, len(w.Edges))
		copy(out.Edges, w.Edges)
	}
	return out
}

// NodeIDs returns the ids of all nodes in declaration order.
func (w Workflow) NodeIDs() []string {
	ids := make([]string, 0, len(w.Nodes))
	for _, n := range w.Nodes {
		ids = append(ids, n.ID)
	}
	return ids
}
