package graph

import "github.com/specialistvlad/stepflow/internal/workflow"

// Snapshot is a read-only, indexed copy of a workflow's topology.
type Snapshot struct {
	name  string
	nodes []workflow.Node
	edges []workflow.Edge

	byID     map[string]int
	outgoing map[string][]int // node id -> edge indexes in declaration order
	incoming map[string]int   // node id -> number of edges targeting it
}

// NewSnapshot copies wf and builds the lookup indexes. When several nodes
// share an id, the first declaration wins.
func NewSnapshot(wf workflow.Workflow) *Snapshot {
	c := wf.Clone()
	s := &Snapshot{
		name:     c.Name,
		nodes:    c.Nodes,
		edges:    c.Edges,
		byID:     make(map[string]int, len(c.Nodes)),
		outgoing: make(map[string][]int),
		incoming: make(map[string]int),
	}
	for i, n := range s.nodes {
		if _, exists := s.byID[n.ID]; !exists {
			s.byID[n.ID] = i
		}
	}
	for i, e := range s.edges {
		s.outgoing[e.Source] = append(s.outgoing[e.Source], i)
		s.incoming[e.Target]++
	}
	return s
}

// Name returns the workflow name the snapshot was taken from.
func (s *Snapshot) Name() string { return s.name }

// Len returns the number of declared nodes.
func (s *Snapshot) Len() int { return len(s.nodes) }

// Nodes returns the nodes in declaration order. The slice is a copy.
func (s *Snapshot) Nodes() []workflow.Node {
	out := make([]workflow.Node, len(s.nodes))
	copy(out, s.nodes)
	return out
}

// Node looks up a node by id.
func (s *Snapshot) Node(id string) (workflow.Node, bool) {
	i, ok := s.byID[id]
	if !ok {
		return workflow.Node{}, false
	}
	return s.nodes[i], true
}

// FindStart returns the first node in declaration order that has no incoming
// edge. It reports false for an empty graph and for a graph where every node
// is targeted by some edge. Neither case is an error at this level.
func (s *Snapshot) FindStart() (workflow.Node, bool) {
	for _, n := range s.nodes {
		if s.incoming[n.ID] == 0 {
			return n, true
		}
	}
	return workflow.Node{}, false
}

// FindSuccessor returns the node targeted by the first edge leaving id. Only
// that edge is considered: if its target does not resolve, there is no
// successor even when a later edge would resolve.
func (s *Snapshot) FindSuccessor(id string) (workflow.Node, bool) {
	out := s.outgoing[id]
	if len(out) == 0 {
		return workflow.Node{}, false
	}
	return s.Node(s.edges[out[0]].Target)
}

// IgnoredEdges returns the outgoing edges of id that the single-path policy
// does not follow. It exists so callers can warn about fan-out.
func (s *Snapshot) IgnoredEdges(id string) []workflow.Edge {
	out := s.outgoing[id]
	if len(out) <= 1 {
		return nil
	}
	ignored := make([]workflow.Edge, 0, len(out)-1)
	for _, i := range out[1:] {
		ignored = append(ignored, s.edges[i])
	}
	return ignored
}
