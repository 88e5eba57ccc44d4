package workflow

import (
	"strconv"
	"strings"
)

// DefaultNodes returns the fixed structural nodes every editor session starts
// with.
func DefaultNodes() []Node {
	return []Node{
		{ID: "start", Kind: KindStart, Data: NodeData{Label: "Start"}, Position: Position{X: 200, Y: 50}},
		{ID: "end", Kind: KindEnd, Data: NodeData{Label: "End"}, Position: Position{X: 200, Y: 400}},
	}
}

// WithDefaultNodes returns w with the structural start/end nodes prepended
// when no node with the same id is already present. Loaded nodes keep their
// relative order after the defaults.
func WithDefaultNodes(w Workflow) Workflow {
	out := w.Clone()
	present := make(map[string]struct{}, len(w.Nodes))
	for _, n := range w.Nodes {
		present[n.ID] = struct{}{}
	}

	var merged []Node
	for _, d := range DefaultNodes() {
		if _, ok := present[d.ID]; !ok {
			merged = append(merged, d)
		}
	}
	out.Nodes = append(merged, out.Nodes...)
	return out
}

// NextProcessID returns the next free "process-N" id: one more than the
// highest numeric suffix among existing process nodes, or process-1.
func NextProcessID(nodes []Node) string {
	highest := 0
	for _, n := range nodes {
		rest, ok := strings.CutPrefix(n.ID, "process-")
		if !ok {
			continue
		}
		v, err := strconv.Atoi(rest)
		if err != nil {
			continue
		}
		if v > highest {
			highest = v
		}
	}
	return "process-" + strconv.Itoa(highest+1)
}
