package definition

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/specialistvlad/stepflow/internal/workflow"
	"github.com/zclconf/go-cty/cty"
)

// hclRoot is the top level of a .hcl definition file.
type hclRoot struct {
	Workflows []*hclWorkflow `hcl:"workflow,block"`
}

type hclWorkflow struct {
	Name  string     `hcl:"name,label"`
	Nodes []*hclNode `hcl:"node,block"`
	Edges []*hclEdge `hcl:"edge,block"`
}

type hclNode struct {
	ID       string  `hcl:"id,label"`
	Kind     string  `hcl:"kind"`
	Label    string  `hcl:"label,optional"`
	X        float64 `hcl:"x,optional"`
	Y        float64 `hcl:"y,optional"`
	Function string  `hcl:"function,optional"`
}

type hclEdge struct {
	ID     string `hcl:"id,optional"`
	Source string `hcl:"source"`
	Target string `hcl:"target"`
}

func decodeHCL(filename string, data []byte) ([]workflow.Workflow, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL: %w", diags)
	}

	var root hclRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %w", diags)
	}

	out := make([]workflow.Workflow, 0, len(root.Workflows))
	for _, w := range root.Workflows {
		out = append(out, w.toWorkflow())
	}
	return out, nil
}

func (w *hclWorkflow) toWorkflow() workflow.Workflow {
	wf := workflow.Workflow{Name: w.Name, Nodes: []workflow.Node{}, Edges: []workflow.Edge{}}
	for _, n := range w.Nodes {
		wf.Nodes = append(wf.Nodes, workflow.Node{
			ID:       n.ID,
			Kind:     workflow.Kind(n.Kind),
			Data:     workflow.NodeData{Label: n.Label},
			Position: workflow.Position{X: n.X, Y: n.Y},
			Function: n.Function,
		})
	}
	for _, e := range w.Edges {
		wf.Edges = append(wf.Edges, workflow.Edge{ID: e.ID, Source: e.Source, Target: e.Target})
	}
	return wf
}

func encodeHCL(wf workflow.Workflow) []byte {
	f := hclwrite.NewEmptyFile()
	body := f.Body().AppendNewBlock("workflow", []string{wf.Name}).Body()

	for _, n := range wf.Nodes {
		nb := body.AppendNewBlock("node", []string{n.ID}).Body()
		nb.SetAttributeValue("kind", cty.StringVal(string(n.Kind)))
		if n.Data.Label != "" {
			nb.SetAttributeValue("label", cty.StringVal(n.Data.Label))
		}
		nb.SetAttributeValue("x", cty.NumberFloatVal(n.Position.X))
		nb.SetAttributeValue("y", cty.NumberFloatVal(n.Position.Y))
		if n.Function != "" {
			nb.SetAttributeValue("function", cty.StringVal(n.Function))
		}
	}
	for _, e := range wf.Edges {
		body.AppendNewline()
		eb := body.AppendNewBlock("edge", nil).Body()
		if e.ID != "" {
			eb.SetAttributeValue("id", cty.StringVal(e.ID))
		}
		eb.SetAttributeValue("source", cty.StringVal(e.Source))
		eb.SetAttributeValue("target", cty.StringVal(e.Target))
	}
	return f.Bytes()
}
