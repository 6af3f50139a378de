package dag

import (
	"io"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"
)

var statusColors = map[Status]string{
	StatusSucceeded: "palegreen",
	StatusFailed:    "lightcoral",
	StatusSkipped:   "lightgrey",
}

// WriteDOT renders def as a Graphviz digraph with edges pointing from a
// dependency to its dependent. When result is non-nil, nodes are filled by
// step status.
func WriteDOT(w io.Writer, def *Definition, result *Result) error {
	p, err := newPlan(def)
	if err != nil {
		return err
	}

	g := graph.New(graph.StringHash, graph.Directed())
	for _, id := range p.order {
		attrs := []func(*graph.VertexProperties){graph.VertexAttribute("shape", "box")}
		label := id
		if desc := p.steps[id].Description; desc != "" {
			label = id + ": " + desc
		}
		attrs = append(attrs, graph.VertexAttribute("label", label))
		if result != nil {
			if sr, ok := result.StepResults[id]; ok {
				attrs = append(attrs,
					graph.VertexAttribute("style", "filled"),
					graph.VertexAttribute("fillcolor", statusColors[sr.Status]),
				)
			}
		}
		if err := g.AddVertex(id, attrs...); err != nil {
			return err
		}
	}
	for _, id := range p.order {
		for _, dep := range p.deps[id] {
			if err := g.AddEdge(dep, id); err != nil {
				return err
			}
		}
	}

	return draw.DOT(g, w, draw.GraphAttribute("rankdir", "LR"), draw.GraphAttribute("label", def.ID))
}
