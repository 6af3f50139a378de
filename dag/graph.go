package dag

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/dominikbraun/graph"

	"github.com/kbukum/abcompare/errors"
)

// plan is a validated Definition ready to execute.
type plan struct {
	def        *Definition
	steps      map[string]Step
	index      map[string]int
	deps       map[string][]string
	dependents map[string][]string
	order      []string
	graph      graph.Graph[string, string]
}

// Validate checks that def has unique, non-empty step ids, that every
// dependency names a known step other than itself, and that the dependency
// graph is acyclic.
func Validate(def *Definition) error {
	_, err := newPlan(def)
	return err
}

// Order returns the deterministic execution order of def: dependencies
// first, ties broken by declaration order.
func Order(def *Definition) ([]string, error) {
	p, err := newPlan(def)
	if err != nil {
		return nil, err
	}
	return p.order, nil
}

func newPlan(def *Definition) (*plan, error) {
	if def == nil {
		return nil, errors.InvalidPipeline("", "definition is nil")
	}

	p := &plan{
		def:        def,
		steps:      make(map[string]Step, len(def.Steps)),
		index:      make(map[string]int, len(def.Steps)),
		deps:       make(map[string][]string, len(def.Steps)),
		dependents: make(map[string][]string, len(def.Steps)),
		graph:      graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles()),
	}

	for i, s := range def.Steps {
		if strings.TrimSpace(s.ID) == "" {
			return nil, errors.InvalidPipeline(def.ID, fmt.Sprintf("step #%d has an empty id", i+1))
		}
		if _, dup := p.steps[s.ID]; dup {
			return nil, errors.InvalidPipeline(def.ID, fmt.Sprintf("duplicate step id %q", s.ID))
		}
		p.steps[s.ID] = s
		p.index[s.ID] = i
		if err := p.graph.AddVertex(s.ID, graph.VertexAttribute("label", s.ID)); err != nil {
			return nil, errors.InvalidPipeline(def.ID, err.Error())
		}
	}

	for _, s := range def.Steps {
		seen := make(map[string]bool, len(s.DependsOn))
		for _, dep := range s.DependsOn {
			if seen[dep] {
				continue
			}
			seen[dep] = true

			if dep == s.ID {
				return nil, errors.InvalidPipeline(def.ID, fmt.Sprintf("step %q depends on itself", s.ID))
			}
			if _, ok := p.steps[dep]; !ok {
				return nil, errors.InvalidPipeline(def.ID, fmt.Sprintf("step %q depends on unknown step %q", s.ID, dep))
			}
			if err := p.graph.AddEdge(dep, s.ID); err != nil {
				if stderrors.Is(err, graph.ErrEdgeCreatesCycle) {
					return nil, errors.InvalidPipeline(def.ID, "dependency cycle: "+p.describeCycle(dep, s.ID))
				}
				return nil, errors.InvalidPipeline(def.ID, err.Error())
			}
			p.deps[s.ID] = append(p.deps[s.ID], dep)
			p.dependents[dep] = append(p.dependents[dep], s.ID)
		}
	}

	order, err := graph.StableTopologicalSort(p.graph, func(a, b string) bool {
		return p.index[a] < p.index[b]
	})
	if err != nil {
		return nil, errors.InvalidPipeline(def.ID, err.Error())
	}
	p.order = order

	return p, nil
}

// describeCycle renders the cycle closed by the rejected edge from -> to.
func (p *plan) describeCycle(from, to string) string {
	path, err := graph.ShortestPath(p.graph, to, from)
	if err != nil || len(path) == 0 {
		return from + " -> " + to
	}
	return strings.Join(append(path, to), " -> ")
}
