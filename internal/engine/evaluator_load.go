package engine

import (
	"github.com/google/uuid"

	"github.com/agentnodes/nodeflow/internal/catalog"
	"github.com/agentnodes/nodeflow/internal/loader"
)

// LoadRoot loads the specification at path with no parent scope (§4.4
// "Load"), producing a template evaluator ready for Run.
func LoadRoot(path string) (*Evaluator, error) {
	return loadScoped(path, nil, uuid.Nil)
}

// loadComplex loads a sub-graph reference relative to parent's origin
// directory, consulting and populating the evaluator-cache chain first
// (§4.2 Complex(path), §4.4 "Complex template cache").
func loadComplex(parent *Evaluator, ref string) (*Evaluator, error) {
	path := loader.ResolveSubgraph(parent.OriginDir, ref)

	if tmpl, ok := parent.getTemplate(path); ok {
		return loadScopedFromSpec(tmpl.spec, tmpl.dir, path, parent, parent.ScopeID)
	}

	ev, err := loadScoped(path, parent, parent.ScopeID)
	if err != nil {
		return nil, err
	}
	parent.addTemplate(path, &template{spec: ev.spec, dir: ev.OriginDir})
	return ev, nil
}

func loadScoped(path string, parent *Evaluator, parentScope uuid.UUID) (*Evaluator, error) {
	spec, err := loader.Load(path)
	if err != nil {
		return nil, NewLoaderError(path, err)
	}
	dir := dirOf(path)
	return loadScopedFromSpec(spec, dir, path, parent, parentScope)
}

func loadScopedFromSpec(spec *catalog.ComplexSpec, dir, path string, parent *Evaluator, parentScope uuid.UUID) (*Evaluator, error) {
	scopeID := newChildScopeID(parentScope)
	ev := newEvaluator(parent, scopeID, spec, dir, path)

	for localID, inst := range spec.Instances {
		scopedInst := inst
		scopedInst.Inputs = make([]catalog.EdgeDesc, len(inst.Inputs))
		for i, edge := range inst.Inputs {
			scopedInst.Inputs[i] = catalog.EdgeDesc{
				Type:   edge.Type,
				Source: ev.convertID(edge.Source),
				Port:   edge.Port,
				Strong: edge.Strong,
			}
		}
		if edge := inst.Operation.EndEdge; edge != nil {
			scoped := *edge
			scoped.Source = ev.convertID(edge.Source)
			scopedInst.Operation.EndEdge = &scoped
		}
		if edge := inst.Operation.InitEdge; edge != nil {
			scoped := *edge
			scoped.Source = ev.convertID(edge.Source)
			scopedInst.Operation.InitEdge = &scoped
		}
		node := newExecutionNode(ev, ev.convertID(localID), scopedInst)
		ev.nodes.Store(node.ID, node)
	}

	ev.EndNodeID = ev.convertID(spec.EndNode)
	ev.dangling = computeDangling(ev)

	return ev, nil
}

// computeDangling is the set difference: scoped ids minus every id
// referenced as an edge source anywhere in the scope (§4.4 "Load").
// "Referenced" includes not just plain Inputs edges but also the
// EndEdge/InitEdge a Control(If)/Control(While)/Control(WaitForInit)
// node drains or blocks on — those subgraph roots must stay demand-driven
// by their guard, not force-triggered as if they were unreferenced.
func computeDangling(ev *Evaluator) map[uuid.UUID]struct{} {
	referenced := make(map[uuid.UUID]struct{})
	ev.nodes.Range(func(_ uuid.UUID, n *ExecutionNode) bool {
		for _, edge := range n.Inputs {
			referenced[edge.Source] = struct{}{}
		}
		if edge := n.Instance.Operation.EndEdge; edge != nil {
			referenced[edge.Source] = struct{}{}
		}
		if edge := n.Instance.Operation.InitEdge; edge != nil {
			referenced[edge.Source] = struct{}{}
		}
		return true
	})

	dangling := make(map[uuid.UUID]struct{})
	ev.nodes.Range(func(id uuid.UUID, _ *ExecutionNode) bool {
		if _, ok := referenced[id]; !ok {
			dangling[id] = struct{}{}
		}
		return true
	})
	return dangling
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}
