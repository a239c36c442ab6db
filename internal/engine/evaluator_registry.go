package engine

import (
	"io"

	"github.com/google/uuid"

	"github.com/agentnodes/nodeflow/internal/agent"
	"github.com/agentnodes/nodeflow/internal/values"
)

// RegisterIO stores handle under a fresh id in this scope's I/O registry
// (§4.4 "Resource registries").
func (e *Evaluator) RegisterIO(handle io.ReadWriteCloser) uuid.UUID {
	id := uuid.New()
	e.ioRegistry.Store(id, handle)
	return id
}

// FindIO walks this scope then its parent chain looking for id.
func (e *Evaluator) FindIO(id uuid.UUID) (io.ReadWriteCloser, error) {
	for scope := e; scope != nil; scope = scope.parent {
		if h, ok := scope.ioRegistry.Load(id); ok {
			return h, nil
		}
	}
	return nil, NewResolutionErrorf(ResolveIOHandle, id.String())
}

// RegisterAgent stores a under a fresh id in this scope's agent registry.
func (e *Evaluator) RegisterAgent(a agent.Agent) uuid.UUID {
	id := uuid.New()
	e.agentRegistry.Store(id, a)
	return id
}

// FindAgent walks this scope then its parent chain looking for id.
func (e *Evaluator) FindAgent(id uuid.UUID) (agent.Agent, error) {
	for scope := e; scope != nil; scope = scope.parent {
		if a, ok := scope.agentRegistry.Load(id); ok {
			return a, nil
		}
	}
	return nil, NewResolutionErrorf(ResolveAgent, id.String())
}

// GetVariable reads name from this evaluator's variable map, inserting it
// with None on first read (§4.4 "Variables").
func (e *Evaluator) GetVariable(name string) values.DataValue {
	v, _ := e.variables.LoadOrStore(name, values.None())
	return v
}

// SetVariable overwrites name's value.
func (e *Evaluator) SetVariable(name string, v values.DataValue) {
	e.variables.Store(name, v)
}

// getTemplate checks this scope's evaluator-cache, walking parents on
// miss and memoizing into self on a parent hit (§4.4 "get_evaluator").
func (e *Evaluator) getTemplate(path string) (*template, bool) {
	if t, ok := e.evaluatorCache.Load(path); ok {
		return t, true
	}
	for scope := e.parent; scope != nil; scope = scope.parent {
		if t, ok := scope.evaluatorCache.Load(path); ok {
			e.evaluatorCache.Store(path, t)
			return t, true
		}
	}
	return nil, false
}

// addTemplate inserts into this scope's cache and propagates to the
// parent (§4.4 "add_evaluator").
func (e *Evaluator) addTemplate(path string, t *template) {
	e.evaluatorCache.Store(path, t)
	if e.parent != nil {
		e.parent.addTemplate(path, t)
	}
}

// getRunningComplex returns the live child evaluator previously
// registered for nodeID, if any (§4.4 "Running complex map").
func (e *Evaluator) getRunningComplex(nodeID uuid.UUID) (*Evaluator, bool) {
	return e.runningComplex.Load(nodeID)
}

// addRunningComplex registers child as the live instance for nodeID,
// preserving identity across repeated invocations.
func (e *Evaluator) addRunningComplex(nodeID uuid.UUID, child *Evaluator) {
	e.runningComplex.Store(nodeID, child)
}
