// Package engine implements the pull-driven dataflow runtime: the
// execution-node actor, the scoped evaluator, and the atomic operation
// dispatch table.
package engine

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog/log"

	"github.com/agentnodes/nodeflow/internal/agent"
	"github.com/agentnodes/nodeflow/internal/catalog"
	"github.com/agentnodes/nodeflow/internal/values"
)

// template is a cached, uninstantiated complex specification, keyed by
// its resolved filesystem path.
type template struct {
	spec *catalog.ComplexSpec
	dir  string
}

// Evaluator is the runtime container for one instantiated complex (§3,
// §4.4): a scope owning a node map, resource registries, and links to
// its parent scope for chained lookup.
type Evaluator struct {
	ScopeID    uuid.UUID
	EndNodeID  uuid.UUID
	OriginDir  string
	OriginFile string

	parent *Evaluator

	spec *catalog.ComplexSpec

	nodes     *xsync.MapOf[uuid.UUID, *ExecutionNode]
	dangling  map[uuid.UUID]struct{}

	inputCh chan []values.DataValue

	ioRegistry     *xsync.MapOf[uuid.UUID, io.ReadWriteCloser]
	agentRegistry  *xsync.MapOf[uuid.UUID, agent.Agent]
	variables      *xsync.MapOf[string, values.DataValue]
	evaluatorCache *xsync.MapOf[string, *template]
	runningComplex *xsync.MapOf[uuid.UUID, *Evaluator]

	closed atomic.Bool

	cancelMu sync.Mutex
	cancels  []context.CancelFunc

	nodeDone chan uuid.UUID
}

const inputChannelCapacity = 1024

func newEvaluator(parent *Evaluator, scopeID uuid.UUID, spec *catalog.ComplexSpec, originDir, originFile string) *Evaluator {
	return &Evaluator{
		ScopeID:        scopeID,
		OriginDir:      originDir,
		OriginFile:     originFile,
		parent:         parent,
		spec:           spec,
		nodes:          xsync.NewMapOf[uuid.UUID, *ExecutionNode](),
		inputCh:        make(chan []values.DataValue, inputChannelCapacity),
		ioRegistry:     xsync.NewMapOf[uuid.UUID, io.ReadWriteCloser](),
		agentRegistry:  xsync.NewMapOf[uuid.UUID, agent.Agent](),
		variables:      xsync.NewMapOf[string, values.DataValue](),
		evaluatorCache: xsync.NewMapOf[string, *template](),
		runningComplex: xsync.NewMapOf[uuid.UUID, *Evaluator](),
		nodeDone:       make(chan uuid.UUID, 64),
	}
}

// convertID rehashes a local specification id into this scope's id space
// (§3: "scoped identity").
func (e *Evaluator) convertID(local uuid.UUID) uuid.UUID {
	return uuid.NewSHA1(e.ScopeID, local[:])
}

// newChildScopeID derives a fresh scope id for a nested instantiation.
func newChildScopeID(parent uuid.UUID) uuid.UUID {
	fresh := uuid.New()
	return uuid.NewSHA1(parent, fresh[:])
}

func (e *Evaluator) findNodeByScopedID(id uuid.UUID) (*ExecutionNode, bool) {
	return e.nodes.Load(id)
}

// findNode resolves a local specification id within this scope (§4.4).
func (e *Evaluator) findNode(local uuid.UUID) (*ExecutionNode, bool) {
	return e.findNodeByScopedID(e.convertID(local))
}

// instantiate clones the template evaluator into a fresh running instance:
// nodes reset, channels fresh, registries empty, spawns one goroutine per
// node plus a supervisor (§4.4 "Instantiate").
func (e *Evaluator) instantiate(ctx context.Context) *Evaluator {
	child := newEvaluator(e.parent, e.ScopeID, e.spec, e.OriginDir, e.OriginFile)
	child.EndNodeID = e.EndNodeID
	child.dangling = e.dangling

	e.nodes.Range(func(id uuid.UUID, n *ExecutionNode) bool {
		child.nodes.Store(id, n.clone(child))
		return true
	})

	for name, v := range e.spec.Defaults {
		child.variables.Store(name, v)
	}

	runCtx, cancel := context.WithCancel(ctx)
	child.cancelMu.Lock()
	child.cancels = append(child.cancels, cancel)
	child.cancelMu.Unlock()

	child.nodes.Range(func(id uuid.UUID, n *ExecutionNode) bool {
		nodeCtx, nodeCancel := context.WithCancel(runCtx)
		child.cancelMu.Lock()
		child.cancels = append(child.cancels, nodeCancel)
		child.cancelMu.Unlock()
		go func(n *ExecutionNode) {
			defer func() { child.nodeDone <- n.ID }()
			n.run(nodeCtx)
		}(n)
		return true
	})

	go child.supervise(runCtx)

	return child
}

// supervise drains per-node completions for observability until the run
// context is cancelled; it is the Go analogue of the original listen-task.
// Aborting the node tasks is done by Shutdown, not here.
func (e *Evaluator) supervise(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-e.nodeDone:
			log.Debug().Str("scope", e.ScopeID.String()).Str("node", id.String()).Msg("node task exited")
		}
	}
}

// Run delivers inputs and produces this instance's running form, ready
// for GetOutputs.
func (e *Evaluator) Run(ctx context.Context, inputs []values.DataValue) *Evaluator {
	child := e.instantiate(ctx)
	child.inputCh <- inputs
	return child
}

// GetOutputs triggers dangling nodes so pure side-effect chains run, then
// drains the end node's output ports in order (§4.4 "Drive outputs").
func (e *Evaluator) GetOutputs(ctx context.Context) ([]values.DataValue, error) {
	for id := range e.dangling {
		if n, ok := e.nodes.Load(id); ok {
			n.triggerProcessing()
		}
	}

	end, ok := e.nodes.Load(e.EndNodeID)
	if !ok {
		return nil, NewResolutionError(ResolveNode, e.EndNodeID)
	}

	chans, err := end.listenAll()
	if err != nil {
		return nil, err
	}

	out := make([]values.DataValue, len(chans))
	for i, ch := range chans {
		select {
		case v := <-ch:
			if v == nil {
				return nil, ErrClosed
			}
			out[i] = *v
		case <-ctx.Done():
			return nil, NewChannelError(e.EndNodeID, i, ctx.Err())
		}
	}
	return out, nil
}

// Shutdown sets the closed flag and aborts every spawned node task.
// Idempotent: a second call observes the same effect as the first (§8
// invariant 4).
func (e *Evaluator) Shutdown() {
	if !e.closed.CompareAndSwap(false, true) {
		return
	}
	e.cancelMu.Lock()
	cancels := e.cancels
	e.cancelMu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
}

// Closed reports whether Shutdown has been called on this evaluator.
func (e *Evaluator) Closed() bool {
	return e.closed.Load()
}

// Spec returns the complex specification this evaluator was built from.
func (e *Evaluator) Spec() *catalog.ComplexSpec {
	return e.spec
}
