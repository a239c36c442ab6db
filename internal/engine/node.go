package engine

import (
	"context"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/agentnodes/nodeflow/internal/catalog"
	"github.com/agentnodes/nodeflow/internal/obslog"
	"github.com/agentnodes/nodeflow/internal/values"
)

// NodeState is an execution node's lifecycle state (§4.3).
type NodeState int32

const (
	Waiting NodeState = iota
	Processing
	Closed
)

func (s NodeState) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case Processing:
		return "processing"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// slot is a single-shot delivery: a nil pointer signals close, a non-nil
// pointer carries the value produced by one invocation.
type slot chan *values.DataValue

// ExecutionNode is the long-lived actor driving one Instance's lifecycle
// (§3, §4.3). One goroutine owns the run loop; everything else touches
// the node only through its exported, lock-guarded methods.
type ExecutionNode struct {
	ID       uuid.UUID
	Instance catalog.Instance
	// Inputs holds the instance's input edges with Source already rehashed
	// into this scope's id space.
	Inputs []catalog.EdgeDesc

	eval *Evaluator

	mu        sync.RWMutex
	state     NodeState
	stored    *values.DataValue
	weakCache map[int]slot

	outMu   sync.Mutex
	outputs [][]slot // outputs[port] = pending listeners for that port

	triggerCh chan struct{}
}

func newExecutionNode(eval *Evaluator, id uuid.UUID, inst catalog.Instance) *ExecutionNode {
	return &ExecutionNode{
		ID:        id,
		Instance:  inst,
		Inputs:    inst.Inputs,
		eval:      eval,
		state:     Waiting,
		weakCache: make(map[int]slot),
		outputs:   make([][]slot, len(inst.Outputs)),
		triggerCh: make(chan struct{}, 1),
	}
}

// clone produces a fresh execution node bound to a new evaluator instance,
// resetting outputs, trigger, state, stored value, and weak cache per the
// clone contract in §3/§4.3.
func (n *ExecutionNode) clone(eval *Evaluator) *ExecutionNode {
	return newExecutionNode(eval, n.ID, n.Instance)
}

func (n *ExecutionNode) State() NodeState {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.state
}

// Stored returns the node's memoized per-invocation value, if any.
func (n *ExecutionNode) Stored() (values.DataValue, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.stored == nil {
		return values.DataValue{}, false
	}
	return *n.stored, true
}

// SetStored memoizes v as the node's per-invocation stored value (used by
// Io(Open) and AgentOp(Create)).
func (n *ExecutionNode) SetStored(v values.DataValue) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stored = &v
}

// triggerProcessing releases one notifier permit if the node is Waiting,
// transitioning it to Processing. It is a no-op otherwise — the notifier
// is single-permit, so concurrent triggers coalesce (§5).
func (n *ExecutionNode) triggerProcessing() {
	n.mu.Lock()
	if n.state != Waiting {
		n.mu.Unlock()
		return
	}
	n.state = Processing
	n.mu.Unlock()

	select {
	case n.triggerCh <- struct{}{}:
	default:
	}
}

// listen registers a fresh single-shot listener on the given output port
// and triggers this node to produce it.
func (n *ExecutionNode) listen(port int) (slot, error) {
	ch, err := n.registerListener(port)
	if err != nil {
		return nil, err
	}
	n.triggerProcessing()
	return ch, nil
}

// weakListen registers a listener without triggering the node.
func (n *ExecutionNode) weakListen(port int) (slot, error) {
	return n.registerListener(port)
}

// listenAll registers a listener on every output port and triggers once.
func (n *ExecutionNode) listenAll() ([]slot, error) {
	n.outMu.Lock()
	chans := make([]slot, len(n.outputs))
	for i := range n.outputs {
		ch := make(slot, 1)
		n.outputs[i] = append(n.outputs[i], ch)
		chans[i] = ch
	}
	n.outMu.Unlock()
	n.triggerProcessing()
	return chans, nil
}

func (n *ExecutionNode) registerListener(port int) (slot, error) {
	n.outMu.Lock()
	defer n.outMu.Unlock()
	if port < 0 || port >= len(n.outputs) {
		return nil, NewPortBoundsError(n.ID, port, len(n.outputs))
	}
	ch := make(slot, 1)
	n.outputs[port] = append(n.outputs[port], ch)
	return ch, nil
}

// broadcast drains the pending listener list for every port, in declared
// order, delivering one value to each.
func (n *ExecutionNode) broadcast(out []values.DataValue) {
	n.outMu.Lock()
	pending := n.outputs
	n.outputs = make([][]slot, len(n.Instance.Outputs))
	n.outMu.Unlock()

	for port, listeners := range pending {
		var v values.DataValue
		if port < len(out) {
			v = out[port]
		} else {
			v = values.None()
		}
		for _, ch := range listeners {
			val := v
			ch <- &val
		}
	}
}

// broadcastClosed drains every output slot, sends close (nil) to every
// pending listener, and marks the node Closed.
func (n *ExecutionNode) broadcastClosed() {
	n.outMu.Lock()
	pending := n.outputs
	n.outputs = make([][]slot, len(n.Instance.Outputs))
	n.outMu.Unlock()

	for _, listeners := range pending {
		for _, ch := range listeners {
			ch <- nil
		}
	}

	n.mu.Lock()
	n.state = Closed
	n.mu.Unlock()
}

// run is the node's per-instance goroutine body (§4.3 steps 1-6).
func (n *ExecutionNode) run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("node", n.ID.String()).Msg("execution node panicked")
			n.broadcastClosed()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			n.broadcastClosed()
			return
		case <-n.triggerCh:
		}

		inputs, closedUpstream, err := n.gatherInputs(ctx)
		if err != nil {
			log.Warn().Err(err).Str("node", n.ID.String()).Msg("input gather failed")
			n.broadcastClosed()
			return
		}
		if closedUpstream {
			n.broadcastClosed()
			return
		}

		// Step 3: transition to Waiting before evaluating so a nested
		// re-trigger can be received mid-evaluation.
		n.mu.Lock()
		n.state = Waiting
		n.mu.Unlock()

		spanCtx, endSpan := obslog.StartSpan(ctx, "node.evaluate")
		out, err := Dispatch(spanCtx, n.eval, n, inputs)
		endSpan()
		if err != nil {
			log.Warn().Err(err).Str("node", n.ID.String()).Msg("evaluation failed")
			n.broadcastClosed()
			return
		}

		n.broadcast(out)
	}
}

// gatherInputs resolves and collects this node's input values in declared
// order, per the strong/weak protocol in §4.3 step 2.
func (n *ExecutionNode) gatherInputs(ctx context.Context) ([]values.DataValue, bool, error) {
	out := make([]values.DataValue, len(n.Inputs))
	for i, edge := range n.Inputs {
		src, ok := n.eval.findNodeByScopedID(edge.Source)
		if !ok {
			return nil, false, NewResolutionError(ResolveNode, edge.Source)
		}
		if src.State() == Closed {
			return nil, true, nil
		}

		if edge.Strong {
			v, closed, err := n.gatherStrong(ctx, src, edge.Port)
			if err != nil {
				return nil, false, err
			}
			if closed {
				return nil, true, nil
			}
			out[i] = n.applyDefaultOverride(i, v)
			continue
		}

		v, err := n.gatherWeak(ctx, src, i, edge.Port)
		if err != nil {
			return nil, false, err
		}
		out[i] = n.applyDefaultOverride(i, v)
	}
	return out, false, nil
}

// applyDefaultOverride substitutes Instance.DefaultOverrides[port] for a
// None value gathered on input port i, letting a node declare a fallback
// for an input that produced no value this round.
func (n *ExecutionNode) applyDefaultOverride(i int, v values.DataValue) values.DataValue {
	if !v.IsNone() || n.Instance.DefaultOverrides == nil {
		return v
	}
	if override, ok := n.Instance.DefaultOverrides[strconv.Itoa(i)]; ok {
		return override
	}
	return v
}

func (n *ExecutionNode) gatherStrong(ctx context.Context, src *ExecutionNode, port int) (values.DataValue, bool, error) {
	ch, err := src.listen(port)
	if err != nil {
		return values.DataValue{}, false, err
	}
	select {
	case v := <-ch:
		if v == nil {
			return values.DataValue{}, true, nil
		}
		return *v, false, nil
	case <-ctx.Done():
		return values.DataValue{}, false, NewChannelError(src.ID, port, ctx.Err())
	}
}

func (n *ExecutionNode) gatherWeak(ctx context.Context, src *ExecutionNode, inputIdx, port int) (values.DataValue, error) {
	n.mu.Lock()
	ch, cached := n.weakCache[inputIdx]
	n.mu.Unlock()

	if !cached {
		fresh, err := src.weakListen(port)
		if err != nil {
			return values.DataValue{}, err
		}
		n.mu.Lock()
		n.weakCache[inputIdx] = fresh
		n.mu.Unlock()
		return values.None(), nil
	}

	select {
	case v, ok := <-ch:
		if !ok || v == nil {
			// Source closed or delivered a close; nothing more will ever
			// arrive on this cached channel.
			n.mu.Lock()
			delete(n.weakCache, inputIdx)
			n.mu.Unlock()
			return values.None(), nil
		}
		fresh, err := src.weakListen(port)
		if err != nil {
			return values.DataValue{}, err
		}
		n.mu.Lock()
		n.weakCache[inputIdx] = fresh
		n.mu.Unlock()
		return *v, nil
	default:
		return values.None(), nil
	}
}
