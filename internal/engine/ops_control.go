package engine

import (
	"context"

	"github.com/agentnodes/nodeflow/internal/catalog"
	"github.com/agentnodes/nodeflow/internal/values"
)

// opControl evaluates the Control(...) family (§4.2).
func opControl(ctx context.Context, eval *Evaluator, node *ExecutionNode, op catalog.AtomicOp, inputs []values.DataValue) ([]values.DataValue, error) {
	switch op.Control {
	case catalog.ControlStart:
		return controlStart(ctx, eval, node)
	case catalog.ControlEnd:
		return inputs, nil
	case catalog.ControlIf:
		return controlIf(ctx, eval, op, inputs)
	case catalog.ControlWhile:
		return controlWhile(ctx, eval, node, op, inputs)
	case catalog.ControlWaitForInit:
		return controlWaitForInit(ctx, eval, node, op, inputs)
	default:
		return nil, NewTypeError("control: unknown kind", nil, nil)
	}
}

// controlStart blocks until the evaluator's input channel delivers the
// caller's arguments. Each invocation reads a fresh delivery, so a
// complex node reused across repeated parent invocations (§4.4 "Running
// complex map") sees the new inputs each time rather than replaying the
// first call's.
func controlStart(ctx context.Context, eval *Evaluator, node *ExecutionNode) ([]values.DataValue, error) {
	select {
	case ins := <-eval.inputCh:
		return ins, nil
	case <-ctx.Done():
		return nil, NewChannelError(node.ID, -1, ctx.Err())
	}
}

func controlIf(ctx context.Context, eval *Evaluator, op catalog.AtomicOp, inputs []values.DataValue) ([]values.DataValue, error) {
	if len(inputs) != 1 {
		return nil, NewArityError("control(if)", len(inputs), 1)
	}
	cond, ok := inputs[0].AsBoolean()
	if !ok {
		return nil, NewTypeError("control(if)", []values.DataType{inputs[0].Type()}, []values.DataType{values.TypeBoolean})
	}
	if cond {
		if err := drainSubgraph(ctx, eval, op.EndEdge); err != nil {
			return nil, err
		}
	}
	return []values.DataValue{values.None()}, nil
}

// controlWhile drives the loop body to completion on every true tick
// before finally returning None, folding the "re-trigger self" protocol
// from §4.2 into one Dispatch call instead of separate actor cycles.
func controlWhile(ctx context.Context, eval *Evaluator, node *ExecutionNode, op catalog.AtomicOp, inputs []values.DataValue) ([]values.DataValue, error) {
	if len(inputs) != 1 {
		return nil, NewArityError("control(while)", len(inputs), 1)
	}
	cond, ok := inputs[0].AsBoolean()
	if !ok {
		return nil, NewTypeError("control(while)", []values.DataType{inputs[0].Type()}, []values.DataType{values.TypeBoolean})
	}

	edge := node.Inputs[0]
	src, ok := eval.findNodeByScopedID(edge.Source)
	if !ok {
		return nil, NewResolutionError(ResolveNode, edge.Source)
	}

	for cond {
		if err := drainSubgraph(ctx, eval, op.EndEdge); err != nil {
			return nil, err
		}
		v, closed, err := node.gatherStrong(ctx, src, edge.Port)
		if err != nil {
			return nil, err
		}
		if closed {
			return []values.DataValue{values.None()}, nil
		}
		cond, ok = v.AsBoolean()
		if !ok {
			return nil, NewTypeError("control(while)", []values.DataType{v.Type()}, []values.DataType{values.TypeBoolean})
		}
	}
	return []values.DataValue{values.None()}, nil
}

// controlWaitForInit blocks on init-edge once, then passes through
// non-None re-invocations and suppresses None ones (§4.2).
func controlWaitForInit(ctx context.Context, eval *Evaluator, node *ExecutionNode, op catalog.AtomicOp, inputs []values.DataValue) ([]values.DataValue, error) {
	if _, done := node.Stored(); !done {
		n, ok := eval.findNodeByScopedID(op.InitEdge.Source)
		if !ok {
			return nil, NewResolutionError(ResolveNode, op.InitEdge.Source)
		}
		chans, err := n.listenAll()
		if err != nil {
			return nil, err
		}
		out := make([]values.DataValue, len(chans))
		for i, ch := range chans {
			select {
			case v := <-ch:
				if v == nil {
					return nil, NewShutdownError(eval.ScopeID)
				}
				out[i] = *v
			case <-ctx.Done():
				return nil, NewChannelError(n.ID, i, ctx.Err())
			}
		}
		node.SetStored(values.Boolean(true))
		return out, nil
	}

	if len(inputs) != 1 {
		return nil, NewArityError("control(wait_for_init)", len(inputs), 1)
	}
	if inputs[0].IsNone() {
		return nil, nil
	}
	return []values.DataValue{inputs[0]}, nil
}

// drainSubgraph registers listeners on every output of the node named by
// edge, triggers it, and waits for all of them, discarding the values
// (§4.2 Control(If)/Control(While)).
func drainSubgraph(ctx context.Context, eval *Evaluator, edge *catalog.EdgeDesc) error {
	if edge == nil {
		return NewTypeError("control: missing end-edge", nil, nil)
	}
	n, ok := eval.findNodeByScopedID(edge.Source)
	if !ok {
		return NewResolutionError(ResolveNode, edge.Source)
	}
	chans, err := n.listenAll()
	if err != nil {
		return err
	}
	for i, ch := range chans {
		select {
		case <-ch:
		case <-ctx.Done():
			return NewChannelError(n.ID, i, ctx.Err())
		}
	}
	return nil
}
