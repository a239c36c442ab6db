package engine

import (
	"context"
	"runtime"

	"github.com/agentnodes/nodeflow/internal/catalog"
	"github.com/agentnodes/nodeflow/internal/values"
)

// Dispatch evaluates one node's operation against its gathered inputs
// (§4.6). It performs arity/type validation itself or delegates to the
// per-family op function, and yields around the heavier operation
// families so a long CPU-bound evaluation does not starve the runtime.
func Dispatch(ctx context.Context, eval *Evaluator, node *ExecutionNode, inputs []values.DataValue) ([]values.DataValue, error) {
	op := node.Instance.Operation

	switch op.Op {
	case catalog.OpPrint:
		return opPrint(inputs)
	case catalog.OpValue:
		return opValue(op)
	case catalog.OpBinOp:
		runtime.Gosched()
		return opBinOp(op, inputs)
	case catalog.OpUnaryOp:
		return opUnaryOp(op, inputs)
	case catalog.OpCast:
		return opCast(op, inputs)
	case catalog.OpIsNone:
		return opIsNone(inputs)
	case catalog.OpLogical:
		return opLogical(op, inputs)
	case catalog.OpReplace:
		runtime.Gosched()
		return opReplace(inputs)
	case catalog.OpVariable:
		return opVariable(eval, op, inputs)
	case catalog.OpIO:
		return opIO(ctx, eval, node, op, inputs)
	case catalog.OpAgent:
		return opAgent(ctx, eval, node, op, inputs)
	case catalog.OpControl:
		return opControl(ctx, eval, node, op, inputs)
	case catalog.OpComplex:
		return opComplex(ctx, eval, node, op, inputs)
	default:
		return nil, NewTypeError(string(op.Op), nil, nil)
	}
}
