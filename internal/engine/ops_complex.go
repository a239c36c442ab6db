package engine

import (
	"context"

	"github.com/agentnodes/nodeflow/internal/catalog"
	"github.com/agentnodes/nodeflow/internal/values"
)

// opComplex evaluates a Complex(path) node: resolve the sub-graph
// relative to the scope's origin, reuse or instantiate the child, feed
// it inputs, and drain its outputs (§4.2 "For Complex(path)").
func opComplex(ctx context.Context, eval *Evaluator, node *ExecutionNode, op catalog.AtomicOp, inputs []values.DataValue) ([]values.DataValue, error) {
	for i, v := range inputs {
		if v.IsNone() {
			return nil, NewComplexWeakInputError("complex", i)
		}
	}

	child, ok := eval.getRunningComplex(node.ID)
	if !ok {
		tmpl, err := loadComplex(eval, op.ComplexPath)
		if err != nil {
			return nil, err
		}
		child = tmpl.instantiate(ctx)
		eval.addRunningComplex(node.ID, child)
	}

	select {
	case child.inputCh <- inputs:
	case <-ctx.Done():
		return nil, NewChannelError(node.ID, -1, ctx.Err())
	}

	return child.GetOutputs(ctx)
}
