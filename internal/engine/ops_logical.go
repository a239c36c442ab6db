package engine

import (
	"github.com/agentnodes/nodeflow/internal/catalog"
	"github.com/agentnodes/nodeflow/internal/values"
)

// opIsNone reports whether the single (weak) input is None.
func opIsNone(inputs []values.DataValue) ([]values.DataValue, error) {
	if len(inputs) != 1 {
		return nil, NewArityError("is_none", len(inputs), 1)
	}
	return []values.DataValue{values.Boolean(inputs[0].IsNone())}, nil
}

// opLogical evaluates LogicalOp(And/Or/Xor/Not/Eq) (§4.2).
func opLogical(op catalog.AtomicOp, inputs []values.DataValue) ([]values.DataValue, error) {
	switch op.LogicalOp {
	case catalog.LogicalAnd, catalog.LogicalOr, catalog.LogicalXor:
		return logicalFold(op.LogicalOp, inputs)
	case catalog.LogicalNot:
		return logicalNot(inputs)
	case catalog.LogicalEq:
		if len(inputs) != 2 {
			return nil, NewArityError("logical_op(eq)", len(inputs), 2)
		}
		return []values.DataValue{values.Boolean(inputs[0].Equal(inputs[1]))}, nil
	default:
		return nil, NewTypeError("logical_op: unknown operator", nil, nil)
	}
}

func logicalFold(kind catalog.LogicalOpKind, inputs []values.DataValue) ([]values.DataValue, error) {
	if len(inputs) < 1 {
		return nil, NewArityError("logical_op", len(inputs), 1)
	}
	bools := make([]bool, len(inputs))
	for i, v := range inputs {
		b, err := toBoolean(v)
		if err != nil {
			return nil, err
		}
		bools[i] = b
	}

	result := bools[0]
	for _, b := range bools[1:] {
		switch kind {
		case catalog.LogicalAnd:
			result = result && b
		case catalog.LogicalOr:
			result = result || b
		case catalog.LogicalXor:
			result = result != b
		}
	}
	return []values.DataValue{values.Boolean(result)}, nil
}

func logicalNot(inputs []values.DataValue) ([]values.DataValue, error) {
	out := make([]values.DataValue, len(inputs))
	for i, v := range inputs {
		b, err := toBoolean(v)
		if err != nil {
			return nil, err
		}
		out[i] = values.Boolean(!b)
	}
	return out, nil
}

func toBoolean(v values.DataValue) (bool, error) {
	cast, err := v.TryCast(values.TypeBoolean)
	if err != nil {
		return false, err
	}
	b, _ := cast.AsBoolean()
	return b, nil
}
