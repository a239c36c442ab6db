package engine

import (
	"github.com/agentnodes/nodeflow/internal/catalog"
	"github.com/agentnodes/nodeflow/internal/values"
)

// opBinOp evaluates a 2-arity arithmetic operation (§4.2 BinOp).
func opBinOp(op catalog.AtomicOp, inputs []values.DataValue) ([]values.DataValue, error) {
	if len(inputs) != 2 {
		return nil, NewArityError("bin_op", len(inputs), 2)
	}
	a, b := inputs[0], inputs[1]

	var (
		result values.DataValue
		err    error
	)
	switch op.BinOp {
	case catalog.BinAdd:
		result, err = a.Add(b)
	case catalog.BinSub:
		result, err = a.Sub(b)
	case catalog.BinMul:
		result, err = a.Mul(b)
	case catalog.BinDiv:
		result, err = a.Div(b)
	case catalog.BinMod:
		result, err = a.Mod(b)
	case catalog.BinPow:
		result, err = a.Pow(b)
	default:
		return nil, NewTypeError("bin_op: unknown operator", nil, nil)
	}
	if err != nil {
		return nil, err
	}
	return []values.DataValue{result}, nil
}

// opUnaryOp evaluates the single supported unary operation, Neg, via
// multiplication by -1 (§4.1).
func opUnaryOp(op catalog.AtomicOp, inputs []values.DataValue) ([]values.DataValue, error) {
	if len(inputs) != 1 {
		return nil, NewArityError("unary_op", len(inputs), 1)
	}
	if op.UnaryOp != catalog.UnaryNeg {
		return nil, NewTypeError("unary_op: unknown operator", nil, nil)
	}
	v, err := inputs[0].Neg()
	if err != nil {
		return nil, err
	}
	return []values.DataValue{v}, nil
}

// opCast attempts try_cast(x, t) on the single input.
func opCast(op catalog.AtomicOp, inputs []values.DataValue) ([]values.DataValue, error) {
	if len(inputs) != 1 {
		return nil, NewArityError("cast", len(inputs), 1)
	}
	v, err := inputs[0].TryCast(op.CastTo)
	if err != nil {
		return nil, err
	}
	return []values.DataValue{v}, nil
}
