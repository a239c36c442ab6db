package engine

import (
	"github.com/agentnodes/nodeflow/internal/catalog"
	"github.com/agentnodes/nodeflow/internal/values"
)

// opVariable evaluates Variable(Set,name)/Variable(Get,name) (§4.2, §4.4
// "Variables").
func opVariable(eval *Evaluator, op catalog.AtomicOp, inputs []values.DataValue) ([]values.DataValue, error) {
	switch op.VariableMode {
	case catalog.VariableSet:
		if len(inputs) != 1 {
			return nil, NewArityError("variable(set)", len(inputs), 1)
		}
		eval.SetVariable(op.VariableName, inputs[0])
		return nil, nil
	case catalog.VariableGet:
		if len(inputs) != 0 {
			return nil, NewArityError("variable(get)", len(inputs), 0)
		}
		return []values.DataValue{eval.GetVariable(op.VariableName)}, nil
	default:
		return nil, NewTypeError("variable: unknown mode", nil, nil)
	}
}
