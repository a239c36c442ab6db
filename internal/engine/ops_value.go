package engine

import (
	"fmt"

	"github.com/agentnodes/nodeflow/internal/catalog"
	"github.com/agentnodes/nodeflow/internal/values"
)

// opPrint writes the display form of each input to stdout and produces
// a single None output.
func opPrint(inputs []values.DataValue) ([]values.DataValue, error) {
	for _, v := range inputs {
		fmt.Println(v.Display())
	}
	return []values.DataValue{values.None()}, nil
}

// opValue yields the literal value carried by the operation, ignoring
// any inputs (arity 0).
func opValue(op catalog.AtomicOp) ([]values.DataValue, error) {
	if op.Value == nil {
		return []values.DataValue{values.None()}, nil
	}
	return []values.DataValue{*op.Value}, nil
}
