// Package nodeflow is the public facade over the dataflow runtime: it
// re-exports the types and entry points callers outside this module
// need, while the implementation lives under internal/.
package nodeflow

import (
	"github.com/agentnodes/nodeflow/internal/catalog"
	"github.com/agentnodes/nodeflow/internal/engine"
	"github.com/agentnodes/nodeflow/internal/values"
)

type (
	// DataType and DataValue are the tagged-sum value model (§3).
	DataType  = values.DataType
	DataValue = values.DataValue

	// ComplexSpec, Instance, and EdgeDesc are the static graph
	// description loaded from a program file (§3, §6).
	ComplexSpec = catalog.ComplexSpec
	Instance    = catalog.Instance
	EdgeDesc    = catalog.EdgeDesc

	// Evaluator is the scoped runtime container for one instantiated
	// complex (§4.4).
	Evaluator = engine.Evaluator
)

var (
	// LoadRoot loads a root specification with no parent scope.
	LoadRoot = engine.LoadRoot

	// ErrClosed is returned by Evaluator.GetOutputs when the end node
	// broadcasts a close instead of a value.
	ErrClosed = engine.ErrClosed
)

// Value constructors, re-exported for callers building DataValues to
// feed into a running graph.
var (
	String  = values.String
	Integer = values.Integer
	Float   = values.Float
	Boolean = values.Boolean
	Byte    = values.Byte
	Array   = values.Array
	Handle  = values.Handle
	Object  = values.Object
	Agent   = values.Agent
	None    = values.None
)
