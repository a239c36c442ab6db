// Package catalog holds the static description of a graph: the atomic
// operation taxonomy, edge descriptors, instances, and complex-node
// specifications loaded from a program file (§3, §4.2, §6).
package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/agentnodes/nodeflow/internal/values"
)

// Op names one atomic operation family. Complex sub-graph references are
// folded into the same union (Op: OpComplex) rather than kept as a
// separate NodeType, mirroring how an Instance carries its operation as a
// single discriminated field ("operation") on the wire.
type Op string

const (
	OpPrint    Op = "print"
	OpValue    Op = "value"
	OpBinOp    Op = "bin_op"
	OpUnaryOp  Op = "unary_op"
	OpCast     Op = "cast"
	OpIsNone   Op = "is_none"
	OpLogical  Op = "logical_op"
	OpReplace  Op = "replace"
	OpVariable Op = "variable"
	OpIO       Op = "io"
	OpAgent    Op = "agent"
	OpControl  Op = "control"
	OpComplex  Op = "complex"
)

type BinOpKind string

const (
	BinAdd BinOpKind = "add"
	BinSub BinOpKind = "sub"
	BinMul BinOpKind = "mul"
	BinDiv BinOpKind = "div"
	BinMod BinOpKind = "mod"
	BinPow BinOpKind = "pow"
)

type UnaryOpKind string

const (
	UnaryNeg UnaryOpKind = "neg"
)

type LogicalOpKind string

const (
	LogicalAnd LogicalOpKind = "and"
	LogicalOr  LogicalOpKind = "or"
	LogicalXor LogicalOpKind = "xor"
	LogicalNot LogicalOpKind = "not"
	LogicalEq  LogicalOpKind = "eq"
)

type VariableMode string

const (
	VariableSet VariableMode = "set"
	VariableGet VariableMode = "get"
)

type IOOpKind string

const (
	IOConsoleInput IOOpKind = "console_input"
	IOOpen         IOOpKind = "open"
	IOGetLine      IOOpKind = "get_line"
	IORead         IOOpKind = "read"
	IOWrite        IOOpKind = "write"
)

type IOHandleType string

const (
	IOHandleFile      IOHandleType = "file"
	IOHandleTCPSocket IOHandleType = "tcp_socket"
)

type AgentOpKind string

const (
	AgentCreate  AgentOpKind = "create"
	AgentSend    AgentOpKind = "send"
	AgentReceive AgentOpKind = "receive"
)

type ControlKind string

const (
	ControlStart       ControlKind = "start"
	ControlEnd         ControlKind = "end"
	ControlIf          ControlKind = "if"
	ControlWhile       ControlKind = "while"
	ControlWaitForInit ControlKind = "wait_for_init"
)

// AtomicOp is the tagged union of every leaf operation the runtime
// understands, decoded straight off the wire form described in §6.
type AtomicOp struct {
	Op Op `json:"op"`

	Value *values.DataValue `json:"value,omitempty"`

	BinOp     BinOpKind     `json:"bin_op,omitempty"`
	UnaryOp   UnaryOpKind   `json:"unary_op,omitempty"`
	CastTo    values.DataType `json:"cast_to,omitempty"`
	LogicalOp LogicalOpKind `json:"logical_op,omitempty"`

	VariableMode VariableMode `json:"variable_mode,omitempty"`
	VariableName string       `json:"variable_name,omitempty"`

	IOOp   IOOpKind     `json:"io_op,omitempty"`
	IOType IOHandleType `json:"io_type,omitempty"`

	AgentOp   AgentOpKind `json:"agent_op,omitempty"`
	AgentKind string      `json:"agent_kind,omitempty"`

	Control  ControlKind `json:"control,omitempty"`
	EndEdge  *EdgeDesc   `json:"end_edge,omitempty"`
	InitEdge *EdgeDesc   `json:"init_edge,omitempty"`

	ComplexPath string `json:"complex_path,omitempty"`
}

// EdgeDesc is the (declared-type, source-node-id, source-port-index,
// is-strong) tuple from §3, encoded on the wire as a 4-element JSON
// array: [type, source-id, port, strong].
type EdgeDesc struct {
	Type   values.DataType
	Source uuid.UUID
	Port   int
	Strong bool
}

func (e EdgeDesc) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.Type, e.Source, e.Port, e.Strong})
}

func (e *EdgeDesc) UnmarshalJSON(data []byte) error {
	var tuple [4]json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return fmt.Errorf("catalog: decoding edge tuple: %w", err)
	}
	if err := json.Unmarshal(tuple[0], &e.Type); err != nil {
		return fmt.Errorf("catalog: edge type: %w", err)
	}
	if err := json.Unmarshal(tuple[1], &e.Source); err != nil {
		return fmt.Errorf("catalog: edge source id: %w", err)
	}
	if err := json.Unmarshal(tuple[2], &e.Port); err != nil {
		return fmt.Errorf("catalog: edge port: %w", err)
	}
	if err := json.Unmarshal(tuple[3], &e.Strong); err != nil {
		return fmt.Errorf("catalog: edge strong flag: %w", err)
	}
	return nil
}

// Instance is a pair (operation, input-edge-list, output-type-list,
// default-overrides), as described in §3.
type Instance struct {
	Operation        AtomicOp                    `json:"operation"`
	Inputs           []EdgeDesc                  `json:"inputs"`
	Outputs          []values.DataType           `json:"outputs"`
	DefaultOverrides map[string]values.DataValue `json:"default_overrides,omitempty"`
}

// ComplexSpec is (input-type-list, output-type-list, end-node-id,
// defaults, instances-map), the on-disk form of a sub-graph (§3, §6).
type ComplexSpec struct {
	Inputs   []values.DataType           `json:"inputs"`
	Outputs  []values.DataType           `json:"outputs"`
	EndNode  uuid.UUID                   `json:"end_node"`
	Defaults map[string]values.DataValue `json:"defaults,omitempty"`
	Instances map[uuid.UUID]Instance     `json:"instances"`
}
