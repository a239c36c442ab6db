package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentnodes/nodeflow/internal/catalog"
	"github.com/agentnodes/nodeflow/internal/values"
)

// TestLoopWithFeedback is scenario 3 (§8): a While loop whose condition is
// recomputed each tick from a variable mutated by the loop body, driven
// via a weak-edge-free feedback cycle through the variable map rather
// than a graph edge.
func TestLoopWithFeedback(t *testing.T) {
	getI, one, add, setI := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	getI2, three, eq, notEq := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	while, finalGet, end := uuid.New(), uuid.New(), uuid.New()

	spec := &catalog.ComplexSpec{
		Outputs:  []values.DataType{values.TypeNone, values.TypeInteger},
		EndNode:  end,
		Defaults: map[string]values.DataValue{"i": values.Integer(0)},
		Instances: map[uuid.UUID]catalog.Instance{
			getI: {
				Operation: catalog.AtomicOp{Op: catalog.OpVariable, VariableMode: catalog.VariableGet, VariableName: "i"},
				Outputs:   []values.DataType{values.TypeInteger},
			},
			one: {Operation: valueOp(values.Integer(1)), Outputs: []values.DataType{values.TypeInteger}},
			add: {
				Operation: catalog.AtomicOp{Op: catalog.OpBinOp, BinOp: catalog.BinAdd},
				Inputs: []catalog.EdgeDesc{
					{Type: values.TypeInteger, Source: getI, Port: 0, Strong: true},
					{Type: values.TypeInteger, Source: one, Port: 0, Strong: true},
				},
				Outputs: []values.DataType{values.TypeInteger},
			},
			setI: {
				Operation: catalog.AtomicOp{Op: catalog.OpVariable, VariableMode: catalog.VariableSet, VariableName: "i"},
				Inputs: []catalog.EdgeDesc{
					{Type: values.TypeInteger, Source: add, Port: 0, Strong: true},
				},
				Outputs: []values.DataType{values.TypeInteger},
			},
			getI2: {
				Operation: catalog.AtomicOp{Op: catalog.OpVariable, VariableMode: catalog.VariableGet, VariableName: "i"},
				Outputs:   []values.DataType{values.TypeInteger},
			},
			three: {Operation: valueOp(values.Integer(3)), Outputs: []values.DataType{values.TypeInteger}},
			eq: {
				Operation: catalog.AtomicOp{Op: catalog.OpLogical, LogicalOp: catalog.LogicalEq},
				Inputs: []catalog.EdgeDesc{
					{Type: values.TypeInteger, Source: getI2, Port: 0, Strong: true},
					{Type: values.TypeInteger, Source: three, Port: 0, Strong: true},
				},
				Outputs: []values.DataType{values.TypeBoolean},
			},
			notEq: {
				Operation: catalog.AtomicOp{Op: catalog.OpLogical, LogicalOp: catalog.LogicalNot},
				Inputs: []catalog.EdgeDesc{
					{Type: values.TypeBoolean, Source: eq, Port: 0, Strong: true},
				},
				Outputs: []values.DataType{values.TypeBoolean},
			},
			while: {
				Operation: catalog.AtomicOp{
					Op:      catalog.OpControl,
					Control: catalog.ControlWhile,
					EndEdge: &catalog.EdgeDesc{Type: values.TypeInteger, Source: setI, Port: 0, Strong: true},
				},
				Inputs: []catalog.EdgeDesc{
					{Type: values.TypeBoolean, Source: notEq, Port: 0, Strong: true},
				},
				Outputs: []values.DataType{values.TypeNone},
			},
			finalGet: {
				Operation: catalog.AtomicOp{Op: catalog.OpVariable, VariableMode: catalog.VariableGet, VariableName: "i"},
				Outputs:   []values.DataType{values.TypeInteger},
			},
			end: {
				Operation: catalog.AtomicOp{Op: catalog.OpControl, Control: catalog.ControlEnd},
				Inputs: []catalog.EdgeDesc{
					{Type: values.TypeNone, Source: while, Port: 0, Strong: true},
					{Type: values.TypeInteger, Source: finalGet, Port: 0, Strong: true},
				},
				Outputs: []values.DataType{values.TypeNone, values.TypeInteger},
			},
		},
	}

	tmpl := buildEvaluator(t, spec)
	ctx := context.Background()
	running := tmpl.Run(ctx, nil)
	defer running.Shutdown()

	out, err := running.GetOutputs(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)
	n, ok := out[1].AsInteger()
	require.True(t, ok)
	assert.Equal(t, int64(3), n)
}

// TestFileReadWithOpenMemoization is scenario 4 (§8): Io(Open(File))
// memoizes its handle on the node, so a second drive of the same chain
// reuses the handle and advances to the next line (or EOF).
func TestFileReadWithOpenMemoization(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hello.txt")
	require.NoError(t, os.WriteFile(path, []byte("hi\n"), 0o644))

	pathNode, openNode, getLineNode, end := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	spec := &catalog.ComplexSpec{
		Outputs: []values.DataType{values.TypeString},
		EndNode: end,
		Instances: map[uuid.UUID]catalog.Instance{
			pathNode: {Operation: valueOp(values.String(path)), Outputs: []values.DataType{values.TypeString}},
			openNode: {
				Operation: catalog.AtomicOp{Op: catalog.OpIO, IOOp: catalog.IOOpen, IOType: catalog.IOHandleFile},
				Inputs: []catalog.EdgeDesc{
					{Type: values.TypeString, Source: pathNode, Port: 0, Strong: true},
				},
				Outputs: []values.DataType{values.TypeHandle},
			},
			getLineNode: {
				Operation: catalog.AtomicOp{Op: catalog.OpIO, IOOp: catalog.IOGetLine},
				Inputs: []catalog.EdgeDesc{
					{Type: values.TypeHandle, Source: openNode, Port: 0, Strong: true},
				},
				Outputs: []values.DataType{values.TypeString},
			},
			end: {
				Operation: catalog.AtomicOp{Op: catalog.OpControl, Control: catalog.ControlEnd},
				Inputs: []catalog.EdgeDesc{
					{Type: values.TypeString, Source: getLineNode, Port: 0, Strong: true},
				},
				Outputs: []values.DataType{values.TypeString},
			},
		},
	}

	tmpl := buildEvaluator(t, spec)
	ctx := context.Background()
	running := tmpl.Run(ctx, nil)
	defer running.Shutdown()

	out1, err := running.GetOutputs(ctx)
	require.NoError(t, err)
	s1, _ := out1[0].AsString()
	assert.Equal(t, "hi\n", s1)

	out2, err := running.GetOutputs(ctx)
	require.NoError(t, err)
	s2, _ := out2[0].AsString()
	assert.Equal(t, "", s2)
}

// TestNestedComplex is scenario 5 (§8): a parent node's Complex(path)
// instantiates a child graph (Control(Start) -> UnaryOp(Neg) ->
// Control(End)) and consumes its output.
func TestNestedComplex(t *testing.T) {
	startNode, negNode, childEnd := uuid.New(), uuid.New(), uuid.New()
	childSpec := &catalog.ComplexSpec{
		Inputs:  []values.DataType{values.TypeInteger},
		Outputs: []values.DataType{values.TypeInteger},
		EndNode: childEnd,
		Instances: map[uuid.UUID]catalog.Instance{
			startNode: {
				Operation: catalog.AtomicOp{Op: catalog.OpControl, Control: catalog.ControlStart},
				Outputs:   []values.DataType{values.TypeInteger},
			},
			negNode: {
				Operation: catalog.AtomicOp{Op: catalog.OpUnaryOp, UnaryOp: catalog.UnaryNeg},
				Inputs: []catalog.EdgeDesc{
					{Type: values.TypeInteger, Source: startNode, Port: 0, Strong: true},
				},
				Outputs: []values.DataType{values.TypeInteger},
			},
			childEnd: {
				Operation: catalog.AtomicOp{Op: catalog.OpControl, Control: catalog.ControlEnd},
				Inputs: []catalog.EdgeDesc{
					{Type: values.TypeInteger, Source: negNode, Port: 0, Strong: true},
				},
				Outputs: []values.DataType{values.TypeInteger},
			},
		},
	}

	valNode, complexNode, parentEnd := uuid.New(), uuid.New(), uuid.New()
	parentSpec := &catalog.ComplexSpec{
		Outputs: []values.DataType{values.TypeInteger},
		EndNode: parentEnd,
		Instances: map[uuid.UUID]catalog.Instance{
			valNode: {Operation: valueOp(values.Integer(7)), Outputs: []values.DataType{values.TypeInteger}},
			complexNode: {
				Operation: catalog.AtomicOp{Op: catalog.OpComplex, ComplexPath: "child.json"},
				Inputs: []catalog.EdgeDesc{
					{Type: values.TypeInteger, Source: valNode, Port: 0, Strong: true},
				},
				Outputs: []values.DataType{values.TypeInteger},
			},
			parentEnd: {
				Operation: catalog.AtomicOp{Op: catalog.OpControl, Control: catalog.ControlEnd},
				Inputs: []catalog.EdgeDesc{
					{Type: values.TypeInteger, Source: complexNode, Port: 0, Strong: true},
				},
				Outputs: []values.DataType{values.TypeInteger},
			},
		},
	}

	tmpl := buildEvaluator(t, parentSpec)
	ctx := context.Background()
	running := tmpl.Run(ctx, nil)
	defer running.Shutdown()

	running.addTemplate("child.json", &template{spec: childSpec, dir: "."})

	out, err := running.GetOutputs(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	n, ok := out[0].AsInteger()
	require.True(t, ok)
	assert.Equal(t, int64(-7), n)
}
