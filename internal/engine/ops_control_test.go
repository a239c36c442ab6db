package engine

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentnodes/nodeflow/internal/catalog"
	"github.com/agentnodes/nodeflow/internal/values"
)

func buildIfSpec(cond bool) (*catalog.ComplexSpec, uuid.UUID) {
	condNode, flagVal, setNode, ifNode, end := uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New()

	spec := &catalog.ComplexSpec{
		Outputs: []values.DataType{values.TypeNone},
		EndNode: end,
		Instances: map[uuid.UUID]catalog.Instance{
			condNode: {Operation: valueOp(values.Boolean(cond)), Outputs: []values.DataType{values.TypeBoolean}},
			flagVal:  {Operation: valueOp(values.Boolean(true)), Outputs: []values.DataType{values.TypeBoolean}},
			setNode: {
				Operation: catalog.AtomicOp{Op: catalog.OpVariable, VariableMode: catalog.VariableSet, VariableName: "ran"},
				Inputs: []catalog.EdgeDesc{
					{Type: values.TypeBoolean, Source: flagVal, Port: 0, Strong: true},
				},
				Outputs: []values.DataType{values.TypeBoolean},
			},
			ifNode: {
				Operation: catalog.AtomicOp{
					Op:      catalog.OpControl,
					Control: catalog.ControlIf,
					EndEdge: &catalog.EdgeDesc{Type: values.TypeBoolean, Source: setNode, Port: 0, Strong: true},
				},
				Inputs: []catalog.EdgeDesc{
					{Type: values.TypeBoolean, Source: condNode, Port: 0, Strong: true},
				},
				Outputs: []values.DataType{values.TypeNone},
			},
			end: {
				Operation: catalog.AtomicOp{Op: catalog.OpControl, Control: catalog.ControlEnd},
				Inputs: []catalog.EdgeDesc{
					{Type: values.TypeNone, Source: ifNode, Port: 0, Strong: true},
				},
				Outputs: []values.DataType{values.TypeNone},
			},
		},
	}
	return spec, end
}

func TestControlIfTrueRunsBody(t *testing.T) {
	spec, _ := buildIfSpec(true)
	tmpl := buildEvaluator(t, spec)
	ctx := context.Background()
	running := tmpl.Run(ctx, nil)
	defer running.Shutdown()

	_, err := running.GetOutputs(ctx)
	require.NoError(t, err)

	ran := running.GetVariable("ran")
	b, ok := ran.AsBoolean()
	require.True(t, ok)
	assert.True(t, b)
}

func TestControlIfFalseSkipsBody(t *testing.T) {
	spec, _ := buildIfSpec(false)
	tmpl := buildEvaluator(t, spec)
	ctx := context.Background()
	running := tmpl.Run(ctx, nil)
	defer running.Shutdown()

	_, err := running.GetOutputs(ctx)
	require.NoError(t, err)

	assert.True(t, running.GetVariable("ran").IsNone())
}

// TestControlWaitForInit covers both branches of Control(WaitForInit):
// the first invocation blocks on the init edge and returns its outputs;
// later invocations pass through a non-None input untouched.
func TestControlWaitForInit(t *testing.T) {
	initVal, passVal, wait, end := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	spec := &catalog.ComplexSpec{
		Outputs: []values.DataType{values.TypeInteger},
		EndNode: end,
		Instances: map[uuid.UUID]catalog.Instance{
			initVal: {Operation: valueOp(values.Integer(99)), Outputs: []values.DataType{values.TypeInteger}},
			passVal: {Operation: valueOp(values.Integer(5)), Outputs: []values.DataType{values.TypeInteger}},
			wait: {
				Operation: catalog.AtomicOp{
					Op:      catalog.OpControl,
					Control: catalog.ControlWaitForInit,
					InitEdge: &catalog.EdgeDesc{Type: values.TypeInteger, Source: initVal, Port: 0, Strong: true},
				},
				Inputs: []catalog.EdgeDesc{
					{Type: values.TypeInteger, Source: passVal, Port: 0, Strong: true},
				},
				Outputs: []values.DataType{values.TypeInteger},
			},
			end: {
				Operation: catalog.AtomicOp{Op: catalog.OpControl, Control: catalog.ControlEnd},
				Inputs: []catalog.EdgeDesc{
					{Type: values.TypeInteger, Source: wait, Port: 0, Strong: true},
				},
				Outputs: []values.DataType{values.TypeInteger},
			},
		},
	}

	tmpl := buildEvaluator(t, spec)
	ctx := context.Background()
	running := tmpl.Run(ctx, nil)
	defer running.Shutdown()

	out1, err := running.GetOutputs(ctx)
	require.NoError(t, err)
	n1, _ := out1[0].AsInteger()
	assert.Equal(t, int64(99), n1)

	out2, err := running.GetOutputs(ctx)
	require.NoError(t, err)
	n2, _ := out2[0].AsInteger()
	assert.Equal(t, int64(5), n2)
}
