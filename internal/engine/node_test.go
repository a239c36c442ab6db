package engine

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentnodes/nodeflow/internal/catalog"
	"github.com/agentnodes/nodeflow/internal/values"
)

func newTestNode(outputs int) *ExecutionNode {
	inst := catalog.Instance{Outputs: make([]values.DataType, outputs)}
	return newExecutionNode(nil, uuid.New(), inst)
}

func TestTriggerProcessingIsSinglePermit(t *testing.T) {
	n := newTestNode(1)
	assert.Equal(t, Waiting, n.State())

	n.triggerProcessing()
	assert.Equal(t, Processing, n.State())
	select {
	case <-n.triggerCh:
	default:
		t.Fatal("expected a pending permit after first trigger")
	}

	// A second trigger while Processing is a no-op: no permit queued.
	n.triggerProcessing()
	select {
	case <-n.triggerCh:
		t.Fatal("did not expect a permit while already Processing")
	default:
	}
}

func TestListenRegistersAndTriggers(t *testing.T) {
	n := newTestNode(1)
	ch, err := n.listen(0)
	require.NoError(t, err)
	assert.Equal(t, Processing, n.State())

	v := values.Integer(5)
	n.broadcast([]values.DataValue{v})

	got := <-ch
	require.NotNil(t, got)
	n2, _ := got.AsInteger()
	assert.Equal(t, int64(5), n2)
}

func TestListenPortOutOfBounds(t *testing.T) {
	n := newTestNode(1)
	_, err := n.listen(5)
	var boundsErr *PortBoundsError
	assert.ErrorAs(t, err, &boundsErr)
}

func TestBroadcastPadsMissingPortsWithNone(t *testing.T) {
	n := newTestNode(2)
	ch0, err := n.listen(0)
	require.NoError(t, err)
	ch1, err := n.listen(1)
	require.NoError(t, err)

	n.broadcast([]values.DataValue{values.Integer(1)})

	v0 := <-ch0
	v1 := <-ch1
	require.NotNil(t, v0)
	require.NotNil(t, v1)
	assert.True(t, v1.IsNone())
	n0, _ := v0.AsInteger()
	assert.Equal(t, int64(1), n0)
}

func TestBroadcastClosedSendsNilAndMarksClosed(t *testing.T) {
	n := newTestNode(1)
	ch, err := n.listen(0)
	require.NoError(t, err)

	n.broadcastClosed()

	select {
	case v := <-ch:
		assert.Nil(t, v)
	case <-time.After(time.Second):
		t.Fatal("expected close signal")
	}
	assert.Equal(t, Closed, n.State())
}

func TestListenAllRegistersEveryPort(t *testing.T) {
	n := newTestNode(3)
	chans, err := n.listenAll()
	require.NoError(t, err)
	require.Len(t, chans, 3)
	assert.Equal(t, Processing, n.State())
}

func TestApplyDefaultOverride(t *testing.T) {
	n := newTestNode(1)
	n.Instance.DefaultOverrides = map[string]values.DataValue{
		"0": values.Integer(42),
	}

	got := n.applyDefaultOverride(0, values.None())
	v, ok := got.AsInteger()
	require.True(t, ok)
	assert.Equal(t, int64(42), v)

	got = n.applyDefaultOverride(0, values.Integer(7))
	v, ok = got.AsInteger()
	require.True(t, ok)
	assert.Equal(t, int64(7), v)
}
