package engine

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/agentnodes/nodeflow/internal/values"
)

// LoaderError reports a failure reading or parsing a specification file.
type LoaderError struct {
	Path string
	Err  error
}

func NewLoaderError(path string, err error) *LoaderError {
	return &LoaderError{Path: path, Err: err}
}

func (e *LoaderError) Error() string {
	return fmt.Sprintf("engine: loading %q: %v", e.Path, e.Err)
}

func (e *LoaderError) Unwrap() error { return e.Err }

// ResolutionErrorKind distinguishes the resolution failures listed in the
// error taxonomy: node, I/O handle, agent, sub-graph, and complex-child
// reference lookups.
type ResolutionErrorKind string

const (
	ResolveNode         ResolutionErrorKind = "node"
	ResolveIOHandle      ResolutionErrorKind = "io_handle"
	ResolveAgent         ResolutionErrorKind = "agent"
	ResolveSubgraph      ResolutionErrorKind = "subgraph"
	ResolveComplexChild  ResolutionErrorKind = "complex_child"
)

// ResolutionError reports that an id, path, or handle could not be found.
type ResolutionError struct {
	Kind ResolutionErrorKind
	ID   string
}

func NewResolutionError(kind ResolutionErrorKind, id fmt.Stringer) *ResolutionError {
	return &ResolutionError{Kind: kind, ID: id.String()}
}

func NewResolutionErrorf(kind ResolutionErrorKind, id string) *ResolutionError {
	return &ResolutionError{Kind: kind, ID: id}
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("engine: %s %q not found", e.Kind, e.ID)
}

// ChannelError reports a receive/close failure during input gathering or
// output draining.
type ChannelError struct {
	NodeID uuid.UUID
	Port   int
	Err    error
}

func NewChannelError(nodeID uuid.UUID, port int, err error) *ChannelError {
	return &ChannelError{NodeID: nodeID, Port: port, Err: err}
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("engine: channel error on node %s port %d: %v", e.NodeID, e.Port, e.Err)
}

func (e *ChannelError) Unwrap() error { return e.Err }

// TypeError reports a mismatch between declared/expected types and the
// types actually observed. Cast failures are reported as values.CastError.
type TypeError struct {
	Op       string
	Got      []values.DataType
	Expected []values.DataType
}

func NewTypeError(op string, got, expected []values.DataType) *TypeError {
	return &TypeError{Op: op, Got: got, Expected: expected}
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("engine: %s: type mismatch, got %v expected %v", e.Op, e.Got, e.Expected)
}

// ArityError reports the wrong number of inputs for an operation, or a
// complex node receiving a weak (None) input where a strong value was
// required (ComplexWeakInput).
type ArityError struct {
	Op       string
	Got      int
	Expected int
	Reason   string
}

func NewArityError(op string, got, expected int) *ArityError {
	return &ArityError{Op: op, Got: got, Expected: expected}
}

func NewComplexWeakInputError(op string, port int) *ArityError {
	return &ArityError{Op: op, Reason: fmt.Sprintf("ComplexWeakInput: port %d arrived as None", port)}
}

func (e *ArityError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("engine: %s: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("engine: %s: expected %d inputs, got %d", e.Op, e.Expected, e.Got)
}

// RegexError reports a pattern compilation failure.
type RegexError struct {
	Pattern string
	Err     error
}

func NewRegexError(pattern string, err error) *RegexError {
	return &RegexError{Pattern: pattern, Err: err}
}

func (e *RegexError) Error() string {
	return fmt.Sprintf("engine: invalid regex %q: %v", e.Pattern, e.Err)
}

func (e *RegexError) Unwrap() error { return e.Err }

// IOError reports an underlying read/write failure or invalid UTF-8 on a
// text read.
type IOError struct {
	Op  string
	Err error
}

func NewIOError(op string, err error) *IOError {
	return &IOError{Op: op, Err: err}
}

func (e *IOError) Error() string {
	return fmt.Sprintf("engine: io %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// PortBoundsError reports a listener requested on a nonexistent output
// port.
type PortBoundsError struct {
	NodeID uuid.UUID
	Port   int
	NumOut int
}

func NewPortBoundsError(nodeID uuid.UUID, port, numOut int) *PortBoundsError {
	return &PortBoundsError{NodeID: nodeID, Port: port, NumOut: numOut}
}

func (e *PortBoundsError) Error() string {
	return fmt.Sprintf("engine: port %d out of bounds for node %s (%d outputs)", e.Port, e.NodeID, e.NumOut)
}

// ShutdownError reports that an operation observed the scope after it was
// closed.
type ShutdownError struct {
	ScopeID uuid.UUID
}

func NewShutdownError(scopeID uuid.UUID) *ShutdownError {
	return &ShutdownError{ScopeID: scopeID}
}

func (e *ShutdownError) Error() string {
	return fmt.Sprintf("engine: scope %s is closed", e.ScopeID)
}

// ErrClosed is returned by GetOutputs when the end node broadcasts a
// close instead of a value.
var ErrClosed = &ShutdownError{}
