package engine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"github.com/agentnodes/nodeflow/internal/catalog"
	"github.com/agentnodes/nodeflow/internal/values"
)

var stdinReader = bufio.NewReader(os.Stdin)

// opIO evaluates the Io(...) operation family (§4.2).
func opIO(_ context.Context, eval *Evaluator, node *ExecutionNode, op catalog.AtomicOp, inputs []values.DataValue) ([]values.DataValue, error) {
	switch op.IOOp {
	case catalog.IOConsoleInput:
		return ioConsoleInput()
	case catalog.IOOpen:
		return ioOpen(eval, node, op, inputs)
	case catalog.IOGetLine:
		return ioGetLine(eval, inputs)
	case catalog.IORead:
		return ioRead(eval, inputs)
	case catalog.IOWrite:
		return ioWrite(eval, inputs)
	default:
		return nil, NewTypeError("io: unknown operation", nil, nil)
	}
}

func ioConsoleInput() ([]values.DataValue, error) {
	line, err := stdinReader.ReadString('\n')
	if err != nil && line == "" {
		return nil, NewIOError("console_input", err)
	}
	return []values.DataValue{values.String(line)}, nil
}

// ioOpen opens a file or TCP socket handle, memoizing it on the node's
// stored value so repeated invocations reuse the same handle. A failed
// open is not memoized, so the next trigger retries it (§9).
func ioOpen(eval *Evaluator, node *ExecutionNode, op catalog.AtomicOp, inputs []values.DataValue) ([]values.DataValue, error) {
	if stored, ok := node.Stored(); ok {
		return []values.DataValue{stored}, nil
	}

	var (
		handle io.ReadWriteCloser
		err    error
	)

	switch op.IOType {
	case catalog.IOHandleFile:
		if len(inputs) != 1 {
			return nil, NewArityError("io(open:file)", len(inputs), 1)
		}
		path, ok := inputs[0].AsString()
		if !ok {
			return nil, NewTypeError("io(open:file)", []values.DataType{inputs[0].Type()}, []values.DataType{values.TypeString})
		}
		handle, err = os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	case catalog.IOHandleTCPSocket:
		if len(inputs) != 2 {
			return nil, NewArityError("io(open:tcp_socket)", len(inputs), 2)
		}
		host, ok := inputs[0].AsString()
		if !ok {
			return nil, NewTypeError("io(open:tcp_socket)", []values.DataType{inputs[0].Type()}, []values.DataType{values.TypeString})
		}
		port, ok := inputs[1].AsInteger()
		if !ok {
			return nil, NewTypeError("io(open:tcp_socket)", []values.DataType{inputs[1].Type()}, []values.DataType{values.TypeInteger})
		}
		handle, err = net.Dial("tcp", fmt.Sprintf("%s:%d", host, port))
	default:
		return nil, NewTypeError("io(open): unknown handle type", nil, nil)
	}

	if err != nil {
		return nil, NewIOError("open", err)
	}

	id := eval.RegisterIO(handle)
	v := values.Handle(id)
	node.SetStored(v)
	return []values.DataValue{v}, nil
}

func ioGetLine(eval *Evaluator, inputs []values.DataValue) ([]values.DataValue, error) {
	if len(inputs) != 1 {
		return nil, NewArityError("io(get_line)", len(inputs), 1)
	}
	id, ok := inputs[0].AsHandle()
	if !ok {
		return nil, NewTypeError("io(get_line)", []values.DataType{inputs[0].Type()}, []values.DataType{values.TypeHandle})
	}
	handle, err := eval.FindIO(id)
	if err != nil {
		return nil, err
	}

	line := string(ReadUntil(handle, []byte("\n")))
	if strings.HasSuffix(line, "\r\n") {
		line = strings.TrimSuffix(line, "\r\n") + "\n"
	}
	return []values.DataValue{values.String(line)}, nil
}

func ioRead(eval *Evaluator, inputs []values.DataValue) ([]values.DataValue, error) {
	if len(inputs) != 2 {
		return nil, NewArityError("io(read)", len(inputs), 2)
	}
	id, ok := inputs[0].AsHandle()
	if !ok {
		return nil, NewTypeError("io(read)", []values.DataType{inputs[0].Type()}, []values.DataType{values.TypeHandle})
	}
	size, ok := inputs[1].AsInteger()
	if !ok {
		return nil, NewTypeError("io(read)", []values.DataType{inputs[1].Type()}, []values.DataType{values.TypeInteger})
	}
	if size == 0 {
		return []values.DataValue{values.Array(nil)}, nil
	}
	handle, err := eval.FindIO(id)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, size)
	n, err := handle.Read(buf)
	if err != nil && n == 0 {
		return nil, NewIOError("read", err)
	}

	out := make([]values.DataValue, n)
	for i := 0; i < n; i++ {
		out[i] = values.Byte(buf[i])
	}
	return []values.DataValue{values.Array(out)}, nil
}

func ioWrite(eval *Evaluator, inputs []values.DataValue) ([]values.DataValue, error) {
	if len(inputs) != 2 {
		return nil, NewArityError("io(write)", len(inputs), 2)
	}
	id, ok := inputs[0].AsHandle()
	if !ok {
		return nil, NewTypeError("io(write)", []values.DataType{inputs[0].Type()}, []values.DataType{values.TypeHandle})
	}
	s, ok := inputs[1].AsString()
	if !ok {
		return nil, NewTypeError("io(write)", []values.DataType{inputs[1].Type()}, []values.DataType{values.TypeString})
	}
	handle, err := eval.FindIO(id)
	if err != nil {
		return nil, err
	}
	if _, err := handle.Write([]byte(s)); err != nil {
		return nil, NewIOError("write", err)
	}
	return []values.DataValue{values.None()}, nil
}
