package engine

import (
	"context"

	"github.com/agentnodes/nodeflow/internal/agent"
	"github.com/agentnodes/nodeflow/internal/catalog"
	"github.com/agentnodes/nodeflow/internal/obslog"
	"github.com/agentnodes/nodeflow/internal/values"
)

// opAgent evaluates the AgentOp(...) family (§4.2).
func opAgent(ctx context.Context, eval *Evaluator, node *ExecutionNode, op catalog.AtomicOp, inputs []values.DataValue) ([]values.DataValue, error) {
	switch op.AgentOp {
	case catalog.AgentCreate:
		return agentCreate(eval, node, op, inputs)
	case catalog.AgentSend:
		return agentSend(ctx, eval, inputs)
	case catalog.AgentReceive:
		return agentReceive(eval, inputs)
	default:
		return nil, NewTypeError("agent: unknown operation", nil, nil)
	}
}

func agentCreate(eval *Evaluator, node *ExecutionNode, op catalog.AtomicOp, inputs []values.DataValue) ([]values.DataValue, error) {
	if stored, ok := node.Stored(); ok {
		return []values.DataValue{stored}, nil
	}
	if len(inputs) != 3 {
		return nil, NewArityError("agent(create)", len(inputs), 3)
	}

	args, err := agent.ParseArgs(inputs[0], inputs[1], inputs[2])
	if err != nil {
		return nil, err
	}

	a, err := agent.NewOpenAI(agent.ResolveAPIKey(""), args)
	if err != nil {
		return nil, err
	}

	id := eval.RegisterAgent(a)
	v := values.Agent(op.AgentKind, id)
	node.SetStored(v)
	return []values.DataValue{v}, nil
}

func agentSend(ctx context.Context, eval *Evaluator, inputs []values.DataValue) ([]values.DataValue, error) {
	if len(inputs) != 2 {
		return nil, NewArityError("agent(send)", len(inputs), 2)
	}
	ref, ok := inputs[0].AsAgent()
	if !ok {
		return nil, NewTypeError("agent(send)", []values.DataType{inputs[0].Type()}, []values.DataType{values.TypeAgent})
	}
	message, ok := inputs[1].AsString()
	if !ok {
		return nil, NewTypeError("agent(send)", []values.DataType{inputs[1].Type()}, []values.DataType{values.TypeString})
	}

	a, err := eval.FindAgent(ref.ID)
	if err != nil {
		return nil, err
	}
	spanCtx, endSpan := obslog.StartSpan(ctx, "agent.send")
	err = a.Send(spanCtx, message)
	endSpan()
	if err != nil {
		return nil, err
	}
	return []values.DataValue{values.None()}, nil
}

func agentReceive(eval *Evaluator, inputs []values.DataValue) ([]values.DataValue, error) {
	if len(inputs) != 1 {
		return nil, NewArityError("agent(recieve)", len(inputs), 1)
	}
	ref, ok := inputs[0].AsAgent()
	if !ok {
		return nil, NewTypeError("agent(recieve)", []values.DataType{inputs[0].Type()}, []values.DataType{values.TypeAgent})
	}
	a, err := eval.FindAgent(ref.ID)
	if err != nil {
		return nil, err
	}
	if content, ok := a.LastResponse(); ok {
		return []values.DataValue{values.String(content)}, nil
	}
	if name, argsJSON, ok := a.LastFunctionCall(); ok {
		return []values.DataValue{values.Object(map[string]values.DataValue{
			"name":      values.String(name),
			"arguments": values.String(argsJSON),
		})}, nil
	}
	return []values.DataValue{values.None()}, nil
}
