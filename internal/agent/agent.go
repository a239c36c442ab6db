// Package agent adapts the LLM vendor SDK behind the opaque interface the
// evaluator's AgentOp dispatch needs (§4.2 AgentOp table). The vendor SDK
// itself is treated as an external collaborator; this package is the one
// place that imports it.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/agentnodes/nodeflow/internal/values"
)

// Agent is the opaque handle AgentOp(Send)/AgentOp(Recieve) operate
// against. A concrete agent accumulates a chat transcript across repeated
// Send calls.
type Agent interface {
	// Send appends message to the transcript as a user turn, calls the
	// vendor, and appends the reply.
	Send(ctx context.Context, message string) error
	// LastResponse returns the most recent assistant reply's text
	// content, if any.
	LastResponse() (string, bool)
	// LastFunctionCall returns the most recent assistant reply's
	// function/tool call, if the vendor returned one instead of plain
	// content.
	LastFunctionCall() (name, argsJSON string, ok bool)
}

// Args is the parsed form of AgentOp(Create(kind))'s three inputs:
// model, functions (optional), temperature (optional).
type Args struct {
	Model       string
	Functions   []openai.FunctionDefinition
	Temperature float32
}

// ParseArgs extracts Args from the three DataValues AgentOp(Create)
// receives, following original_source's AgentArgs::from_values.
func ParseArgs(model, functions, temperature values.DataValue) (Args, error) {
	m, ok := model.AsString()
	if !ok {
		return Args{}, fmt.Errorf("agent: Create: model input must be a string")
	}

	args := Args{Model: m, Temperature: 1.0}

	if temperature.Type() != values.TypeNone {
		t, ok := temperature.AsFloat()
		if !ok {
			return Args{}, fmt.Errorf("agent: Create: temperature input must be a float or None")
		}
		args.Temperature = float32(t)
	}

	if functions.Type() != values.TypeNone {
		arr, ok := functions.AsArray()
		if !ok {
			return Args{}, fmt.Errorf("agent: Create: functions input must be an array or None")
		}
		for _, f := range arr {
			obj, ok := f.AsObject()
			if !ok {
				return Args{}, fmt.Errorf("agent: Create: each function definition must be an object")
			}
			def := openai.FunctionDefinition{}
			if name, ok := obj["name"]; ok {
				def.Name, _ = name.AsString()
			}
			if desc, ok := obj["description"]; ok {
				def.Description, _ = desc.AsString()
			}
			if params, ok := obj["parameters"]; ok {
				raw, err := params.MarshalJSON()
				if err != nil {
					return Args{}, fmt.Errorf("agent: Create: encoding function parameters: %w", err)
				}
				var schema any
				if err := json.Unmarshal(raw, &schema); err != nil {
					return Args{}, fmt.Errorf("agent: Create: decoding function parameters: %w", err)
				}
				def.Parameters = schema
			}
			args.Functions = append(args.Functions, def)
		}
	}

	return args, nil
}

// ResolveAPIKey follows the config > environment > empty resolution order
// used throughout the node executors this package is grounded on.
func ResolveAPIKey(fromConfig string) string {
	if fromConfig != "" {
		return fromConfig
	}
	return os.Getenv("OPENAI_API_KEY")
}

// openAIAgent is the concrete Agent backed by github.com/sashabaranov/go-openai.
type openAIAgent struct {
	client *openai.Client
	args   Args

	mu           sync.Mutex
	history      []openai.ChatCompletionMessage
	lastContent  string
	hasContent   bool
	lastFuncName string
	lastFuncArgs string
	hasFuncCall  bool
}

// NewOpenAI constructs an Agent bound to apiKey and args. Memoized by the
// caller (the node's stored value) so repeated evaluations of the same
// Create node reuse one transcript.
func NewOpenAI(apiKey string, args Args) (Agent, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("agent: no OpenAI API key configured")
	}
	return &openAIAgent{
		client: openai.NewClient(apiKey),
		args:   args,
	}, nil
}

func (a *openAIAgent) Send(ctx context.Context, message string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.history = append(a.history, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})

	req := openai.ChatCompletionRequest{
		Model:       a.args.Model,
		Messages:    a.history,
		Temperature: a.args.Temperature,
	}
	if len(a.args.Functions) > 0 {
		for _, fn := range a.args.Functions {
			req.Tools = append(req.Tools, openai.Tool{
				Type:     openai.ToolTypeFunction,
				Function: &fn,
			})
		}
	}

	log.Debug().Str("model", a.args.Model).Int("history", len(a.history)).Msg("agent send")

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return fmt.Errorf("agent: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return fmt.Errorf("agent: chat completion returned no choices")
	}

	reply := resp.Choices[0].Message
	a.history = append(a.history, reply)

	a.hasContent = reply.Content != ""
	a.lastContent = reply.Content
	a.hasFuncCall = false

	if len(reply.ToolCalls) > 0 {
		tc := reply.ToolCalls[0]
		a.hasFuncCall = true
		a.lastFuncName = tc.Function.Name
		a.lastFuncArgs = tc.Function.Arguments
	} else if reply.FunctionCall != nil {
		a.hasFuncCall = true
		a.lastFuncName = reply.FunctionCall.Name
		a.lastFuncArgs = reply.FunctionCall.Arguments
	}

	return nil
}

func (a *openAIAgent) LastResponse() (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastContent, a.hasContent
}

func (a *openAIAgent) LastFunctionCall() (string, string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastFuncName, a.lastFuncArgs, a.hasFuncCall
}
