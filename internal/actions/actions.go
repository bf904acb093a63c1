// Package actions defines the tool surface exposed to the agent and the
// toolkit that combines action providers into one callable set.
package actions

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
)

// Tool is one invocable operation exposed to the model.
type Tool interface {
	Name() string
	Definition() openai.ChatCompletionToolParam
	Execute(ctx context.Context, argText string) (string, error)
}

// Provider exposes a named group of tools.
type Provider interface {
	Name() string
	Tools() []Tool
}

// Toolkit combines the tools of several providers. Tool names must be unique
// across providers.
type Toolkit struct {
	tools  map[string]Tool
	params []openai.ChatCompletionToolParam
}

func NewToolkit(providers ...Provider) (*Toolkit, error) {
	kit := &Toolkit{tools: make(map[string]Tool)}
	for _, provider := range providers {
		for _, tool := range provider.Tools() {
			if _, exists := kit.tools[tool.Name()]; exists {
				return nil, fmt.Errorf("duplicate tool %q from provider %q", tool.Name(), provider.Name())
			}
			kit.tools[tool.Name()] = tool
			kit.params = append(kit.params, tool.Definition())
		}
	}
	return kit, nil
}

// Definitions returns the callable tool list for the completion API.
func (t *Toolkit) Definitions() []openai.ChatCompletionToolParam {
	return t.params
}

// Execute dispatches one tool call. Failures are folded into the JSON
// response so the model sees them instead of aborting the turn.
func (t *Toolkit) Execute(ctx context.Context, call openai.ChatCompletionMessageToolCall) string {
	select {
	case <-ctx.Done():
		return MarshalResponse(call.Function.Name, nil, ctx.Err())
	default:
	}

	tool, ok := t.tools[call.Function.Name]
	if !ok {
		return MarshalResponse(call.Function.Name, nil, fmt.Errorf("unknown tool: %s", call.Function.Name))
	}
	out, err := tool.Execute(ctx, call.Function.Arguments)
	if err != nil {
		return MarshalResponse(call.Function.Name, nil, err)
	}
	return out
}

type response struct {
	OK   bool   `json:"ok"`
	Tool string `json:"tool,omitempty"`
	Data any    `json:"data,omitempty"`
	Err  string `json:"error,omitempty"`
}

// MarshalResponse encodes a tool result as the JSON payload returned to the
// model.
func MarshalResponse(tool string, data any, err error) string {
	resp := response{OK: err == nil, Tool: tool, Data: data}
	if err != nil {
		resp.Err = err.Error()
	}
	payload, marshalErr := json.Marshal(resp)
	if marshalErr != nil {
		return fmt.Sprintf(`{"ok":false,"tool":%q,"error":%q}`, tool, marshalErr.Error())
	}
	return string(payload)
}
