// Package llm wraps the chat-completion backend behind a minimal interface so
// the agent can be exercised against fakes in tests.
package llm

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// CompletionService produces one assistant message for a conversation state.
type CompletionService interface {
	Complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, tools []openai.ChatCompletionToolParam) (openai.ChatCompletionMessage, error)
}

// OpenAI is the production CompletionService bound to a fixed model id.
type OpenAI struct {
	client openai.Client
	model  openai.ChatModel
}

func NewOpenAI(apiKey, model string) *OpenAI {
	return &OpenAI{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  openai.ChatModel(model),
	}
}

func (o *OpenAI) Complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, tools []openai.ChatCompletionToolParam) (openai.ChatCompletionMessage, error) {
	params := openai.ChatCompletionNewParams{
		Model:    o.model,
		Messages: messages,
	}
	if len(tools) > 0 {
		params.Tools = tools
	}
	completion, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return openai.ChatCompletionMessage{}, err
	}
	if len(completion.Choices) == 0 {
		return openai.ChatCompletionMessage{}, errors.New("empty completion choices")
	}
	return completion.Choices[0].Message, nil
}
