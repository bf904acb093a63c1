package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/openai/openai-go"

	"github.com/ggonzalez94/onchain-agent/internal/actions"
	"github.com/ggonzalez94/onchain-agent/internal/agent/checkpoint"
)

type scriptedModel struct {
	responses []openai.ChatCompletionMessage
	err       error
	calls     int
}

func (m *scriptedModel) Complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, tools []openai.ChatCompletionToolParam) (openai.ChatCompletionMessage, error) {
	if m.err != nil {
		return openai.ChatCompletionMessage{}, m.err
	}
	if m.calls >= len(m.responses) {
		return openai.ChatCompletionMessage{}, errors.New("scripted model exhausted")
	}
	resp := m.responses[m.calls]
	m.calls++
	return resp, nil
}

type echoTool struct{}

func (echoTool) Name() string { return "echo" }

func (echoTool) Definition() openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Function: openai.FunctionDefinitionParam{
			Name: "echo",
			Parameters: openai.FunctionParameters{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
	}
}

func (echoTool) Execute(ctx context.Context, argText string) (string, error) {
	return actions.MarshalResponse("echo", argText, nil), nil
}

type echoProvider struct{}

func (echoProvider) Name() string          { return "test" }
func (echoProvider) Tools() []actions.Tool { return []actions.Tool{echoTool{}} }

func newTestAgent(t *testing.T, model *scriptedModel) (*Agent, *checkpoint.MemoryStore) {
	t.Helper()
	kit, err := actions.NewToolkit(echoProvider{})
	if err != nil {
		t.Fatalf("NewToolkit failed: %v", err)
	}
	store := checkpoint.NewMemoryStore()
	a, err := New(Config{
		Model:        model,
		Toolkit:      kit,
		Checkpoints:  store,
		SystemPrompt: "test prompt",
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return a, store
}

func assistantMessage(content string, toolCalls ...openai.ChatCompletionMessageToolCall) openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{Content: content, ToolCalls: toolCalls}
}

func drain(t *testing.T, stream *Stream) []Chunk {
	t.Helper()
	var chunks []Chunk
	for stream.Next() {
		chunks = append(chunks, stream.Chunk())
	}
	return chunks
}

func TestRunYieldsAgentChunkForPlainResponse(t *testing.T) {
	model := &scriptedModel{responses: []openai.ChatCompletionMessage{
		assistantMessage("hello there"),
	}}
	a, store := newTestAgent(t, model)

	stream := a.Run(context.Background(), "thread", "hi")
	chunks := drain(t, stream)
	if err := stream.Err(); err != nil {
		t.Fatalf("stream error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Kind != ChunkAgent || chunks[0].Content != "hello there" {
		t.Fatalf("unexpected chunk: %+v", chunks[0])
	}
	// system + user + assistant committed for the next turn.
	if store.Len("thread") != 3 {
		t.Fatalf("expected committed history of 3, got %d", store.Len("thread"))
	}
}

func TestRunYieldsToolChunksThenFinalAnswer(t *testing.T) {
	call := openai.ChatCompletionMessageToolCall{
		ID: "call_1",
		Function: openai.ChatCompletionMessageToolCallFunction{
			Name:      "echo",
			Arguments: `{"x":1}`,
		},
	}
	model := &scriptedModel{responses: []openai.ChatCompletionMessage{
		assistantMessage("calling a tool", call),
		assistantMessage("all done"),
	}}
	a, _ := newTestAgent(t, model)

	stream := a.Run(context.Background(), "thread", "do it")
	chunks := drain(t, stream)
	if err := stream.Err(); err != nil {
		t.Fatalf("stream error: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %+v", len(chunks), chunks)
	}
	if chunks[0].Kind != ChunkAgent {
		t.Fatalf("first chunk should be agent, got %v", chunks[0].Kind)
	}
	if chunks[1].Kind != ChunkTools {
		t.Fatalf("second chunk should be tools, got %v", chunks[1].Kind)
	}
	if chunks[2].Kind != ChunkAgent || chunks[2].Content != "all done" {
		t.Fatalf("unexpected final chunk: %+v", chunks[2])
	}
	if model.calls != 2 {
		t.Fatalf("expected 2 model calls, got %d", model.calls)
	}
}

func TestRunPropagatesModelError(t *testing.T) {
	wantErr := errors.New("model unavailable")
	model := &scriptedModel{err: wantErr}
	a, store := newTestAgent(t, model)

	stream := a.Run(context.Background(), "thread", "hi")
	if chunks := drain(t, stream); len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %+v", chunks)
	}
	if !errors.Is(stream.Err(), wantErr) {
		t.Fatalf("expected model error, got %v", stream.Err())
	}
	// A failed turn must not pollute history.
	if store.Len("thread") != 0 {
		t.Fatalf("expected empty history after failure, got %d", store.Len("thread"))
	}
}

func TestRunStopsAtMaxTurns(t *testing.T) {
	call := openai.ChatCompletionMessageToolCall{
		ID: "call_loop",
		Function: openai.ChatCompletionMessageToolCallFunction{
			Name:      "echo",
			Arguments: `{}`,
		},
	}
	// Every response asks for another tool call, never concluding.
	responses := make([]openai.ChatCompletionMessage, 20)
	for i := range responses {
		responses[i] = assistantMessage("", call)
	}
	model := &scriptedModel{responses: responses}

	kit, err := actions.NewToolkit(echoProvider{})
	if err != nil {
		t.Fatalf("NewToolkit failed: %v", err)
	}
	a, err := New(Config{
		Model:       model,
		Toolkit:     kit,
		Checkpoints: checkpoint.NewMemoryStore(),
		MaxTurns:    3,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	stream := a.Run(context.Background(), "thread", "loop forever")
	chunks := drain(t, stream)
	if stream.Err() == nil {
		t.Fatal("expected max-turns error")
	}
	// Each capped step yields one agent chunk and one tools chunk.
	if len(chunks) != 6 {
		t.Fatalf("expected 6 chunks before the cap, got %d", len(chunks))
	}
	if model.calls != 3 {
		t.Fatalf("expected 3 model calls, got %d", model.calls)
	}
}

func TestRunEmitsAgentChunkForToolOnlyStep(t *testing.T) {
	call := openai.ChatCompletionMessageToolCall{
		ID: "call_silent",
		Function: openai.ChatCompletionMessageToolCallFunction{
			Name:      "echo",
			Arguments: `{}`,
		},
	}
	// The first step carries no text, only a tool call.
	model := &scriptedModel{responses: []openai.ChatCompletionMessage{
		assistantMessage("", call),
		assistantMessage("done"),
	}}
	a, _ := newTestAgent(t, model)

	stream := a.Run(context.Background(), "thread", "do it quietly")
	chunks := drain(t, stream)
	if err := stream.Err(); err != nil {
		t.Fatalf("stream error: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %+v", len(chunks), chunks)
	}
	if chunks[0].Kind != ChunkAgent || chunks[0].Content != "" {
		t.Fatalf("expected empty agent chunk first, got %+v", chunks[0])
	}
	if chunks[1].Kind != ChunkTools {
		t.Fatalf("second chunk should be tools, got %v", chunks[1].Kind)
	}
	if chunks[2].Kind != ChunkAgent || chunks[2].Content != "done" {
		t.Fatalf("unexpected final chunk: %+v", chunks[2])
	}
}

func TestHistoryCarriesAcrossTurns(t *testing.T) {
	model := &scriptedModel{responses: []openai.ChatCompletionMessage{
		assistantMessage("first"),
		assistantMessage("second"),
	}}
	a, store := newTestAgent(t, model)

	stream := a.Run(context.Background(), "thread", "one")
	drain(t, stream)
	if err := stream.Err(); err != nil {
		t.Fatalf("first turn failed: %v", err)
	}

	stream = a.Run(context.Background(), "thread", "two")
	drain(t, stream)
	if err := stream.Err(); err != nil {
		t.Fatalf("second turn failed: %v", err)
	}
	// system + (user, assistant) x2
	if store.Len("thread") != 5 {
		t.Fatalf("expected 5 messages, got %d", store.Len("thread"))
	}
}

func TestChunkKindString(t *testing.T) {
	if ChunkAgent.String() != "agent" || ChunkTools.String() != "tools" {
		t.Fatal("unexpected chunk kind names")
	}
}
