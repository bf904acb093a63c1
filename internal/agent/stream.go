package agent

import (
	"context"
	"errors"
	"log"

	"github.com/openai/openai-go"
)

// ChunkKind tags a streamed chunk by origin.
type ChunkKind int

const (
	// ChunkAgent carries model-generated assistant content.
	ChunkAgent ChunkKind = iota
	// ChunkTools carries the output of an executed tool call.
	ChunkTools
)

func (k ChunkKind) String() string {
	if k == ChunkTools {
		return "tools"
	}
	return "agent"
}

// Chunk is one incremental unit of an agent turn response.
type Chunk struct {
	Kind    ChunkKind
	Content string
}

// Stream yields the chunks of one agent turn. Usage follows the iterator
// shape of the completion SDK: for stream.Next() { stream.Chunk() } then
// stream.Err().
type Stream struct {
	agent    *Agent
	ctx      context.Context
	threadID string

	messages []openai.ChatCompletionMessageParamUnion
	queue    []Chunk
	current  Chunk
	turn     int
	done     bool
	err      error
}

// Next advances to the next chunk, driving model and tool calls as needed.
// It returns false when the turn is complete or an error occurred.
func (s *Stream) Next() bool {
	for len(s.queue) == 0 {
		if s.done || s.err != nil {
			return false
		}
		s.advance()
	}
	s.current = s.queue[0]
	s.queue = s.queue[1:]
	return true
}

// Chunk returns the chunk produced by the last successful Next.
func (s *Stream) Chunk() Chunk { return s.current }

// Err reports the error that terminated the stream, if any.
func (s *Stream) Err() error { return s.err }

func (s *Stream) advance() {
	if s.turn >= s.agent.maxTurns {
		s.fail(errors.New("max tool-call turns reached without a final response"))
		return
	}
	s.turn++

	message, err := s.agent.step(s.ctx, s.messages)
	if err != nil {
		s.fail(err)
		return
	}
	s.messages = append(s.messages, message.ToParam())

	// A step yields an agent chunk even when the model produced no text, so
	// every step stays visible to the consumer.
	s.queue = append(s.queue, Chunk{Kind: ChunkAgent, Content: message.Content})

	if len(message.ToolCalls) == 0 {
		s.done = true
		// The turn completed; make it visible to subsequent runs.
		s.agent.checkpoints.Replace(s.threadID, s.messages)
		return
	}

	for _, call := range message.ToolCalls {
		if s.agent.verbose {
			log.Printf("[verbose] tool call: %s(%s)", call.Function.Name, call.Function.Arguments)
		}
		output := s.agent.toolkit.Execute(s.ctx, call)
		s.messages = append(s.messages, openai.ToolMessage(output, call.ID))
		s.queue = append(s.queue, Chunk{Kind: ChunkTools, Content: output})
	}
}

func (s *Stream) fail(err error) {
	s.err = err
	s.done = true
}
