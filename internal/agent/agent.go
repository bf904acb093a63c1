// Package agent assembles the language model, the toolkit, and the
// conversation checkpoint store into a stateful chat agent.
package agent

import (
	"context"
	"errors"
	"log"

	"github.com/openai/openai-go"

	"github.com/ggonzalez94/onchain-agent/internal/actions"
	"github.com/ggonzalez94/onchain-agent/internal/agent/checkpoint"
	"github.com/ggonzalez94/onchain-agent/internal/llm"
)

const defaultMaxTurns = 10

type Config struct {
	Model        llm.CompletionService
	Toolkit      *actions.Toolkit
	Checkpoints  *checkpoint.MemoryStore
	SystemPrompt string
	// MaxTurns bounds tool-call rounds within one user turn.
	MaxTurns int
	Verbose  bool
}

type Agent struct {
	model        llm.CompletionService
	toolkit      *actions.Toolkit
	checkpoints  *checkpoint.MemoryStore
	systemPrompt string
	maxTurns     int
	verbose      bool
}

func New(cfg Config) (*Agent, error) {
	if cfg.Model == nil {
		return nil, errors.New("agent: model is required")
	}
	if cfg.Toolkit == nil {
		return nil, errors.New("agent: toolkit is required")
	}
	if cfg.Checkpoints == nil {
		return nil, errors.New("agent: checkpoint store is required")
	}
	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}
	return &Agent{
		model:        cfg.Model,
		toolkit:      cfg.Toolkit,
		checkpoints:  cfg.Checkpoints,
		systemPrompt: cfg.SystemPrompt,
		maxTurns:     maxTurns,
		verbose:      cfg.Verbose,
	}, nil
}

// Run submits one user turn on the given thread and returns the chunk stream
// for its response. The stream performs model and tool calls lazily as it is
// drained; history is committed to the checkpoint store when the stream ends
// without error.
func (a *Agent) Run(ctx context.Context, threadID, input string) *Stream {
	messages := a.checkpoints.Messages(threadID)
	if len(messages) == 0 && a.systemPrompt != "" {
		messages = append(messages, openai.SystemMessage(a.systemPrompt))
	}
	messages = append(messages, openai.UserMessage(input))

	return &Stream{
		agent:    a,
		ctx:      ctx,
		threadID: threadID,
		messages: messages,
	}
}

func (a *Agent) step(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (openai.ChatCompletionMessage, error) {
	if a.verbose {
		log.Printf("[verbose] agent step: %d messages", len(messages))
	}
	return a.model.Complete(ctx, messages, a.toolkit.Definitions())
}
