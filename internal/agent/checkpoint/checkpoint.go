// Package checkpoint retains conversation history per thread so multi-turn
// context survives across agent runs within one process.
package checkpoint

import (
	"sync"

	"github.com/openai/openai-go"
)

// MemoryStore holds message history keyed by thread id. It lives only for the
// process lifetime; the wallet snapshot file is the sole durable state.
type MemoryStore struct {
	mu      sync.Mutex
	threads map[string][]openai.ChatCompletionMessageParamUnion
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{threads: make(map[string][]openai.ChatCompletionMessageParamUnion)}
}

// Messages returns a copy of the history for a thread.
func (s *MemoryStore) Messages(threadID string) []openai.ChatCompletionMessageParamUnion {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := s.threads[threadID]
	out := make([]openai.ChatCompletionMessageParamUnion, len(history))
	copy(out, history)
	return out
}

// Append adds messages to a thread's history.
func (s *MemoryStore) Append(threadID string, messages ...openai.ChatCompletionMessageParamUnion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threads[threadID] = append(s.threads[threadID], messages...)
}

// Replace overwrites a thread's history wholesale.
func (s *MemoryStore) Replace(threadID string, messages []openai.ChatCompletionMessageParamUnion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := make([]openai.ChatCompletionMessageParamUnion, len(messages))
	copy(history, messages)
	s.threads[threadID] = history
}

// Len reports the number of stored messages for a thread.
func (s *MemoryStore) Len(threadID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.threads[threadID])
}
