package app

import (
	"sync"

	"github.com/sashabaranov/go-openai"
)

// History keeps the most recent user/assistant turns per conversation.
type History struct {
	mu       sync.Mutex
	maxTurns int
	turns    map[string][]openai.ChatCompletionMessage
}

// NewHistory keeps up to maxTurns messages per conversation; zero disables history.
func NewHistory(maxTurns int) *History {
	return &History{maxTurns: maxTurns, turns: make(map[string][]openai.ChatCompletionMessage)}
}

// Get returns a copy of the stored turns for conversationID, oldest first.
func (h *History) Get(conversationID string) []openai.ChatCompletionMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	stored := h.turns[conversationID]
	out := make([]openai.ChatCompletionMessage, len(stored))
	copy(out, stored)
	return out
}

// Append adds messages and drops the oldest beyond the limit.
func (h *History) Append(conversationID string, messages ...openai.ChatCompletionMessage) {
	if h.maxTurns <= 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	turns := append(h.turns[conversationID], messages...)
	if len(turns) > h.maxTurns {
		turns = append([]openai.ChatCompletionMessage(nil), turns[len(turns)-h.maxTurns:]...)
	}
	h.turns[conversationID] = turns
}
