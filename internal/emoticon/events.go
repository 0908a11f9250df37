package emoticon

import (
	"github.com/sashabaranov/go-openai"

	"github.com/haytac/emoticon-bot/pkg/interfaces"
)

// Event is one of PromptEvent, MessageEvent or ResponseEvent.
type Event interface {
	eventKind() string
}

// PromptEvent is raised while the host builds the model prompt. Handlers may modify Prompt.
type PromptEvent struct {
	Prompt []openai.ChatCompletionMessage
}

// MessageEvent is raised for an inbound user message before default handling.
type MessageEvent struct {
	Text        string
	Destination interfaces.Destination

	prevented bool
	replies   [][]interfaces.MessagePart
}

// PreventDefault stops the host from handling the message further.
func (e *MessageEvent) PreventDefault() { e.prevented = true }

// DefaultPrevented reports whether PreventDefault was called.
func (e *MessageEvent) DefaultPrevented() bool { return e.prevented }

// AddReply registers a reply payload for the host to send.
func (e *MessageEvent) AddReply(parts []interfaces.MessagePart) {
	e.replies = append(e.replies, parts)
}

// Replies returns the registered reply payloads.
func (e *MessageEvent) Replies() [][]interfaces.MessagePart { return e.replies }

// ResponseEvent is raised when the model produced a reply for Destination.
type ResponseEvent struct {
	Text        string
	Destination interfaces.Destination

	prevented bool
}

// PreventDefault stops the host from sending Text itself.
func (e *ResponseEvent) PreventDefault() { e.prevented = true }

// DefaultPrevented reports whether PreventDefault was called.
func (e *ResponseEvent) DefaultPrevented() bool { return e.prevented }

func (*PromptEvent) eventKind() string   { return "prompt" }
func (*MessageEvent) eventKind() string  { return "message" }
func (*ResponseEvent) eventKind() string { return "response" }
