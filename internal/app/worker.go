package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"github.com/haytac/emoticon-bot/internal/emoticon"
	"github.com/haytac/emoticon-bot/internal/telegram"
	"github.com/haytac/emoticon-bot/pkg/interfaces"
)

const fallbackReply = "Sorry, I couldn't come up with a reply right now."

// ChatWorker handles one inbound chat message end to end: plugin message hook, prompt
// assembly, model call, and response delivery.
type ChatWorker struct {
	plugin       *emoticon.Plugin
	completer    interfaces.ChatCompleter
	sender       interfaces.Sender
	history      *History
	systemPrompt string
	timeout      time.Duration
	logger       zerolog.Logger
}

// NewChatWorker creates a ChatWorker.
func NewChatWorker(
	plugin *emoticon.Plugin,
	completer interfaces.ChatCompleter,
	sender interfaces.Sender,
	history *History,
	systemPrompt string,
	logger zerolog.Logger,
) *ChatWorker {
	if history == nil {
		history = NewHistory(0)
	}
	return &ChatWorker{
		plugin:       plugin,
		completer:    completer,
		sender:       sender,
		history:      history,
		systemPrompt: systemPrompt,
		timeout:      5 * time.Minute,
		logger:       logger,
	}
}

// BuildPrompt assembles system prompt, history and the new user message, then lets the
// plugin add its emoticon instruction.
func (w *ChatWorker) BuildPrompt(ctx context.Context, conversationID, text string) []openai.ChatCompletionMessage {
	prompt := make([]openai.ChatCompletionMessage, 0, 8)
	if w.systemPrompt != "" {
		prompt = append(prompt, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: w.systemPrompt})
	}
	prompt = append(prompt, w.history.Get(conversationID)...)
	prompt = append(prompt, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: text})

	ev := &emoticon.PromptEvent{Prompt: prompt}
	if err := w.plugin.Handle(ctx, ev, nil); err != nil {
		w.logger.Error().Err(err).Msg("Failed to add emoticon instruction to prompt")
		return prompt
	}
	return ev.Prompt
}

// HandleMessage processes one incoming message.
func (w *ChatWorker) HandleMessage(ctx context.Context, in telegram.Incoming) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	l := w.logger.With().
		Str("platform", in.Destination.Platform).
		Str("conversation_id", in.Destination.ConversationID).
		Logger()
	l.Debug().Str("from", in.From).Int("text_length", len(in.Text)).Msg("Handling incoming message")

	msgEv := &emoticon.MessageEvent{Text: in.Text, Destination: in.Destination}
	if err := w.plugin.Handle(ctx, msgEv, nil); err != nil {
		l.Error().Err(err).Msg("Emoticon message hook failed")
	}
	if msgEv.DefaultPrevented() {
		for _, reply := range msgEv.Replies() {
			if err := w.sender.SendMessage(ctx, in.Destination, reply); err != nil {
				l.Error().Err(err).Msg("Failed to send emoticon reply")
			}
		}
		return
	}

	prompt := w.BuildPrompt(ctx, in.Destination.ConversationID, in.Text)
	reply, err := w.completer.Complete(ctx, prompt)
	if err != nil {
		l.Error().Err(err).Msg("Chat completion failed")
		if err := w.sender.SendMessage(ctx, in.Destination, []interfaces.MessagePart{interfaces.TextPart(fallbackReply)}); err != nil {
			l.Error().Err(err).Msg("Failed to send fallback reply")
		}
		return
	}
	w.history.Append(in.Destination.ConversationID,
		openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: in.Text},
		openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: reply},
	)

	respEv := &emoticon.ResponseEvent{Text: reply, Destination: in.Destination}
	if err := w.plugin.Handle(ctx, respEv, w.sender); err != nil {
		l.Error().Err(err).Msg("Emoticon response hook failed")
	}
	if respEv.DefaultPrevented() {
		return
	}
	if err := w.sender.SendMessage(ctx, in.Destination, []interfaces.MessagePart{interfaces.TextPart(reply)}); err != nil {
		l.Error().Err(err).Msg("Failed to send reply")
	}
}
