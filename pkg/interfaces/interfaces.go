package interfaces

import (
	"context"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"github.com/haytac/emoticon-bot/internal/config"
	"github.com/haytac/emoticon-bot/internal/database"
)

// PartKind tags a MessagePart.
type PartKind int

const (
	PartText PartKind = iota
	PartImagePath
	PartImageURL
)

func (k PartKind) String() string {
	switch k {
	case PartImagePath:
		return "image_path"
	case PartImageURL:
		return "image_url"
	default:
		return "text"
	}
}

// MessagePart is one typed piece of an outbound message.
type MessagePart struct {
	Kind      PartKind
	Text      string
	Path      string
	URL       string
	Emoticon  string // catalog name for image parts
	ParseMode string
}

// TextPart builds a plain text part.
func TextPart(text string) MessagePart {
	return MessagePart{Kind: PartText, Text: text}
}

// Destination identifies where a message goes: platform type plus conversation ID.
type Destination struct {
	Platform       string
	ConversationID string
}

// Sender delivers message parts to a destination.
type Sender interface {
	SendMessage(ctx context.Context, dest Destination, parts []MessagePart) error
	Name() string
}

// ChatCompleter produces a model reply for a role-tagged prompt sequence.
type ChatCompleter interface {
	Complete(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error)
}

// DeliveryRecorder stores the outcome of a send attempt.
type DeliveryRecorder interface {
	RecordDelivery(ctx context.Context, d *database.Delivery) (int64, error)
}

// HTTPClientFactory creates HTTP clients.
type HTTPClientFactory interface {
	GetClient(proxy *config.ProxyConfig) (*http.Client, error)
}

// ProxyValidator checks if a proxy is working.
type ProxyValidator interface {
	Validate(ctx context.Context, proxy *config.ProxyConfig, targetURL string) error
}
