package formatter

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/microcosm-cc/bluemonday"

	"github.com/haytac/emoticon-bot/pkg/interfaces"
)

const (
	defaultParseMode = tgbotapi.ModeHTML
	// MaxMessageLength is Telegram's limit for one text message, in characters.
	MaxMessageLength = 4096
)

// TextFormatter turns model text into Telegram HTML message parts.
type TextFormatter struct {
	policy           *bluemonday.Policy
	renderShortcodes bool
}

// NewTextFormatter creates a formatter. With renderShortcodes, :smile: style emoji
// shortcodes are replaced by unicode emoji.
func NewTextFormatter(renderShortcodes bool) *TextFormatter {
	return &TextFormatter{policy: telegramPolicy(), renderShortcodes: renderShortcodes}
}

// telegramPolicy keeps the subset of HTML the Bot API accepts and escapes everything else.
func telegramPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("b", "strong", "i", "em", "u", "ins", "s", "strike", "del", "code", "pre", "blockquote")
	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("http", "https", "tg", "mailto")
	p.RequireParseableURLs(true)
	return p
}

// Sanitize returns text as Telegram-safe HTML.
func (f *TextFormatter) Sanitize(text string) string {
	if f.renderShortcodes {
		text = RenderShortcodes(text)
	}
	return strings.TrimSpace(f.policy.Sanitize(text))
}

// Format sanitizes part when it is text and splits it at the message length limit.
// Image parts are returned unchanged.
func (f *TextFormatter) Format(part interfaces.MessagePart) []interfaces.MessagePart {
	if part.Kind != interfaces.PartText {
		return []interfaces.MessagePart{part}
	}
	return SplitMessage(f.Sanitize(part.Text), defaultParseMode)
}

// FormatAll applies Format to every part, preserving order.
func (f *TextFormatter) FormatAll(parts []interfaces.MessagePart) []interfaces.MessagePart {
	out := make([]interfaces.MessagePart, 0, len(parts))
	for _, p := range parts {
		out = append(out, f.Format(p)...)
	}
	return out
}

// SplitMessage cuts text into parts of at most MaxMessageLength runes, preferring to
// break after a newline in the second half of each chunk. Empty text yields no parts.
func SplitMessage(text, parseMode string) []interfaces.MessagePart {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	var parts []interfaces.MessagePart
	for len(runes) > 0 {
		end := len(runes)
		if end > MaxMessageLength {
			end = MaxMessageLength
			for i := end - 1; i > MaxMessageLength/2; i-- {
				if runes[i] == '\n' {
					end = i + 1
					break
				}
			}
		}
		parts = append(parts, interfaces.MessagePart{Kind: interfaces.PartText, Text: string(runes[:end]), ParseMode: parseMode})
		runes = runes[end:]
	}
	return parts
}
