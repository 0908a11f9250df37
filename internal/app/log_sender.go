package app

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/haytac/emoticon-bot/pkg/interfaces"
)

// LogSender is the dry-run Sender: it logs what would be sent and always succeeds.
type LogSender struct {
	logger zerolog.Logger
}

// NewLogSender creates a LogSender writing to logger.
func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendMessage(_ context.Context, dest interfaces.Destination, parts []interfaces.MessagePart) error {
	for i, p := range parts {
		e := s.logger.Info().
			Str("platform", dest.Platform).
			Str("conversation_id", dest.ConversationID).
			Int("part_index", i).
			Str("part", p.Kind.String())
		switch p.Kind {
		case interfaces.PartImagePath:
			e = e.Str("path", p.Path).Str("emoticon", p.Emoticon)
		case interfaces.PartImageURL:
			e = e.Str("url", p.URL).Str("emoticon", p.Emoticon)
		default:
			e = e.Str("text", p.Text)
		}
		e.Msg("[DRY RUN] Would send message part")
	}
	return nil
}

func (s *LogSender) Name() string { return "dry-run" }
