package telegram

import (
	"context"
	"slices"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/haytac/emoticon-bot/pkg/interfaces"
)

// Incoming is a text message received from a chat.
type Incoming struct {
	Destination interfaces.Destination
	MessageID   int
	From        string
	Text        string
}

// fromUpdate converts u to an Incoming. Non-text updates and chats outside allowed
// (when non-empty) are rejected.
func fromUpdate(u tgbotapi.Update, allowed []int64) (Incoming, bool) {
	msg := u.Message
	if msg == nil || msg.Chat == nil || msg.Text == "" {
		return Incoming{}, false
	}
	if len(allowed) > 0 && !slices.Contains(allowed, msg.Chat.ID) {
		log.Debug().Int64("chat_id", msg.Chat.ID).Msg("Ignoring message from chat outside the allow list")
		return Incoming{}, false
	}
	in := Incoming{
		Destination: interfaces.Destination{Platform: PlatformName, ConversationID: strconv.FormatInt(msg.Chat.ID, 10)},
		MessageID:   msg.MessageID,
		Text:        msg.Text,
	}
	if msg.From != nil {
		in.From = msg.From.UserName
	}
	return in, true
}

// Listen long-polls for updates and emits text messages until ctx is cancelled.
func (c *Client) Listen(ctx context.Context) (<-chan Incoming, error) {
	bot, err := c.getBotAPI()
	if err != nil {
		return nil, err
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = c.cfg.PollTimeout
	updates := bot.GetUpdatesChan(u)

	out := make(chan Incoming)
	go func() {
		defer close(out)
		defer bot.StopReceivingUpdates()
		for {
			select {
			case <-ctx.Done():
				return
			case upd, ok := <-updates:
				if !ok {
					return
				}
				in, ok := fromUpdate(upd, c.cfg.AllowedChatIDs)
				if !ok {
					continue
				}
				select {
				case out <- in:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	log.Info().Str("bot_username", bot.Self.UserName).Msg("Listening for Telegram updates")
	return out, nil
}
