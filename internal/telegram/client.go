package telegram

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/haytac/emoticon-bot/internal/config"
	"github.com/haytac/emoticon-bot/internal/formatter"
	"github.com/haytac/emoticon-bot/internal/metrics"
	"github.com/haytac/emoticon-bot/pkg/interfaces"
)

// PlatformName is the Destination.Platform value for Telegram chats.
const PlatformName = "telegram"

const (
	globalMessagesPerSecond = 25
	chatMessagesPerSecond   = 1
)

var _ interfaces.Sender = (*Client)(nil)

// Client wraps the Telegram Bot API with rate limiting. It implements interfaces.Sender.
type Client struct {
	cfg           config.TelegramConfig
	clientFactory interfaces.HTTPClientFactory
	formatter     *formatter.TextFormatter

	bot   *tgbotapi.BotAPI
	botMu sync.Mutex

	globalLimiter  *rate.Limiter
	chatLimiters   map[string]*rate.Limiter
	chatLimitersMu sync.Mutex
}

// NewClient creates a Telegram client. The bot is authorized lazily on first use.
func NewClient(cfg config.TelegramConfig, clientFactory interfaces.HTTPClientFactory, f *formatter.TextFormatter) *Client {
	if f == nil {
		f = formatter.NewTextFormatter(false)
	}
	return &Client{
		cfg:           cfg,
		clientFactory: clientFactory,
		formatter:     f,
		globalLimiter: rate.NewLimiter(rate.Limit(globalMessagesPerSecond), globalMessagesPerSecond*2),
		chatLimiters:  make(map[string]*rate.Limiter),
	}
}

func (c *Client) getBotAPI() (*tgbotapi.BotAPI, error) {
	c.botMu.Lock()
	defer c.botMu.Unlock()
	if c.bot != nil {
		return c.bot, nil
	}
	if c.cfg.Token == "" {
		return nil, fmt.Errorf("telegram bot token is not configured")
	}
	var proxyCfg *config.ProxyConfig
	if c.cfg.Proxy.Enabled() {
		proxyCfg = &c.cfg.Proxy
	}
	httpClient, err := c.clientFactory.GetClient(proxyCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to get HTTP client for Telegram bot: %w", err)
	}
	api, err := tgbotapi.NewBotAPIWithClient(c.cfg.Token, tgbotapi.APIEndpoint, httpClient)
	if err != nil {
		metrics.TelegramAPICalls.WithLabelValues("getMe", "error").Inc()
		return nil, fmt.Errorf("failed to create bot API instance: %w", err)
	}
	metrics.TelegramAPICalls.WithLabelValues("getMe", "success").Inc()
	log.Info().Str("bot_username", api.Self.UserName).Msg("Telegram bot authorized")
	c.bot = api
	return api, nil
}

func (c *Client) getChatLimiter(chatID string) *rate.Limiter {
	c.chatLimitersMu.Lock()
	defer c.chatLimitersMu.Unlock()
	limiter, exists := c.chatLimiters[chatID]
	if !exists {
		limiter = rate.NewLimiter(rate.Limit(chatMessagesPerSecond), chatMessagesPerSecond*2)
		c.chatLimiters[chatID] = limiter
	}
	return limiter
}

// baseChat targets a numeric chat ID, or a channel username such as @news.
func baseChat(chatID string) tgbotapi.BaseChat {
	if id, err := strconv.ParseInt(chatID, 10, 64); err == nil {
		return tgbotapi.BaseChat{ChatID: id}
	}
	return tgbotapi.BaseChat{ChannelUsername: chatID}
}

// buildChattable maps one part to a Bot API request. Empty parts yield nil.
func buildChattable(dest interfaces.Destination, part interfaces.MessagePart) tgbotapi.Chattable {
	chat := baseChat(dest.ConversationID)
	switch part.Kind {
	case interfaces.PartImagePath:
		if part.Path == "" {
			return nil
		}
		return tgbotapi.PhotoConfig{BaseFile: tgbotapi.BaseFile{BaseChat: chat, File: tgbotapi.FilePath(part.Path)}}
	case interfaces.PartImageURL:
		if part.URL == "" {
			return nil
		}
		return tgbotapi.PhotoConfig{BaseFile: tgbotapi.BaseFile{BaseChat: chat, File: tgbotapi.FileURL(part.URL)}}
	default:
		if part.Text == "" {
			return nil
		}
		return tgbotapi.MessageConfig{BaseChat: chat, Text: part.Text, ParseMode: part.ParseMode, DisableWebPagePreview: true}
	}
}

// SendMessage sends parts in order, formatting text parts as Telegram HTML. The first
// failing part aborts the rest.
func (c *Client) SendMessage(ctx context.Context, dest interfaces.Destination, parts []interfaces.MessagePart) error {
	bot, err := c.getBotAPI()
	if err != nil {
		return fmt.Errorf("getting bot API: %w", err)
	}

	operationLogger := log.With().Str("chat_id", dest.ConversationID).Str("bot_username", bot.Self.UserName).Logger()

	for i, part := range c.formatter.FormatAll(parts) {
		partLogger := operationLogger.With().Int("part_index", i).Str("part", part.Kind.String()).Logger()

		msg := buildChattable(dest, part)
		if msg == nil {
			partLogger.Warn().Msg("Skipping empty message part")
			continue
		}

		if err := c.globalLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("global rate limiter wait: %w", err)
		}
		if err := c.getChatLimiter(dest.ConversationID).Wait(ctx); err != nil {
			return fmt.Errorf("chat rate limiter wait for %s: %w", dest.ConversationID, err)
		}

		method := "sendMessage"
		if part.Kind != interfaces.PartText {
			method = "sendPhoto"
		}
		if _, err := bot.Send(msg); err != nil {
			metrics.TelegramAPICalls.WithLabelValues(method, "error").Inc()
			partLogger.Error().Err(err).Msg("Failed to send message to Telegram")
			return fmt.Errorf("sending %s to chat '%s': %w", part.Kind, dest.ConversationID, err)
		}
		metrics.TelegramAPICalls.WithLabelValues(method, "success").Inc()
		partLogger.Debug().Msg("Message part sent successfully")
	}
	return nil
}

// Name implements interfaces.Sender.
func (c *Client) Name() string {
	return PlatformName
}
