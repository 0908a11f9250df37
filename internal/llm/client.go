package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"

	"github.com/haytac/emoticon-bot/internal/config"
	"github.com/haytac/emoticon-bot/internal/metrics"
	"github.com/haytac/emoticon-bot/pkg/interfaces"
)

var (
	ErrMissingAPIKey = errors.New("llm API key not configured")
	ErrEmptyResponse = errors.New("model returned no choices")
)

var _ interfaces.ChatCompleter = (*Client)(nil)

// Client is an OpenAI-compatible chat completion client. It implements
// interfaces.ChatCompleter.
type Client struct {
	api *openai.Client
	cfg config.LLMConfig
}

// NewClient builds a client for cfg. HTTP traffic goes through the factory's client so
// the configured proxy applies.
func NewClient(cfg config.LLMConfig, factory interfaces.HTTPClientFactory, proxyCfg *config.ProxyConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if factory != nil {
		httpClient, err := factory.GetClient(proxyCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to get HTTP client for model API: %w", err)
		}
		clientConfig.HTTPClient = httpClient
	}
	log.Info().Str("model", cfg.Model).Str("base_url", clientConfig.BaseURL).Msg("Chat model client initialized")
	return &Client{api: openai.NewClientWithConfig(clientConfig), cfg: cfg}, nil
}

func (c *Client) request(messages []openai.ChatCompletionMessage) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}
}

// Complete sends messages and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	if timeout := c.cfg.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := c.api.CreateChatCompletion(ctx, c.request(messages))
	if err != nil {
		metrics.LLMRequests.WithLabelValues("error").Inc()
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		metrics.LLMRequests.WithLabelValues("empty").Inc()
		return "", ErrEmptyResponse
	}
	metrics.LLMRequests.WithLabelValues("success").Inc()
	log.Debug().
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Msg("Chat completion received")
	return resp.Choices[0].Message.Content, nil
}
