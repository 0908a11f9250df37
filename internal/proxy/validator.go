package proxy

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/haytac/emoticon-bot/internal/config"
	"github.com/haytac/emoticon-bot/pkg/interfaces"
)

// DefaultValidationTarget answers 204 to a plain GET.
const DefaultValidationTarget = "https://www.google.com/generate_204"

var _ interfaces.ProxyValidator = (*DefaultProxyValidator)(nil)

// DefaultProxyValidator implements interfaces.ProxyValidator.
type DefaultProxyValidator struct {
	clientFactory interfaces.HTTPClientFactory
}

// NewDefaultProxyValidator creates a new validator.
func NewDefaultProxyValidator(factory interfaces.HTTPClientFactory) *DefaultProxyValidator {
	return &DefaultProxyValidator{clientFactory: factory}
}

// Validate checks that a GET to targetURL through p returns a 2xx status.
func (v *DefaultProxyValidator) Validate(ctx context.Context, p *config.ProxyConfig, targetURL string) error {
	if targetURL == "" {
		targetURL = DefaultValidationTarget
	}

	client, err := v.clientFactory.GetClient(p)
	if err != nil {
		return fmt.Errorf("proxy %s: failed to get HTTP client: %w", p.Address, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, targetURL, nil)
	if err != nil {
		return fmt.Errorf("proxy %s: failed to create request to %s: %w", p.Address, targetURL, err)
	}
	req.Header.Set("User-Agent", "EmoticonBotProxyValidator/1.0")

	log.Debug().Str("proxy_type", p.Type).Str("proxy_address", p.Address).Str("target_url", targetURL).Msg("Attempting to validate proxy")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("proxy %s: connection test to %s failed: %w", p.Address, targetURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		log.Info().Str("proxy_address", p.Address).Int("status_code", resp.StatusCode).Msg("Proxy validation successful")
		return nil
	}
	return fmt.Errorf("proxy %s: connection test to %s returned status %d", p.Address, targetURL, resp.StatusCode)
}
