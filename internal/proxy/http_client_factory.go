package proxy

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/proxy"

	"github.com/haytac/emoticon-bot/internal/config"
)

// DefaultHTTPClientFactory builds HTTP clients for the Telegram and model APIs.
type DefaultHTTPClientFactory struct {
	timeout time.Duration
}

// NewHTTPClientFactory creates a factory whose clients time out after timeout
// (60s when zero).
func NewHTTPClientFactory(timeout time.Duration) *DefaultHTTPClientFactory {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &DefaultHTTPClientFactory{timeout: timeout}
}

// ProxyURL renders p as a URL, including credentials when a username is set.
func ProxyURL(p *config.ProxyConfig) (*url.URL, error) {
	u, err := url.Parse(fmt.Sprintf("%s://%s", p.Type, p.Address))
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL %s://%s: %w", p.Type, p.Address, err)
	}
	if p.Username != "" {
		u.User = url.UserPassword(p.Username, p.Password)
	}
	return u, nil
}

// GetClient returns an HTTP client routed through p. A nil or disabled proxy yields a
// client that honours the environment proxy settings.
func (f *DefaultHTTPClientFactory) GetClient(p *config.ProxyConfig) (*http.Client, error) {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if p != nil && p.Enabled() {
		proxyURL, err := ProxyURL(p)
		if err != nil {
			return nil, err
		}

		switch p.Type {
		case "http", "https":
			transport.Proxy = http.ProxyURL(proxyURL)
		case "socks5":
			dialer, err := proxy.FromURL(proxyURL, proxy.Direct)
			if err != nil {
				return nil, fmt.Errorf("failed to create SOCKS5 dialer for %s: %w", p.Address, err)
			}
			contextDialer, ok := dialer.(proxy.ContextDialer)
			if !ok {
				return nil, fmt.Errorf("SOCKS5 dialer does not implement proxy.ContextDialer")
			}
			transport.DialContext = contextDialer.DialContext
			transport.Proxy = nil
		default:
			return nil, fmt.Errorf("unsupported proxy type: %q", p.Type)
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   f.timeout,
	}, nil
}
