package client

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/Belphemur/EpisodeHarvester/internal/config"
)

// NewHTTPClient builds an HTTP client with its own cookie jar, the configured proxy and
// transparent response decompression. A zero timeout leaves requests bounded only by
// their context.
func NewHTTPClient(cfg *config.Config, timeout time.Duration) (*http.Client, error) {
	// Clone DefaultTransport to keep its pooling, HTTP/2 and dial timeouts.
	baseTransport := http.DefaultTransport.(*http.Transport).Clone()

	if cfg.ProxyConnectionString != "" {
		proxyURL, err := url.Parse(cfg.ProxyConnectionString)
		if err != nil {
			logger := config.GetLogger()
			logger.Warn().Err(err).Str("proxy", cfg.ProxyConnectionString).Msg("Invalid proxy URL, continuing without proxy")
		} else {
			baseTransport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	return &http.Client{
		Timeout:   timeout,
		Jar:       jar,
		Transport: newCompressionTransport(baseTransport),
	}, nil
}
