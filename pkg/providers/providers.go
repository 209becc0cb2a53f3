package providers

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Adda-Baaj/taja-digest/internal/domain"
	"github.com/Adda-Baaj/taja-digest/pkg/httpclient"
)

// Supported provider types.
const (
	ProviderTypeRSS        = "rss"
	ProviderTypeGoogleNews = "google-news"
)

// HTTPClient is the transport used by fetchers.
type HTTPClient = httpclient.Client

// Provider is a configured feed source.
type Provider struct {
	ID             string            `mapstructure:"id" yaml:"id" json:"id"`
	Title          string            `mapstructure:"title" yaml:"title" json:"title"`
	Type           string            `mapstructure:"type" yaml:"type" json:"type"`
	SourceURL      string            `mapstructure:"source_url" yaml:"source_url" json:"source_url"`
	Headers        map[string]string `mapstructure:"headers" yaml:"headers" json:"headers"`
	UserAgent      string            `mapstructure:"user_agent" yaml:"user_agent" json:"user_agent"`
	RequestDelayMs int               `mapstructure:"request_delay_ms" yaml:"request_delay_ms" json:"request_delay_ms"`
	Enabled        *bool             `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
}

// Fetcher retrieves one feed for a provider of the type it serves.
type Fetcher interface {
	ID() string
	Fetch(ctx context.Context, cfg Provider) (domain.Feed, error)
}

// FetcherRegistry resolves the fetcher for a provider.
type FetcherRegistry interface {
	FetcherFor(cfg Provider) (Fetcher, error)
}

// RequestDelay is the pause between page requests made on behalf of this provider.
func (p Provider) RequestDelay() time.Duration {
	if p.RequestDelayMs <= 0 {
		return 0
	}
	return time.Duration(p.RequestDelayMs) * time.Millisecond
}

// EnabledValue returns the enabled flag defaulting to true.
func (p Provider) EnabledValue() bool {
	if p.Enabled == nil {
		return true
	}
	return *p.Enabled
}

// Headers returns request headers for the provider, including its user agent.
func Headers(p Provider) map[string]string {
	out := make(map[string]string, len(p.Headers)+1)
	for k, v := range p.Headers {
		if k = strings.TrimSpace(k); k != "" {
			out[k] = strings.TrimSpace(v)
		}
	}
	if ua := strings.TrimSpace(p.UserAgent); ua != "" {
		out["User-Agent"] = ua
	}
	return out
}

// Sanitize trims fields and defaults the type to rss.
func Sanitize(p Provider) Provider {
	p.ID = strings.TrimSpace(p.ID)
	p.Title = strings.TrimSpace(p.Title)
	p.Type = strings.ToLower(strings.TrimSpace(p.Type))
	if p.Type == "" {
		p.Type = ProviderTypeRSS
	}
	p.SourceURL = strings.TrimSpace(p.SourceURL)
	p.UserAgent = strings.TrimSpace(p.UserAgent)
	return p
}

// Validate checks that a sanitized provider is usable.
func Validate(p Provider) error {
	if p.ID == "" {
		return errors.New("provider id is required")
	}
	switch p.Type {
	case ProviderTypeRSS, ProviderTypeGoogleNews:
	default:
		return fmt.Errorf("provider %q type %q not supported", p.ID, p.Type)
	}
	u, err := url.Parse(p.SourceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("provider %q source_url %q must be an http(s) url", p.ID, p.SourceURL)
	}
	return nil
}

// DefaultProviders are the feeds polled when configuration lists none.
func DefaultProviders() []Provider {
	return []Provider{
		{ID: "qiita", Type: ProviderTypeRSS, SourceURL: "https://qiita.com/popular-items/feed"},
		{ID: "hatena", Type: ProviderTypeRSS, SourceURL: "http://b.hatena.ne.jp/hotentry/it.rss"},
		{ID: "zenn", Type: ProviderTypeRSS, SourceURL: "https://zenn.dev/feed"},
		{ID: "codezine", Type: ProviderTypeRSS, SourceURL: "https://codezine.jp/rss/new/20/index.xml"},
		{ID: "developersio", Type: ProviderTypeRSS, SourceURL: "https://dev.classmethod.jp/feed"},
	}
}
