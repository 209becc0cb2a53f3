package publishers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Adda-Baaj/taja-digest/internal/secrets"
	"github.com/Adda-Baaj/taja-digest/pkg/httpclient"
)

// httpPublisher posts the digest message as JSON to a webhook endpoint.
type httpPublisher struct {
	id      string
	typ     string
	cfg     HTTPPublisherConfig
	client  httpclient.Client
	secrets secrets.Source
	log     Logger
}

// newHTTPPublisher builds a webhook publisher. When url_parameter is set the
// endpoint is resolved from the secret source on every publish.
func newHTTPPublisher(_ context.Context, cfg PublisherConfig, deps Deps) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}
	if cfg.HTTP.URL == "" && cfg.HTTP.URLParameter == "" {
		return nil, fmt.Errorf("publisher %q needs http.url or http.url_parameter", cfg.ID)
	}
	if cfg.HTTP.URL == "" && deps.Secrets == nil {
		return nil, fmt.Errorf("publisher %q resolves its url from a secret but no secret source is configured", cfg.ID)
	}

	client := deps.HTTP
	if client == nil {
		client = httpclient.NewRestyClient(time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second)
	}

	return &httpPublisher{
		id:      cfg.ID,
		typ:     cfg.Type,
		cfg:     *cfg.HTTP,
		client:  client,
		secrets: deps.Secrets,
		log:     ensureLogger(deps.Log),
	}, nil
}

func (p *httpPublisher) ID() string   { return p.id }
func (p *httpPublisher) Type() string { return p.typ }

// Publish sends evt.Message in a single attempt; non-2xx is an error.
func (p *httpPublisher) Publish(ctx context.Context, evt Event) error {
	target, err := p.endpoint(ctx)
	if err != nil {
		return err
	}

	headers := map[string]string{"Content-Type": "application/json"}
	for k, v := range p.cfg.Headers {
		headers[k] = v
	}

	if p.cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(p.cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	p.log.DebugObj("sending webhook notification", "publisher_http_send", map[string]any{
		"publisher_id": p.id,
		"kind":         evt.Kind,
		"payload":      evt.Message,
	})

	resp, err := p.client.Do(ctx, p.cfg.Method, target, headers, evt.Message)
	if err != nil {
		p.log.ErrorObj("webhook delivery failed", "publisher_http_error", map[string]any{
			"publisher_id": p.id,
			"error":        err.Error(),
		})
		return fmt.Errorf("deliver webhook: %w", err)
	}
	if !httpclient.IsSuccess(resp) {
		body := strings.TrimSpace(string(resp.Body()))
		p.log.ErrorObj("webhook rejected notification", "publisher_http_error", map[string]any{
			"publisher_id": p.id,
			"status":       resp.StatusCode(),
			"body":         body,
		})
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode(), body)
	}

	p.log.InfoObj("webhook notification sent", "publisher_http_delivery", map[string]any{
		"publisher_id": p.id,
		"status":       resp.StatusCode(),
		"response":     string(resp.Body()),
	})
	return nil
}

func (p *httpPublisher) endpoint(ctx context.Context) (string, error) {
	if p.cfg.URL != "" {
		return p.cfg.URL, nil
	}
	url, err := p.secrets.Get(ctx, p.cfg.URLParameter)
	if err != nil {
		return "", fmt.Errorf("resolve webhook url %s: %w", p.cfg.URLParameter, err)
	}
	return url, nil
}
