// Package httpclient provides the resty-backed HTTP client shared by feed
// fetchers, the crawler and webhook publishers.
package httpclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultUserAgent = "taja-digest/1.0 (+feed digest notifier)"

// Response is the part of an HTTP response callers inspect.
type Response interface {
	StatusCode() int
	Body() []byte
}

// Client performs single-attempt HTTP requests.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
	Post(ctx context.Context, url string, headers map[string]string, body any) (Response, error)
	Do(ctx context.Context, method, url string, headers map[string]string, body any) (Response, error)
}

type restyClient struct {
	client *resty.Client
}

// NewRestyClient returns a Client with the given timeout and no retries.
func NewRestyClient(timeout time.Duration) Client {
	c := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", defaultUserAgent)
	return &restyClient{client: c}
}

func (c *restyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	return c.Do(ctx, resty.MethodGet, url, headers, nil)
}

func (c *restyClient) Post(ctx context.Context, url string, headers map[string]string, body any) (Response, error) {
	return c.Do(ctx, resty.MethodPost, url, headers, body)
}

func (c *restyClient) Do(ctx context.Context, method, url string, headers map[string]string, body any) (Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	req := c.client.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, url)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	return resp, nil
}

// IsSuccess reports a 2xx status.
func IsSuccess(resp Response) bool {
	return resp != nil && resp.StatusCode() >= 200 && resp.StatusCode() < 300
}
