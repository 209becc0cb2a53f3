package providers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/Adda-Baaj/taja-digest/internal/domain"
)

// rssFetcher implements Fetcher for RSS, Atom and JSON feeds via gofeed.
type rssFetcher struct {
	client HTTPClient
}

// NewRSSFetcher builds a Fetcher for syndication feeds.
func NewRSSFetcher(client HTTPClient) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &rssFetcher{client: client}
}

func (f *rssFetcher) ID() string {
	return ProviderTypeRSS
}

// Fetch downloads and parses the feed, keeping the source's entry order.
func (f *rssFetcher) Fetch(ctx context.Context, cfg Provider) (domain.Feed, error) {
	if !strings.EqualFold(cfg.Type, ProviderTypeRSS) {
		return domain.Feed{}, fmt.Errorf("rss fetcher received incompatible provider type %q", cfg.Type)
	}
	if strings.TrimSpace(cfg.SourceURL) == "" {
		return domain.Feed{}, fmt.Errorf("provider %q source_url is empty", cfg.ID)
	}

	resp, err := f.client.Get(ctx, cfg.SourceURL, Headers(cfg))
	if err != nil {
		return domain.Feed{}, fmt.Errorf("fetch %s feed: %w", cfg.ID, err)
	}
	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return domain.Feed{}, fmt.Errorf("%s feed returned status %d body: %s", cfg.ID, resp.StatusCode(), responseSnippet(body))
	}

	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return domain.Feed{}, fmt.Errorf("parse %s feed: %w", cfg.ID, err)
	}

	return buildFeed(cfg, parsed), nil
}

// buildFeed maps a parsed feed to the domain model. A configured title
// overrides the feed's own title.
func buildFeed(cfg Provider, parsed *gofeed.Feed) domain.Feed {
	feed := domain.Feed{
		ID:      cfg.ID,
		Title:   strings.TrimSpace(parsed.Title),
		Entries: make([]domain.FeedEntry, 0, len(parsed.Items)),
	}
	if cfg.Title != "" {
		feed.Title = cfg.Title
	}

	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		feed.Entries = append(feed.Entries, domain.FeedEntry{
			Title:     strings.TrimSpace(item.Title),
			Link:      strings.TrimSpace(item.Link),
			Published: publishedAt(item),
		})
	}
	return feed
}

// publishedAt prefers the published timestamp and falls back to updated.
func publishedAt(item *gofeed.Item) *time.Time {
	switch {
	case item.PublishedParsed != nil:
		return item.PublishedParsed
	case item.UpdatedParsed != nil:
		return item.UpdatedParsed
	default:
		return nil
	}
}
