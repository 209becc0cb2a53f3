package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Adda-Baaj/taja-digest/internal/domain"
)

// maxSitemapIndexDepth stops runaway recursion through nested sitemap indexes.
const maxSitemapIndexDepth = 3

// googleNewsFetcher implements Fetcher for Google News sitemap providers.
type googleNewsFetcher struct {
	client HTTPClient
}

// NewGoogleNewsFetcher builds a Fetcher for Google News sitemap providers.
func NewGoogleNewsFetcher(client HTTPClient) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &googleNewsFetcher{client: client}
}

// ID returns the provider type for the Google News fetcher.
func (f *googleNewsFetcher) ID() string {
	return ProviderTypeGoogleNews
}

// Fetch retrieves entries from a Google News sitemap, following sitemap indexes.
func (f *googleNewsFetcher) Fetch(ctx context.Context, cfg Provider) (domain.Feed, error) {
	if !strings.EqualFold(cfg.Type, ProviderTypeGoogleNews) {
		return domain.Feed{}, fmt.Errorf("google news fetcher received incompatible provider type %q", cfg.Type)
	}
	if strings.TrimSpace(cfg.SourceURL) == "" {
		return domain.Feed{}, fmt.Errorf("provider %q source_url is empty", cfg.ID)
	}

	urls, err := f.fetchGoogleNewsURLs(ctx, cfg, cfg.SourceURL, Headers(cfg), make(map[string]struct{}), 0)
	if err != nil {
		return domain.Feed{}, err
	}

	title := cfg.Title
	if title == "" {
		title = cfg.ID
	}
	return domain.Feed{
		ID:      cfg.ID,
		Title:   title,
		Entries: buildEntriesFromSitemap(urls),
	}, nil
}

// fetchGoogleNewsURLs resolves the given sitemap URL into article entries,
// following sitemap indexes if necessary.
func (f *googleNewsFetcher) fetchGoogleNewsURLs(ctx context.Context, cfg Provider, url string, headers map[string]string, visited map[string]struct{}, depth int) ([]googleNewsURL, error) {
	if _, seen := visited[url]; seen || depth > maxSitemapIndexDepth {
		return nil, nil
	}
	visited[url] = struct{}{}

	raw, err := fetchSitemap(ctx, f.client, url, cfg.ID, headers)
	if err != nil {
		return nil, err
	}

	urls, err := parseGoogleNewsSitemap(raw)
	if err != nil {
		return nil, fmt.Errorf("decode google news sitemap: %w", err)
	}
	if len(urls) > 0 {
		return urls, nil
	}

	indexURLs, err := parseSitemapIndex(raw)
	if err != nil {
		return nil, fmt.Errorf("decode sitemap index: %w", err)
	}

	var all []googleNewsURL
	for _, indexURL := range indexURLs {
		if delay := cfg.RequestDelay(); delay > 0 && len(visited) > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		nested, err := f.fetchGoogleNewsURLs(ctx, cfg, indexURL, headers, visited, depth+1)
		if err != nil {
			return nil, err
		}
		all = append(all, nested...)
	}
	return all, nil
}
