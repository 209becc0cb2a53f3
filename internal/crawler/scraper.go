package crawler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Adda-Baaj/taja-digest/internal/domain"
	"github.com/Adda-Baaj/taja-digest/internal/logger"
	"github.com/Adda-Baaj/taja-digest/pkg/httpclient"
	"github.com/Adda-Baaj/taja-digest/pkg/providers"
	"github.com/Adda-Baaj/taja-digest/pkg/urlnorm"
)

const (
	maxHTMLBodyBytes = 1 << 20 // 1 MiB
	maxPageWorkers   = 4
)

// Scraper fills in titles for feed entries that arrived without one by
// reading the article page's metadata.
type Scraper struct {
	client httpclient.Client
	log    logger.Logger
}

// NewScraper creates a new Scraper with the given HTTP client and logger.
func NewScraper(client httpclient.Client, log logger.Logger) *Scraper {
	if client == nil {
		client = providers.DefaultHTTPClient()
	}
	return &Scraper{client: client, log: logger.Ensure(log)}
}

// EnrichTitles returns a copy of feed where untitled entries with a valid link
// get the page's og:title or <title>. Entry order is preserved and failures
// leave the entry untouched.
func (s *Scraper) EnrichTitles(ctx context.Context, cfg providers.Provider, feed domain.Feed) domain.Feed {
	out := feed
	out.Entries = make([]domain.FeedEntry, len(feed.Entries))
	copy(out.Entries, feed.Entries)

	var targets []int
	for i, e := range feed.Entries {
		if strings.TrimSpace(e.Title) == "" && urlnorm.IsValid(e.Link) {
			targets = append(targets, i)
		}
	}
	if len(targets) == 0 {
		return out
	}

	var limiter <-chan time.Time
	if delay := cfg.RequestDelay(); delay > 0 {
		ticker := time.NewTicker(delay)
		defer ticker.Stop()
		limiter = ticker.C
	}

	jobCh := make(chan int)
	var wg sync.WaitGroup
	for workerID := 0; workerID < min(len(targets), maxPageWorkers); workerID++ {
		wg.Add(1)
		go s.pageWorker(ctx, cfg, limiter, jobCh, out.Entries, &wg, workerID)
	}

	for _, idx := range targets {
		if ctx.Err() != nil {
			break
		}
		jobCh <- idx
	}
	close(jobCh)
	wg.Wait()

	return out
}

// pageWorker scrapes titles for the entry indexes it receives. Each index is
// owned by exactly one worker, so writes to entries do not overlap.
func (s *Scraper) pageWorker(
	ctx context.Context,
	cfg providers.Provider,
	limiter <-chan time.Time,
	jobCh <-chan int,
	entries []domain.FeedEntry,
	wg *sync.WaitGroup,
	workerID int,
) {
	defer wg.Done()

	for idx := range jobCh {
		if ctx.Err() != nil {
			continue
		}

		if limiter != nil {
			select {
			case <-ctx.Done():
				continue
			case <-limiter:
			}
		}

		link := entries[idx].Link
		title, err := s.fetchTitle(ctx, cfg, link, workerID)
		if err != nil {
			s.log.WarnObj("article title scrape failed", "title_scrape_error", map[string]any{
				"worker_id":   workerID,
				"provider_id": cfg.ID,
				"url":         link,
				"error":       err.Error(),
			})
			continue
		}
		if title != "" {
			entries[idx].Title = title
		}
	}
}

// fetchTitle downloads the article page and extracts its title.
func (s *Scraper) fetchTitle(ctx context.Context, cfg providers.Provider, link string, workerID int) (string, error) {
	s.log.DebugObj("scraping article title", "scrape_start", map[string]any{
		"worker_id":   workerID,
		"provider_id": cfg.ID,
		"url":         link,
	})

	resp, err := s.client.Get(ctx, link, providers.Headers(cfg))
	if err != nil {
		return "", fmt.Errorf("http fetch: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		snippet := strings.TrimSpace(string(resp.Body()))
		if len(snippet) > 1024 {
			snippet = snippet[:1024]
		}
		return "", fmt.Errorf("status %d body: %s", resp.StatusCode(), snippet)
	}

	body := resp.Body()
	if len(body) > maxHTMLBodyBytes {
		body = body[:maxHTMLBodyBytes]
	}

	return parseTitle(body)
}

// parseTitle prefers og:title and falls back to the document title.
func parseTitle(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	og := ""
	if node := doc.Find(`meta[property="og:title"]`).First(); node.Length() > 0 {
		if val, ok := node.Attr("content"); ok {
			og = val
		}
	}

	return firstNonEmpty(og, doc.Find("title").First().Text()), nil
}

// firstNonEmpty returns the first non-blank value, trimmed.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
