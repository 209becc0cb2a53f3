// Package notifier runs one digest cycle: fetch feeds, assemble the digest
// and dispatch it to the configured publishers.
package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/Adda-Baaj/taja-digest/internal/domain"
	"github.com/Adda-Baaj/taja-digest/internal/logger"
	"github.com/Adda-Baaj/taja-digest/pkg/providers"
	"github.com/Adda-Baaj/taja-digest/pkg/publishers"
)

// Assembler builds the digest from fetched feeds.
type Assembler interface {
	Assemble(ctx context.Context, feeds []domain.Feed) (domain.DigestMessage, error)
}

// TitleEnricher fills missing entry titles.
type TitleEnricher interface {
	EnrichTitles(ctx context.Context, cfg providers.Provider, feed domain.Feed) domain.Feed
}

// Options configures a Notifier.
type Options struct {
	Feeds        []providers.Provider
	Fetchers     providers.FetcherRegistry
	Assembler    Assembler
	Enricher     TitleEnricher
	Publishers   []publishers.Publisher
	ErrorText    string
	FetchTimeout time.Duration
	Now          func() time.Time
	Log          logger.Logger
}

// Notifier is the run entrypoint.
type Notifier struct {
	opts Options
	log  logger.Logger
}

// Outcome summarizes a run.
type Outcome struct {
	EventID string
	Kind    string
	// BuildErr is the failure that replaced the digest with the error payload.
	BuildErr error
}

// New validates options and builds a Notifier.
func New(opts Options) (*Notifier, error) {
	if opts.Fetchers == nil {
		return nil, fmt.Errorf("notifier: fetcher registry is required")
	}
	if opts.Assembler == nil {
		return nil, fmt.Errorf("notifier: assembler is required")
	}
	if len(opts.Publishers) == 0 {
		return nil, fmt.Errorf("notifier: at least one publisher is required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Notifier{opts: opts, log: logger.Ensure(opts.Log)}, nil
}

// Run builds the digest and dispatches it. A failure while fetching or
// assembling is logged and replaced by the error payload so the channel still
// gets a message; only dispatch failures are returned.
func (n *Notifier) Run(ctx context.Context) (Outcome, error) {
	n.log.InfoObj("digest run started", "run_start", map[string]any{
		"feeds": len(n.opts.Feeds),
	})

	msg, buildErr := n.build(ctx)
	kind := kindOf(msg)
	if buildErr != nil {
		n.log.ErrorObj("digest build failed", "run_build_error", map[string]any{
			"error": buildErr.Error(),
		})
		msg = domain.TextMessage(n.opts.ErrorText)
		kind = domain.KindError
	}

	evt := publishers.NewEvent(kind, msg, n.opts.Now())
	out := Outcome{EventID: evt.ID, Kind: kind, BuildErr: buildErr}

	if err := publishers.PublishAll(ctx, n.opts.Publishers, evt, n.log); err != nil {
		return out, fmt.Errorf("dispatch digest: %w", err)
	}

	n.log.InfoObj("digest run finished", "run_finish", map[string]any{
		"event_id": evt.ID,
		"kind":     kind,
	})
	return out, nil
}

func (n *Notifier) build(ctx context.Context) (domain.DigestMessage, error) {
	feeds, err := n.collect(ctx)
	if err != nil {
		return domain.DigestMessage{}, err
	}
	return n.opts.Assembler.Assemble(ctx, feeds)
}

// collect fetches every enabled feed in configured order. Any failure aborts.
func (n *Notifier) collect(ctx context.Context) ([]domain.Feed, error) {
	feeds := make([]domain.Feed, 0, len(n.opts.Feeds))
	for _, cfg := range n.opts.Feeds {
		if !cfg.EnabledValue() {
			continue
		}

		fetcher, err := n.opts.Fetchers.FetcherFor(cfg)
		if err != nil {
			return nil, err
		}

		feed, err := n.fetch(ctx, fetcher, cfg)
		if err != nil {
			return nil, fmt.Errorf("fetch feed %s: %w", cfg.ID, err)
		}
		if feed.Title == "" {
			n.log.WarnObj("feed title not found", "feed_title_missing", map[string]any{
				"feed_id": cfg.ID,
				"url":     cfg.SourceURL,
			})
		}
		if n.opts.Enricher != nil {
			feed = n.opts.Enricher.EnrichTitles(ctx, cfg, feed)
		}

		n.log.InfoObj("feed fetched", "feed_fetched", map[string]any{
			"feed_id": cfg.ID,
			"url":     cfg.SourceURL,
			"entries": len(feed.Entries),
		})
		feeds = append(feeds, feed)
	}
	return feeds, nil
}

func (n *Notifier) fetch(ctx context.Context, fetcher providers.Fetcher, cfg providers.Provider) (domain.Feed, error) {
	if n.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.opts.FetchTimeout)
		defer cancel()
	}
	return fetcher.Fetch(ctx, cfg)
}

func kindOf(msg domain.DigestMessage) string {
	if msg.IsStructured() {
		return domain.KindDigest
	}
	return domain.KindFallback
}
