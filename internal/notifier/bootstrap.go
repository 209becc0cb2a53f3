package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/Adda-Baaj/taja-digest/internal/config"
	"github.com/Adda-Baaj/taja-digest/internal/crawler"
	"github.com/Adda-Baaj/taja-digest/internal/digest"
	"github.com/Adda-Baaj/taja-digest/internal/logger"
	"github.com/Adda-Baaj/taja-digest/internal/secrets"
	"github.com/Adda-Baaj/taja-digest/pkg/awsconf"
	"github.com/Adda-Baaj/taja-digest/pkg/dedup"
	"github.com/Adda-Baaj/taja-digest/pkg/httpclient"
	"github.com/Adda-Baaj/taja-digest/pkg/providers"
	"github.com/Adda-Baaj/taja-digest/pkg/publishers"
)

// WebhookPublisherID is the id of the publisher built from the webhook section.
const WebhookPublisherID = "webhook"

// Bootstrap wires a Notifier from configuration. The returned cleanup
// releases the dedup store and must be called once the run is over.
func Bootstrap(ctx context.Context, cfg *config.Config, log logger.Logger) (*Notifier, func() error, error) {
	log = logger.Ensure(log)

	loc, err := cfg.Run.Location()
	if err != nil {
		return nil, nil, err
	}
	texts := digest.NewLocalizedTexts(time.Now(), loc, cfg.Run.Locale)

	store, err := dedup.Open(ctx, cfg.Dedup, log)
	if err != nil {
		return nil, nil, fmt.Errorf("open dedup store: %w", err)
	}

	secretSource, err := newSecretSource(ctx, cfg, log)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	pubs, err := buildPublishers(ctx, cfg, secretSource, log)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	fetchClient := httpclient.NewRestyClient(cfg.Run.FetchTimeout)
	opts := Options{
		Feeds:        cfg.Feeds,
		Fetchers:     providers.DefaultFetcherRegistry(fetchClient),
		Assembler:    digest.NewAssembler(store, cfg.Limits, texts, log),
		Publishers:   pubs,
		ErrorText:    texts.Error,
		FetchTimeout: cfg.Run.FetchTimeout,
		Log:          log,
	}
	if cfg.Crawler.EnrichMissingTitles {
		opts.Enricher = crawler.NewScraper(httpclient.NewRestyClient(cfg.Crawler.Timeout), log)
	}

	n, err := New(opts)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return n, store.Close, nil
}

func newSecretSource(ctx context.Context, cfg *config.Config, log logger.Logger) (secrets.Source, error) {
	if cfg.Webhook.SecretSource == config.SecretSourceEnv {
		return secrets.EnvSource{}, nil
	}

	awsCfg, err := awsconf.Load(ctx, cfg.AWS)
	if err != nil {
		return nil, err
	}
	return secrets.NewSSMSource(awsCfg, log), nil
}

// buildPublishers puts the webhook first, followed by enabled publishers
// from the optional publishers file.
func buildPublishers(ctx context.Context, cfg *config.Config, src secrets.Source, log logger.Logger) ([]publishers.Publisher, error) {
	hook := &publishers.HTTPPublisherConfig{
		URL:            cfg.Webhook.URL,
		URLParameter:   cfg.Webhook.Parameter,
		TimeoutSeconds: int(cfg.Webhook.Timeout / time.Second),
	}
	reg, err := publishers.NewConfigRegistry(publishers.PublisherConfig{
		ID:   WebhookPublisherID,
		Type: publishers.TypeHTTP,
		HTTP: hook,
	})
	if err != nil {
		return nil, fmt.Errorf("webhook publisher: %w", err)
	}

	if cfg.PublishersFile != "" {
		extra, err := publishers.LoadRegistry(cfg.PublishersFile)
		if err != nil {
			return nil, err
		}
		if err := reg.Merge(extra); err != nil {
			return nil, err
		}
	}

	return publishers.BuildAll(ctx, publishers.DefaultRegistry(), reg.Enabled(), publishers.Deps{
		Log:     log,
		Secrets: src,
	})
}
