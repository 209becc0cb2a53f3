package publishers

import (
	"context"
	"fmt"
)

type queueSender interface {
	Send(ctx context.Context, evt Event) error
}

// queuePublisher hands whole digest events to a cloud messaging sink
// (SQS, SNS or Pub/Sub), for consumers that archive or re-route digests.
type queuePublisher struct {
	id       string
	typ      string
	provider string
	sender   queueSender
	log      Logger
}

func newQueuePublisher(ctx context.Context, cfg PublisherConfig, deps Deps) (Publisher, error) {
	q := cfg.Queue
	if q == nil {
		return nil, fmt.Errorf("publisher %q: queue section missing", cfg.ID)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	build, ok := queueSenders[q.Provider]
	if !ok {
		return nil, fmt.Errorf("publisher %q: queue provider %q not supported", cfg.ID, q.Provider)
	}
	sender, err := build(ctx, q, deps.Log)
	if err != nil {
		return nil, fmt.Errorf("publisher %q: %w", cfg.ID, err)
	}

	return &queuePublisher{
		id:       cfg.ID,
		typ:      cfg.Type,
		provider: q.Provider,
		sender:   sender,
		log:      ensureLogger(deps.Log),
	}, nil
}

var queueSenders = map[string]func(context.Context, *QueuePublisherConfig, Logger) (queueSender, error){
	QueueProviderAWSSQS: func(ctx context.Context, q *QueuePublisherConfig, log Logger) (queueSender, error) {
		return newAWSSQSSender(ctx, q.AWS, log)
	},
	QueueProviderAWSSNS: func(ctx context.Context, q *QueuePublisherConfig, log Logger) (queueSender, error) {
		return newAWSSNSSender(ctx, q.SNS, log)
	},
	QueueProviderGCP: func(ctx context.Context, q *QueuePublisherConfig, log Logger) (queueSender, error) {
		return newGCPPubSubSender(ctx, q.GCP, log)
	},
}

func (p *queuePublisher) ID() string   { return p.id }
func (p *queuePublisher) Type() string { return p.typ }

func (p *queuePublisher) Publish(ctx context.Context, evt Event) error {
	if err := p.sender.Send(ctx, evt); err != nil {
		return fmt.Errorf("%s sink %s: %w", p.provider, p.id, err)
	}
	p.log.InfoObj("digest handed to queue sink", "publisher_queue_delivery", map[string]any{
		"publisher_id": p.id,
		"provider":     p.provider,
		"event_id":     evt.ID,
	})
	return nil
}
