package publishers

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// pubsubTopic is the slice of *pubsub.Topic the sender needs.
type pubsubTopic interface {
	Publish(ctx context.Context, msg *pubsub.Message) *pubsub.PublishResult
}

type gcpPubSubSender struct {
	topicID string
	topic   pubsubTopic
	log     Logger
}

func newGCPPubSubSender(ctx context.Context, cfg *GCPQueueConfig, log Logger) (queueSender, error) {
	if cfg == nil {
		return nil, errors.New("pubsub publisher: topic settings missing")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("pubsub publisher: create client for %s: %w", cfg.ProjectID, err)
	}

	return &gcpPubSubSender{
		topicID: cfg.Topic,
		topic:   client.Topic(cfg.Topic),
		log:     ensureLogger(log),
	}, nil
}

// Send blocks until the server acknowledges the digest.
func (s *gcpPubSubSender) Send(ctx context.Context, evt Event) error {
	body, err := encodeEvent(evt)
	if err != nil {
		return err
	}

	res := s.topic.Publish(ctx, &pubsub.Message{
		Data:       []byte(body),
		Attributes: eventAttributes(evt),
	})
	serverID, err := res.Get(ctx)
	if err != nil {
		s.log.ErrorObj("digest pubsub publish failed", "publisher_gcp_pubsub_error", map[string]any{
			"topic":    s.topicID,
			"event_id": evt.ID,
			"error":    err.Error(),
		})
		return fmt.Errorf("publish digest %s to pubsub: %w", evt.ID, err)
	}
	s.log.DebugObj("digest published to pubsub", "publisher_gcp_pubsub_delivery", map[string]any{
		"event_id":   evt.ID,
		"kind":       evt.Kind,
		"message_id": serverID,
	})
	return nil
}
