package publishers

import (
	"context"
	"errors"
	"fmt"
)

// PublishAll delivers evt to every publisher in order. Every publisher is
// attempted once; failures are joined into the returned error.
func PublishAll(ctx context.Context, pubs []Publisher, evt Event, log Logger) error {
	log = ensureLogger(log)
	if len(pubs) == 0 {
		return errors.New("no publishers configured")
	}

	var errs []error
	for _, pub := range pubs {
		if err := pub.Publish(ctx, evt); err != nil {
			log.ErrorObj("publisher failed", "publish_error", map[string]any{
				"publisher_id": pub.ID(),
				"type":         pub.Type(),
				"event_id":     evt.ID,
				"error":        err.Error(),
			})
			errs = append(errs, fmt.Errorf("publisher %s: %w", pub.ID(), err))
			continue
		}
		log.InfoObj("event published", "publish_ok", map[string]any{
			"publisher_id": pub.ID(),
			"type":         pub.Type(),
			"event_id":     evt.ID,
			"kind":         evt.Kind,
		})
	}
	return errors.Join(errs...)
}
