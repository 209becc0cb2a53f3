package publishers

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Queue sinks group every digest under one FIFO message group so consumers
// see runs in order.
const fifoGroupID = "digest"

// encodeEvent renders the queue body for a digest event.
func encodeEvent(evt Event) (string, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return "", fmt.Errorf("encode digest event %s: %w", evt.ID, err)
	}
	return string(payload), nil
}

// eventAttributes lets subscribers filter on the message kind without
// decoding the body.
func eventAttributes(evt Event) map[string]string {
	attrs := map[string]string{
		"kind":     evt.Kind,
		"event_id": evt.ID,
	}
	if !evt.CreatedAt.IsZero() {
		attrs["created_at"] = evt.CreatedAt.Format(time.RFC3339)
	}
	return attrs
}

// isFIFO reports whether an SQS queue URL or SNS topic ARN names a FIFO resource.
func isFIFO(target string) bool {
	return strings.HasSuffix(target, ".fifo")
}
