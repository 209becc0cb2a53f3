package publishers

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/Adda-Baaj/taja-digest/pkg/awsconf"
)

type sqsClient interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// awsSQSSender enqueues digest events on an SQS queue. FIFO queues get the
// event id as deduplication id, so a retried run never enqueues twice.
type awsSQSSender struct {
	queueURL string
	client   sqsClient
	log      Logger
}

func newAWSSQSSender(ctx context.Context, cfg *AWSSQSPublisherConfig, log Logger) (queueSender, error) {
	if cfg == nil {
		return nil, errors.New("sqs publisher: queue settings missing")
	}
	awsCfg, err := awsconf.Load(ctx, cfg.settings())
	if err != nil {
		return nil, fmt.Errorf("sqs publisher: %w", err)
	}
	return &awsSQSSender{
		queueURL: cfg.QueueURL,
		client:   sqs.NewFromConfig(awsCfg),
		log:      ensureLogger(log),
	}, nil
}

func (s *awsSQSSender) Send(ctx context.Context, evt Event) error {
	body, err := encodeEvent(evt)
	if err != nil {
		return err
	}

	attrs := make(map[string]types.MessageAttributeValue)
	for k, v := range eventAttributes(evt) {
		attrs[k] = types.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
	}
	in := &sqs.SendMessageInput{
		QueueUrl:          aws.String(s.queueURL),
		MessageBody:       aws.String(body),
		MessageAttributes: attrs,
	}
	if isFIFO(s.queueURL) {
		in.MessageGroupId = aws.String(fifoGroupID)
		in.MessageDeduplicationId = aws.String(evt.ID)
	}

	out, err := s.client.SendMessage(ctx, in)
	if err != nil {
		s.log.ErrorObj("digest enqueue failed", "publisher_sqs_error", map[string]any{
			"queue_url": s.queueURL,
			"event_id":  evt.ID,
			"error":     err.Error(),
		})
		return fmt.Errorf("enqueue digest %s: %w", evt.ID, err)
	}
	s.log.DebugObj("digest enqueued", "publisher_sqs_delivery", map[string]any{
		"event_id":   evt.ID,
		"kind":       evt.Kind,
		"message_id": aws.ToString(out.MessageId),
	})
	return nil
}
