package publishers

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/Adda-Baaj/taja-digest/pkg/awsconf"
)

type snsClient interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// awsSNSSender fans digest events out through an SNS topic. Email
// subscribers see the subject line.
type awsSNSSender struct {
	topicARN string
	client   snsClient
	log      Logger
}

func newAWSSNSSender(ctx context.Context, cfg *AWSSNSPublisherConfig, log Logger) (queueSender, error) {
	if cfg == nil {
		return nil, errors.New("sns publisher: topic settings missing")
	}
	awsCfg, err := awsconf.Load(ctx, cfg.settings())
	if err != nil {
		return nil, fmt.Errorf("sns publisher: %w", err)
	}
	return &awsSNSSender{
		topicARN: cfg.TopicARN,
		client:   sns.NewFromConfig(awsCfg),
		log:      ensureLogger(log),
	}, nil
}

func (s *awsSNSSender) Send(ctx context.Context, evt Event) error {
	body, err := encodeEvent(evt)
	if err != nil {
		return err
	}

	attrs := make(map[string]types.MessageAttributeValue)
	for k, v := range eventAttributes(evt) {
		attrs[k] = types.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
	}
	in := &sns.PublishInput{
		TopicArn:          aws.String(s.topicARN),
		Subject:           aws.String("taja-digest " + evt.Kind),
		Message:           aws.String(body),
		MessageAttributes: attrs,
	}
	if isFIFO(s.topicARN) {
		in.MessageGroupId = aws.String(fifoGroupID)
		in.MessageDeduplicationId = aws.String(evt.ID)
	}

	out, err := s.client.Publish(ctx, in)
	if err != nil {
		s.log.ErrorObj("digest topic publish failed", "publisher_sns_error", map[string]any{
			"topic_arn": s.topicARN,
			"event_id":  evt.ID,
			"error":     err.Error(),
		})
		return fmt.Errorf("publish digest %s to topic: %w", evt.ID, err)
	}
	s.log.DebugObj("digest published to topic", "publisher_sns_delivery", map[string]any{
		"event_id":   evt.ID,
		"kind":       evt.Kind,
		"message_id": aws.ToString(out.MessageId),
	})
	return nil
}
