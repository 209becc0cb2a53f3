package dedup

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/Adda-Baaj/taja-digest/internal/domain"
	"github.com/Adda-Baaj/taja-digest/internal/logger"
)

// Attribute names of the dedup table. "ttl" is the table's TTL attribute.
const (
	attrPK        = "pk"
	attrURL       = "url"
	attrCreatedAt = "created_at"
	attrTTL       = "ttl"
)

// putItemAPI is the subset of the DynamoDB client used by DynamoStore.
type putItemAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoStore registers URLs with a conditional PutItem; expiry is left to
// DynamoDB's native TTL.
type DynamoStore struct {
	table  string
	client putItemAPI
	log    logger.Logger
	opts   options
}

// NewDynamoStoreFromConfig builds a store using a DynamoDB client from awsCfg.
func NewDynamoStoreFromConfig(awsCfg aws.Config, table string, log logger.Logger, opts ...Option) *DynamoStore {
	return NewDynamoStore(dynamodb.NewFromConfig(awsCfg), table, log, opts...)
}

// NewDynamoStore wraps an existing client.
func NewDynamoStore(client putItemAPI, table string, log logger.Logger, opts ...Option) *DynamoStore {
	return &DynamoStore{
		table:  table,
		client: client,
		log:    logger.Ensure(log),
		opts:   buildOptions(opts),
	}
}

// RegisterIfAbsent inserts the record unless one with the same key exists.
func (s *DynamoStore) RegisterIfAbsent(ctx context.Context, normalizedURL string) (domain.Registration, error) {
	rec := NewRecord(normalizedURL, s.opts.now(), s.opts.retention)

	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                itemFromRecord(rec),
		ConditionExpression: aws.String("attribute_not_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{
			"#pk": attrPK,
		},
	})
	if err == nil {
		return domain.NewlyRegistered, nil
	}

	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		s.log.InfoObj("duplicate url found", "dedup_duplicate", map[string]any{
			"url": rec.URL,
			"key": rec.Key,
		})
		return domain.AlreadyRegistered, nil
	}

	s.log.ErrorObj("dynamodb put item failed", "dedup_store_error", map[string]any{
		"table": s.table,
		"url":   rec.URL,
		"error": err.Error(),
	})
	return domain.AlreadyRegistered, fmt.Errorf("register %s in dynamodb: %w", rec.Key, err)
}

// Close is a no-op; the SDK client holds no resources that need releasing.
func (s *DynamoStore) Close() error { return nil }

func itemFromRecord(rec Record) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPK:        &types.AttributeValueMemberS{Value: rec.Key},
		attrURL:       &types.AttributeValueMemberS{Value: rec.URL},
		attrCreatedAt: &types.AttributeValueMemberS{Value: rec.CreatedAt.Format(time.RFC3339)},
		attrTTL:       &types.AttributeValueMemberN{Value: strconv.FormatInt(rec.ExpiresAt.Unix(), 10)},
	}
}
