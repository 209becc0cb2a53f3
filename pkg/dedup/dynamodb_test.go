package dedup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/Adda-Baaj/taja-digest/internal/domain"
)

// fakeDynamo emulates a conditional put on a single table.
type fakeDynamo struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
	err   error
	input *dynamodb.PutItemInput
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]types.AttributeValue)}
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	pk := in.Item[attrPK].(*types.AttributeValueMemberS).Value
	if _, ok := f.items[pk]; ok {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	}
	f.items[pk] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func TestDynamoStoreRegistersOnce(t *testing.T) {
	fake := newFakeDynamo()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewDynamoStore(fake, "dedup", nil, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	got, err := store.RegisterIfAbsent(ctx, "https://a.com/x")
	if err != nil {
		t.Fatalf("first register: %v", err)
	}
	if got != domain.NewlyRegistered {
		t.Fatalf("first register = %v", got)
	}

	got, err = store.RegisterIfAbsent(ctx, "https://a.com/x")
	if err != nil {
		t.Fatalf("second register: %v", err)
	}
	if got != domain.AlreadyRegistered {
		t.Fatalf("second register = %v", got)
	}
}

func TestDynamoStoreItemShape(t *testing.T) {
	fake := newFakeDynamo()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewDynamoStore(fake, "dedup", nil, WithClock(func() time.Time { return now }))

	if _, err := store.RegisterIfAbsent(context.Background(), "https://a.com/x"); err != nil {
		t.Fatalf("register: %v", err)
	}

	in := fake.input
	if aws.ToString(in.TableName) != "dedup" {
		t.Errorf("table = %q", aws.ToString(in.TableName))
	}
	if aws.ToString(in.ConditionExpression) != "attribute_not_exists(#pk)" {
		t.Errorf("condition = %q", aws.ToString(in.ConditionExpression))
	}
	if in.ExpressionAttributeNames["#pk"] != "pk" {
		t.Errorf("attribute names = %v", in.ExpressionAttributeNames)
	}
	if v := in.Item[attrPK].(*types.AttributeValueMemberS).Value; v != Key("https://a.com/x") {
		t.Errorf("pk = %q", v)
	}
	if v := in.Item[attrURL].(*types.AttributeValueMemberS).Value; v != "https://a.com/x" {
		t.Errorf("url = %q", v)
	}
	if v := in.Item[attrCreatedAt].(*types.AttributeValueMemberS).Value; v != "2026-03-01T12:00:00Z" {
		t.Errorf("created_at = %q", v)
	}
	if v := in.Item[attrTTL].(*types.AttributeValueMemberN).Value; v != "1772625600" {
		t.Errorf("ttl = %q", v)
	}
}

func TestDynamoStorePropagatesFailures(t *testing.T) {
	fake := newFakeDynamo()
	storeErr := errors.New("ProvisionedThroughputExceededException")
	fake.err = storeErr
	store := NewDynamoStore(fake, "dedup", nil)

	_, err := store.RegisterIfAbsent(context.Background(), "https://a.com/x")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, storeErr) {
		t.Fatalf("error %v does not wrap store error", err)
	}
}

func TestDynamoStoreConcurrentCallersSingleWinner(t *testing.T) {
	fake := newFakeDynamo()
	store := NewDynamoStore(fake, "dedup", nil)

	const callers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := store.RegisterIfAbsent(context.Background(), "https://a.com/race")
			if err != nil {
				t.Errorf("register: %v", err)
				return
			}
			if got == domain.NewlyRegistered {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if winners != 1 {
		t.Fatalf("winners = %d, want 1", winners)
	}
}
