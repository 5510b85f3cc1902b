package gate

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/thirdeyevisualz/studio/internal/clock"
)

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

type recordItem struct {
	Key       string `dynamodbav:"key"`
	Value     string `dynamodbav:"value"`
	UpdatedAt string `dynamodbav:"updatedAt"`
	ExpiresAt int64  `dynamodbav:"expiresAt,omitempty"`
}

// DynamoStore keeps submission records in a DynamoDB table keyed by "key". Items
// carry an expiresAt attribute for the table's TTL.
type DynamoStore struct {
	client    dynamoAPI
	tableName string
	ttl       time.Duration
	clk       clock.Clock
}

func NewDynamoStore(client dynamoAPI, tableName string, ttl time.Duration, clk clock.Clock) *DynamoStore {
	if client == nil {
		panic("gate: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("gate: table name cannot be empty")
	}
	if clk == nil {
		clk = clock.NewSystem(nil)
	}
	return &DynamoStore{client: client, tableName: tableName, ttl: ttl, clk: clk}
}

func (s *DynamoStore) Get(ctx context.Context, key string) (string, bool, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		ConsistentRead: aws.Bool(true),
		Key: map[string]types.AttributeValue{
			"key": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return "", false, fmt.Errorf("gate: failed to fetch record: %w", err)
	}
	if out.Item == nil {
		return "", false, nil
	}
	var item recordItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return "", false, fmt.Errorf("gate: failed to decode record: %w", err)
	}
	if item.ExpiresAt > 0 && item.ExpiresAt <= s.clk.Now().Unix() {
		// DynamoDB deletes expired items lazily.
		return "", false, nil
	}
	return item.Value, true, nil
}

func (s *DynamoStore) Set(ctx context.Context, key, value string) error {
	now := s.clk.Now().UTC()
	item := recordItem{Key: key, Value: value, UpdatedAt: now.Format(time.RFC3339Nano)}
	if s.ttl > 0 {
		item.ExpiresAt = now.Add(s.ttl).Unix()
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("gate: failed to marshal record: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("gate: failed to persist record: %w", err)
	}
	return nil
}

func (s *DynamoStore) Remove(ctx context.Context, key string) error {
	if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"key": &types.AttributeValueMemberS{Value: key},
		},
	}); err != nil {
		return fmt.Errorf("gate: failed to delete record: %w", err)
	}
	return nil
}
