package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("record not found")

// Record is one item in the request table, keyed by ID.
type Record struct {
	ID        string         `dynamodbav:"id"`
	MessageID string         `dynamodbav:"message_id,omitempty"`
	Data      map[string]any `dynamodbav:"data"`
	CreatedAt string         `dynamodbav:"created_at"`
}

// Store is a simple key-value record store.
type Store interface {
	Get(ctx context.Context, id string) (Record, error)
	Put(ctx context.Context, rec Record) (Record, error)
}

// DynamoDBClient defines the DynamoDB operations needed by DynamoStore.
// This allows for easier testing by mocking the client.
type DynamoDBClient interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoStore keeps records in a DynamoDB table with a string partition key "id".
type DynamoStore struct {
	client DynamoDBClient
	table  string
	now    func() time.Time
}

// NewDynamoStore creates a store over the given table.
func NewDynamoStore(client DynamoDBClient, table string) *DynamoStore {
	return &DynamoStore{client: client, table: table, now: time.Now}
}

// Put writes rec, assigning a random ID and creation time when they are empty,
// and returns the stored record.
func (s *DynamoStore) Put(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt == "" {
		rec.CreatedAt = s.now().UTC().Format(time.RFC3339)
	}

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return Record{}, fmt.Errorf("marshal record %s: %w", rec.ID, err)
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	}); err != nil {
		return Record{}, fmt.Errorf("put record %s: %w", rec.ID, err)
	}
	return rec, nil
}

// Get reads the record with the given ID, returning ErrNotFound if it does not exist.
func (s *DynamoStore) Get(ctx context.Context, id string) (Record, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return Record{}, fmt.Errorf("get record %s: %w", id, err)
	}
	if len(out.Item) == 0 {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	var rec Record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return Record{}, fmt.Errorf("unmarshal record %s: %w", id, err)
	}
	return rec, nil
}
