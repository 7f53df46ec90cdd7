// Package dynamodb stores checkpoints in a DynamoDB table. Conditional
// writes make the never-move-backwards rule hold across processes.
//
// Table schema:
//   - Partition key: stream (string)
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name linescan-checkpoints \
//	  --attribute-definitions AttributeName=stream,AttributeType=S \
//	  --key-schema AttributeName=stream,KeyType=HASH \
//	  --billing-mode PAY_PER_REQUEST
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hupe1980/linescan/checkpoint"
)

const (
	attrStream    = "stream"
	attrOffset    = "offset"
	attrRecords   = "records"
	attrRunID     = "run_id"
	attrUpdatedAt = "updated_at"

	// saveCondition admits a first write or one that does not move the
	// offset backwards. "offset" is a reserved word, hence the alias.
	saveCondition = "attribute_not_exists(#stream) OR #offset <= :offset"
)

// Client is the subset of the DynamoDB API the store uses.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Store implements checkpoint.Store on a DynamoDB table.
type Store struct {
	client Client
	table  string
}

// NewStore creates a store on table.
func NewStore(client Client, table string) *Store {
	return &Store{client: client, table: table}
}

// Load implements checkpoint.Store. Reads are strongly consistent.
func (s *Store) Load(ctx context.Context, stream string) (checkpoint.Checkpoint, error) {
	resp, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            map[string]types.AttributeValue{attrStream: &types.AttributeValueMemberS{Value: stream}},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return checkpoint.Checkpoint{}, fmt.Errorf("failed to get checkpoint from DynamoDB: %w", err)
	}
	if len(resp.Item) == 0 {
		return checkpoint.Checkpoint{}, checkpoint.ErrNotFound
	}
	return decodeItem(resp.Item)
}

// Save implements checkpoint.Store.
func (s *Store) Save(ctx context.Context, cp checkpoint.Checkpoint) error {
	if err := cp.Validate(); err != nil {
		return err
	}
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = time.Now().UTC()
	}

	item := map[string]types.AttributeValue{
		attrStream:    &types.AttributeValueMemberS{Value: cp.Stream},
		attrOffset:    &types.AttributeValueMemberN{Value: strconv.FormatInt(cp.Offset, 10)},
		attrRecords:   &types.AttributeValueMemberN{Value: strconv.FormatInt(cp.Records, 10)},
		attrUpdatedAt: &types.AttributeValueMemberS{Value: cp.UpdatedAt.Format(time.RFC3339Nano)},
	}
	if cp.RunID != "" {
		item[attrRunID] = &types.AttributeValueMemberS{Value: cp.RunID}
	}

	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                item,
		ConditionExpression: aws.String(saveCondition),
		ExpressionAttributeNames: map[string]string{
			"#stream": attrStream,
			"#offset": attrOffset,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":offset": item[attrOffset],
		},
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return fmt.Errorf("%w: %s at offset %d", checkpoint.ErrStale, cp.Stream, cp.Offset)
		}
		return fmt.Errorf("failed to save checkpoint to DynamoDB: %w", err)
	}
	return nil
}

// Delete implements checkpoint.Store.
func (s *Store) Delete(ctx context.Context, stream string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       map[string]types.AttributeValue{attrStream: &types.AttributeValueMemberS{Value: stream}},
	})
	if err != nil {
		return fmt.Errorf("failed to delete checkpoint from DynamoDB: %w", err)
	}
	return nil
}

func decodeItem(item map[string]types.AttributeValue) (checkpoint.Checkpoint, error) {
	var cp checkpoint.Checkpoint

	stream, ok := item[attrStream].(*types.AttributeValueMemberS)
	if !ok {
		return cp, errors.New("invalid stream attribute in DynamoDB")
	}
	cp.Stream = stream.Value

	var err error
	if cp.Offset, err = numberAttr(item, attrOffset); err != nil {
		return cp, err
	}
	if cp.Records, err = numberAttr(item, attrRecords); err != nil {
		return cp, err
	}
	if runID, ok := item[attrRunID].(*types.AttributeValueMemberS); ok {
		cp.RunID = runID.Value
	}
	if ts, ok := item[attrUpdatedAt].(*types.AttributeValueMemberS); ok {
		if cp.UpdatedAt, err = time.Parse(time.RFC3339Nano, ts.Value); err != nil {
			return cp, fmt.Errorf("failed to parse %s: %w", attrUpdatedAt, err)
		}
	}
	return cp, nil
}

func numberAttr(item map[string]types.AttributeValue, name string) (int64, error) {
	attr, ok := item[name].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("invalid %s attribute in DynamoDB", name)
	}
	v, err := strconv.ParseInt(attr.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return v, nil
}
