package dynamodb

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/linescan/checkpoint"
)

// mockDDBClient is an in-memory DynamoDB mock that evaluates the store's
// save condition.
type mockDDBClient struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
	err   error
}

func newMockDDBClient() *mockDDBClient {
	return &mockDDBClient{items: make(map[string]map[string]types.AttributeValue)}
}

func (m *mockDDBClient) GetItem(_ context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	key := params.Key[attrStream].(*types.AttributeValueMemberS).Value
	return &dynamodb.GetItemOutput{Item: m.items[key]}, nil
}

func (m *mockDDBClient) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	key := params.Item[attrStream].(*types.AttributeValueMemberS).Value

	if aws.ToString(params.ConditionExpression) == saveCondition {
		if stored, ok := m.items[key]; ok {
			have, _ := strconv.ParseInt(stored[attrOffset].(*types.AttributeValueMemberN).Value, 10, 64)
			want, _ := strconv.ParseInt(params.ExpressionAttributeValues[":offset"].(*types.AttributeValueMemberN).Value, 10, 64)
			if have > want {
				return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
			}
		}
	}

	m.items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDDBClient) DeleteItem(_ context.Context, params *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	delete(m.items, params.Key[attrStream].(*types.AttributeValueMemberS).Value)
	return &dynamodb.DeleteItemOutput{}, nil
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newMockDDBClient(), "checkpoints")

	require.NoError(t, store.Save(ctx, checkpoint.Checkpoint{Stream: "s", Offset: 100}))
	require.NoError(t, store.Delete(ctx, "s"))
	require.NoError(t, store.Delete(ctx, "s"))

	_, err := store.Load(ctx, "s")
	assert.ErrorIs(t, err, checkpoint.ErrNotFound)

	// A rewound stream may save a lower offset again.
	require.NoError(t, store.Save(ctx, checkpoint.Checkpoint{Stream: "s", Offset: 2}))
}

func TestStore_LoadNotFound(t *testing.T) {
	store := NewStore(newMockDDBClient(), "checkpoints")

	_, err := store.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, checkpoint.ErrNotFound)
}

func TestStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newMockDDBClient(), "checkpoints")

	at := time.Date(2026, 3, 4, 5, 6, 7, 8, time.UTC)
	want := checkpoint.Checkpoint{Stream: "s3://logs/a.log", Offset: 4096, Records: 17, RunID: "run-1", UpdatedAt: at}
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Load(ctx, want.Stream)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStore_NeverMovesBackwards(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newMockDDBClient(), "checkpoints")

	require.NoError(t, store.Save(ctx, checkpoint.Checkpoint{Stream: "s", Offset: 100}))
	require.NoError(t, store.Save(ctx, checkpoint.Checkpoint{Stream: "s", Offset: 100, Records: 3}))

	err := store.Save(ctx, checkpoint.Checkpoint{Stream: "s", Offset: 99})
	assert.ErrorIs(t, err, checkpoint.ErrStale)

	got, err := store.Load(ctx, "s")
	require.NoError(t, err)
	assert.EqualValues(t, 100, got.Offset)
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestStore_ConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newMockDDBClient(), "checkpoints")

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(off int64) {
			defer wg.Done()
			err := store.Save(ctx, checkpoint.Checkpoint{Stream: "s", Offset: off})
			if err != nil {
				assert.ErrorIs(t, err, checkpoint.ErrStale)
			}
		}(int64(i))
	}
	wg.Wait()

	got, err := store.Load(ctx, "s")
	require.NoError(t, err)
	assert.EqualValues(t, 49, got.Offset)
}

func TestStore_Invalid(t *testing.T) {
	store := NewStore(newMockDDBClient(), "checkpoints")

	err := store.Save(context.Background(), checkpoint.Checkpoint{Offset: 1})
	assert.ErrorIs(t, err, checkpoint.ErrInvalid)
}

func TestStore_ClientError(t *testing.T) {
	boom := errors.New("throttled")
	client := newMockDDBClient()
	client.err = boom
	store := NewStore(client, "checkpoints")

	_, err := store.Load(context.Background(), "s")
	assert.ErrorIs(t, err, boom)
	err = store.Save(context.Background(), checkpoint.Checkpoint{Stream: "s"})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, checkpoint.ErrStale)
}

func TestDecodeItem_Invalid(t *testing.T) {
	_, err := decodeItem(map[string]types.AttributeValue{
		attrStream: &types.AttributeValueMemberS{Value: "s"},
		attrOffset: &types.AttributeValueMemberS{Value: "not a number"},
	})
	assert.Error(t, err)

	_, err = decodeItem(map[string]types.AttributeValue{
		attrStream:  &types.AttributeValueMemberS{Value: "s"},
		attrOffset:  &types.AttributeValueMemberN{Value: "x"},
		attrRecords: &types.AttributeValueMemberN{Value: "1"},
	})
	assert.Error(t, err)
}
