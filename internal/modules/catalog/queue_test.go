package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testQueueKey = "onboarding:catalog:jobs"

func setupTestQueue(t *testing.T) (*miniredis.Miniredis, *RedisQueue) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewRedisQueue(client, testQueueKey)
}

func TestRedisQueue_FirstInFirstOut(t *testing.T) {
	mr, q := setupTestQueue(t)
	ctx := context.Background()

	first := Job{UploadID: uuid.New(), SupplierID: uuid.New()}
	second := Job{UploadID: uuid.New(), SupplierID: first.SupplierID}
	require.NoError(t, q.Enqueue(ctx, first))
	require.NoError(t, q.Enqueue(ctx, second))

	items, err := mr.List(testQueueKey)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	got, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, got)
	got, err = q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, got)
	assert.False(t, mr.Exists(testQueueKey))
}

func TestRedisQueue_KeepsWaitingOnEmptyList(t *testing.T) {
	_, q := setupTestQueue(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	job := Job{UploadID: uuid.New(), SupplierID: uuid.New()}
	go func() {
		// Past one BRPOP round, so the empty reply is seen before the push.
		time.Sleep(1200 * time.Millisecond)
		_ = q.Enqueue(context.Background(), job)
	}()

	got, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, job, got)
}

func TestRedisQueue_StopsWhenContextEnds(t *testing.T) {
	_, q := setupTestQueue(t)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := q.Dequeue(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 3*time.Second)

	cancelled, stop := context.WithCancel(context.Background())
	stop()
	_, err = q.Dequeue(cancelled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRedisQueue_RejectsUndecodablePayload(t *testing.T) {
	mr, q := setupTestQueue(t)
	_, err := mr.Lpush(testQueueKey, "not-json")
	require.NoError(t, err)

	_, err = q.Dequeue(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode catalog job")
}
