package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Job asks a worker to parse one stored upload into products.
type Job struct {
	UploadID   uuid.UUID `json:"upload_id"`
	SupplierID uuid.UUID `json:"supplier_id"`
}

// Queue hands catalog jobs from the upload endpoint to background workers.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	// Dequeue blocks until a job is available or ctx is done.
	Dequeue(ctx context.Context) (Job, error)
}

// ── Redis list queue ────────────────────────────────────────

type RedisQueue struct {
	c       *redis.Client
	key     string
	timeout time.Duration
}

// NewRedisQueue builds a queue on a Redis list. Workers block on BRPOP for at most
// one second per round so cancellation is noticed promptly.
func NewRedisQueue(c *redis.Client, key string) *RedisQueue {
	return &RedisQueue{c: c, key: key, timeout: time.Second}
}

func (q *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	b, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.c.LPush(ctx, q.key, b).Err()
}

func (q *RedisQueue) Dequeue(ctx context.Context) (Job, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Job{}, err
		}
		res, err := q.c.BRPop(ctx, q.timeout, q.key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return Job{}, ctx.Err()
			}
			return Job{}, err
		}
		// BRPOP replies with [key, value].
		if len(res) != 2 {
			return Job{}, fmt.Errorf("unexpected BRPOP reply of length %d", len(res))
		}
		var job Job
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			return Job{}, fmt.Errorf("decode catalog job: %w", err)
		}
		return job, nil
	}
}

// ── In-process queue ────────────────────────────────────────

// MemoryQueue is used when no Redis address is configured and in tests.
type MemoryQueue struct {
	ch chan Job
}

func NewMemoryQueue(size int) *MemoryQueue {
	return &MemoryQueue{ch: make(chan Job, size)}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, job Job) error {
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (Job, error) {
	select {
	case job := <-q.ch:
		return job, nil
	case <-ctx.Done():
		return Job{}, ctx.Err()
	}
}
