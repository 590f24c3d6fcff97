package catalog

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Worker drains the catalog queue until its context is cancelled.
type Worker struct {
	queue   Queue
	service Service
	logger  *zap.Logger
	backoff time.Duration
}

func NewWorker(queue Queue, service Service, logger *zap.Logger) *Worker {
	return &Worker{queue: queue, service: service, logger: logger.Named("catalog-worker"), backoff: time.Second}
}

// Run processes jobs one at a time. A failed job is recorded on its upload and never retried.
func (w *Worker) Run(ctx context.Context) {
	for {
		job, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("dequeue catalog job", zap.Error(err))
			select {
			case <-time.After(w.backoff):
				continue
			case <-ctx.Done():
				return
			}
		}
		if err := w.service.Process(ctx, job); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Warn("catalog job failed", zap.Stringer("upload_id", job.UploadID), zap.Error(err))
		}
	}
}

// RunPool starts n workers and blocks until all of them exit.
func RunPool(ctx context.Context, n int, queue Queue, service Service, logger *zap.Logger) {
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			NewWorker(queue, service, logger.With(zap.Int("worker", id))).Run(ctx)
		}(i)
	}
	wg.Wait()
}
