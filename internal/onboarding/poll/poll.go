// Package poll runs cancellable status checks for long-running server work.
package poll

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/georgemunganga/supplier-onboarding/internal/modules/catalog"
	"github.com/georgemunganga/supplier-onboarding/internal/modules/payment"
)

var (
	ErrTimeout       = errors.New("poll: timed out")
	ErrCatalogFailed = errors.New("catalog processing failed")
)

// Schedule is how often to check and how long to wait in total. A zero
// Timeout polls until done or cancelled.
type Schedule struct {
	Interval time.Duration
	Timeout  time.Duration
}

var (
	CatalogSchedule = Schedule{Interval: 2 * time.Second, Timeout: 120 * time.Second}
	PaymentSchedule = Schedule{Interval: 5 * time.Second}
)

// CheckFunc reports whether the awaited work is finished. An error stops polling.
type CheckFunc func(ctx context.Context) (done bool, err error)

// Poll calls check every interval until it reports done, fails, the timeout
// elapses, or ctx is cancelled. The first check runs after one interval.
func Poll(ctx context.Context, s Schedule, check CheckFunc) error {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) && s.Timeout > 0 {
				return ErrTimeout
			}
			return ctx.Err()
		case <-ticker.C:
			done, err := check(ctx)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		}
	}
}

// WatchCatalog waits for the latest catalog upload to finish processing.
// onUpdate, when set, sees every observed status.
func WatchCatalog(ctx context.Context, s Schedule,
	fetch func(context.Context) (*catalog.UploadStatus, error),
	onUpdate func(*catalog.UploadStatus)) (*catalog.UploadStatus, error) {
	var last *catalog.UploadStatus
	err := Poll(ctx, s, func(ctx context.Context) (bool, error) {
		st, err := fetch(ctx)
		if err != nil {
			return false, err
		}
		last = st
		if onUpdate != nil {
			onUpdate(st)
		}
		return st.Status.Terminal() || st.Status == catalog.ProcessingNone, nil
	})
	if err != nil {
		return last, err
	}
	if last.Status == catalog.ProcessingFailed {
		return last, fmt.Errorf("%w: %s", ErrCatalogFailed, last.Error)
	}
	return last, nil
}

// WatchPayment waits until the supplier's payment account finishes onboarding.
func WatchPayment(ctx context.Context, s Schedule,
	fetch func(context.Context) (*payment.AccountStatus, error),
	onUpdate func(*payment.AccountStatus)) (*payment.AccountStatus, error) {
	var last *payment.AccountStatus
	err := Poll(ctx, s, func(ctx context.Context) (bool, error) {
		st, err := fetch(ctx)
		if err != nil {
			return false, err
		}
		last = st
		if onUpdate != nil {
			onUpdate(st)
		}
		return st.OnboardingComplete, nil
	})
	return last, err
}

// Task is a background poll bound to a view's lifetime. Stop cancels it and
// waits for the goroutine to exit.
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// Start runs fn in a goroutine under a cancellable child of ctx.
func Start(ctx context.Context, fn func(ctx context.Context) error) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(t.done)
		err := fn(ctx)
		t.mu.Lock()
		t.err = err
		t.mu.Unlock()
	}()
	return t
}

func (t *Task) Stop() {
	t.cancel()
	<-t.done
}

// Wait blocks until the task ends and returns its error.
func (t *Task) Wait() error {
	<-t.done
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Done is closed when the task has exited.
func (t *Task) Done() <-chan struct{} { return t.done }
