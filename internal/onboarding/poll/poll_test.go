package poll

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/georgemunganga/supplier-onboarding/internal/modules/catalog"
	"github.com/georgemunganga/supplier-onboarding/internal/modules/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fast = Schedule{Interval: 5 * time.Millisecond, Timeout: time.Second}

func TestPoll_StopsWhenDone(t *testing.T) {
	var n int32
	err := Poll(context.Background(), fast, func(context.Context) (bool, error) {
		return atomic.AddInt32(&n, 1) == 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&n))
}

func TestPoll_TimesOut(t *testing.T) {
	err := Poll(context.Background(), Schedule{Interval: 5 * time.Millisecond, Timeout: 30 * time.Millisecond},
		func(context.Context) (bool, error) { return false, nil })
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestPoll_CheckErrorStops(t *testing.T) {
	boom := errors.New("boom")
	err := Poll(context.Background(), fast, func(context.Context) (bool, error) { return false, boom })
	assert.ErrorIs(t, err, boom)
}

func TestPoll_CancelWithoutTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)
	err := Poll(ctx, Schedule{Interval: 5 * time.Millisecond}, func(context.Context) (bool, error) { return false, nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWatchCatalog(t *testing.T) {
	states := []catalog.ProcessingStatus{catalog.ProcessingUploaded, catalog.ProcessingProcessing, catalog.ProcessingCompleted}
	var i int32
	var seen []catalog.ProcessingStatus
	st, err := WatchCatalog(context.Background(), fast,
		func(context.Context) (*catalog.UploadStatus, error) {
			n := atomic.AddInt32(&i, 1) - 1
			return &catalog.UploadStatus{Status: states[n], ProductCount: int(n)}, nil
		},
		func(st *catalog.UploadStatus) { seen = append(seen, st.Status) })
	require.NoError(t, err)
	assert.Equal(t, catalog.ProcessingCompleted, st.Status)
	assert.Equal(t, states, seen)

	st, err = WatchCatalog(context.Background(), fast,
		func(context.Context) (*catalog.UploadStatus, error) {
			return &catalog.UploadStatus{Status: catalog.ProcessingFailed, Error: "unsupported file"}, nil
		}, nil)
	assert.ErrorIs(t, err, ErrCatalogFailed)
	assert.Contains(t, err.Error(), "unsupported file")
	assert.Equal(t, catalog.ProcessingFailed, st.Status)
}

func TestWatchPayment(t *testing.T) {
	var n int32
	st, err := WatchPayment(context.Background(), Schedule{Interval: 5 * time.Millisecond},
		func(context.Context) (*payment.AccountStatus, error) {
			done := atomic.AddInt32(&n, 1) >= 2
			return &payment.AccountStatus{DetailsSubmitted: true, ChargesEnabled: done, OnboardingComplete: done}, nil
		}, nil)
	require.NoError(t, err)
	assert.True(t, st.OnboardingComplete)
}

func TestTask_StopGuaranteesTeardown(t *testing.T) {
	var running int32
	task := Start(context.Background(), func(ctx context.Context) error {
		atomic.StoreInt32(&running, 1)
		defer atomic.StoreInt32(&running, 0)
		return Poll(ctx, Schedule{Interval: time.Millisecond}, func(context.Context) (bool, error) { return false, nil })
	})
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&running) == 1 }, time.Second, time.Millisecond)

	task.Stop()
	assert.Equal(t, int32(0), atomic.LoadInt32(&running))
	assert.ErrorIs(t, task.Wait(), context.Canceled)
	select {
	case <-task.Done():
	default:
		t.Fatal("task still running after Stop")
	}
}
