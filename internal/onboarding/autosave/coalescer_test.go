package autosave

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/georgemunganga/supplier-onboarding/internal/modules/supplier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	patches []supplier.Patch
	fail    error
}

func (r *recorder) persist(_ context.Context, p supplier.Patch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patches = append(r.patches, p)
	return r.fail
}

func (r *recorder) calls() []supplier.Patch {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]supplier.Patch(nil), r.patches...)
}

func (r *recorder) setFail(err error) {
	r.mu.Lock()
	r.fail = err
	r.mu.Unlock()
}

func TestDebouncedSavesCoalesceIntoOneFlush(t *testing.T) {
	rec := &recorder{}
	c := New(rec.persist, WithDelay(30*time.Millisecond))
	ctx := context.Background()

	require.NoError(t, c.Save(ctx, supplier.Patch{CompanyName: supplier.String("1")}, false))
	require.NoError(t, c.Save(ctx, supplier.Patch{SupportHours: supplier.String("2")}, false))
	require.NoError(t, c.Save(ctx, supplier.Patch{CompanyName: supplier.String("3")}, false))
	assert.Empty(t, rec.calls())

	assert.Eventually(t, func() bool { return len(rec.calls()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)

	calls := rec.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "3", *calls[0].CompanyName)
	assert.Equal(t, "2", *calls[0].SupportHours)
	assert.Equal(t, StatusSaved, c.Status())
	assert.True(t, c.Pending().IsEmpty())
}

func TestImmediateSaveFlushesPendingAndCancelsTimer(t *testing.T) {
	rec := &recorder{}
	c := New(rec.persist, WithDelay(30*time.Millisecond))
	ctx := context.Background()

	require.NoError(t, c.Save(ctx, supplier.Patch{CompanyName: supplier.String("Acme")}, false))
	require.NoError(t, c.Save(ctx, supplier.Patch{CurrentStep: supplier.Int(2)}, true))

	calls := rec.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Acme", *calls[0].CompanyName)
	assert.Equal(t, 2, *calls[0].CurrentStep)

	time.Sleep(60 * time.Millisecond)
	assert.Len(t, rec.calls(), 1, "the debounce timer was cancelled")
}

func TestFlushWithNothingPendingIsNoop(t *testing.T) {
	rec := &recorder{}
	c := New(rec.persist)

	require.NoError(t, c.Flush(context.Background()))
	require.NoError(t, c.Flush(context.Background()))
	assert.Empty(t, rec.calls())
	assert.Equal(t, StatusIdle, c.Status())
	assert.Equal(t, 0, c.Flushes())
}

func TestFailedFlushIsNotRetried(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("boom")
	rec.setFail(boom)
	var seen []Status
	var mu sync.Mutex
	c := New(rec.persist, WithStatusHook(func(st Status, _ error) {
		mu.Lock()
		seen = append(seen, st)
		mu.Unlock()
	}))
	ctx := context.Background()

	err := c.Save(ctx, supplier.Patch{CompanyName: supplier.String("Acme")}, true)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StatusError, c.Status())
	assert.ErrorIs(t, c.Err(), boom)
	assert.True(t, c.Pending().IsEmpty(), "failed fields are dropped")

	rec.setFail(nil)
	require.NoError(t, c.Flush(ctx))
	assert.Len(t, rec.calls(), 1)
	assert.Equal(t, StatusError, c.Status(), "an empty flush does not clear the error")

	require.NoError(t, c.Save(ctx, supplier.Patch{NPI: supplier.String("1234567890")}, true))
	assert.Equal(t, StatusSaved, c.Status())
	assert.NoError(t, c.Err())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Status{StatusSaving, StatusError, StatusSaving, StatusSaved}, seen)
}

func TestRequeueOnErrorKeepsNewerEdits(t *testing.T) {
	rec := &recorder{}
	rec.setFail(errors.New("offline"))
	c := New(rec.persist, WithRequeueOnError())
	ctx := context.Background()

	require.Error(t, c.Save(ctx, supplier.Patch{
		CompanyName:  supplier.String("old"),
		SupportHours: supplier.String("9-5"),
	}, true))
	require.NoError(t, c.Save(ctx, supplier.Patch{CompanyName: supplier.String("new")}, false))

	p := c.Pending()
	require.NotNil(t, p.CompanyName)
	assert.Equal(t, "new", *p.CompanyName)
	assert.Equal(t, "9-5", *p.SupportHours)

	rec.setFail(nil)
	require.NoError(t, c.Flush(ctx))
	calls := rec.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "new", *calls[1].CompanyName)
	assert.Equal(t, "9-5", *calls[1].SupportHours)
}

func TestCloseFlushesAndRejectsSaves(t *testing.T) {
	rec := &recorder{}
	c := New(rec.persist, WithDelay(time.Hour))
	ctx := context.Background()

	require.NoError(t, c.Save(ctx, supplier.Patch{SupportEmail: supplier.String("help@acme.test")}, false))
	require.NoError(t, c.Close(ctx))
	assert.Len(t, rec.calls(), 1)
	assert.ErrorIs(t, c.Save(ctx, supplier.Patch{}, false), ErrClosed)
	assert.NoError(t, c.Close(ctx))
}
