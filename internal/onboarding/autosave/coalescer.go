// Package autosave batches rapid draft edits into infrequent persistence calls.
package autosave

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/georgemunganga/supplier-onboarding/internal/modules/supplier"
	"go.uber.org/zap"
)

// DefaultDelay is the debounce window for non-immediate saves.
const DefaultDelay = 500 * time.Millisecond

// ErrClosed is returned by Save after Close.
var ErrClosed = errors.New("autosave: coalescer closed")

// Status is the observable state of the most recent flush.
type Status string

const (
	StatusIdle   Status = "idle"
	StatusSaving Status = "saving"
	StatusSaved  Status = "saved"
	StatusError  Status = "error"
)

// PersistFunc writes one merged patch.
type PersistFunc func(ctx context.Context, p supplier.Patch) error

type Option func(*Coalescer)

func WithDelay(d time.Duration) Option {
	return func(c *Coalescer) { c.delay = d }
}

// WithRequeueOnError puts the fields of a failed flush back into the pending
// patch, under any edits made since. Off by default: a failed patch is dropped
// and only the status reports it.
func WithRequeueOnError() Option {
	return func(c *Coalescer) { c.requeue = true }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Coalescer) { c.logger = l }
}

// WithStatusHook is called after every status change, outside the lock.
func WithStatusHook(fn func(Status, error)) Option {
	return func(c *Coalescer) { c.hook = fn }
}

// Coalescer merges field edits into a pending patch (last write per field wins)
// and persists it after a quiet period, or at once on request. One persistence
// call is outstanding at a time.
type Coalescer struct {
	persist PersistFunc
	delay   time.Duration
	requeue bool
	logger  *zap.Logger
	hook    func(Status, error)

	// background flushes run under ctx; Close cancels it.
	ctx    context.Context
	cancel context.CancelFunc

	flushMu sync.Mutex

	mu      sync.Mutex
	pending supplier.Patch
	timer   *time.Timer
	gen     uint64
	status  Status
	err     error
	flushes int
	closed  bool
}

func New(persist PersistFunc, opts ...Option) *Coalescer {
	c := &Coalescer{
		persist: persist,
		delay:   DefaultDelay,
		logger:  zap.NewNop(),
		status:  StatusIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	return c
}

// Save merges p into the pending patch. A debounced save (re)arms the timer
// and returns at once; an immediate save cancels the timer and flushes
// everything pending before returning.
func (c *Coalescer) Save(ctx context.Context, p supplier.Patch, immediate bool) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.pending = c.pending.Merge(p)
	if immediate {
		c.stopTimerLocked()
		c.mu.Unlock()
		return c.Flush(ctx)
	}
	c.stopTimerLocked()
	c.gen++
	gen := c.gen
	c.timer = time.AfterFunc(c.delay, func() { c.fire(gen) })
	c.mu.Unlock()
	return nil
}

func (c *Coalescer) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// fire runs on the timer goroutine. A timer superseded by a later Save is stale.
func (c *Coalescer) fire(gen uint64) {
	c.mu.Lock()
	stale := gen != c.gen || c.timer == nil
	if !stale {
		c.timer = nil
	}
	c.mu.Unlock()
	if stale {
		return
	}
	if err := c.Flush(c.ctx); err != nil {
		c.logger.Warn("debounced autosave failed", zap.Error(err))
	}
}

// Flush persists the pending patch now. With nothing pending it does nothing.
func (c *Coalescer) Flush(ctx context.Context) error {
	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	c.mu.Lock()
	c.stopTimerLocked()
	p := c.pending
	c.pending = supplier.Patch{}
	if p.IsEmpty() {
		c.mu.Unlock()
		return nil
	}
	c.flushes++
	c.mu.Unlock()

	c.setStatus(StatusSaving, nil)
	if err := c.persist(ctx, p); err != nil {
		if c.requeue {
			c.mu.Lock()
			c.pending = p.Merge(c.pending)
			c.mu.Unlock()
		}
		c.setStatus(StatusError, err)
		return err
	}
	c.setStatus(StatusSaved, nil)
	return nil
}

func (c *Coalescer) setStatus(st Status, err error) {
	c.mu.Lock()
	c.status = st
	if st != StatusSaving {
		c.err = err
	}
	hook := c.hook
	c.mu.Unlock()
	if hook != nil {
		hook(st, err)
	}
}

func (c *Coalescer) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Err is the error of the last failed flush, cleared by the next successful one.
func (c *Coalescer) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Pending returns a copy of the unsaved patch.
func (c *Coalescer) Pending() supplier.Patch {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Flushes counts persistence calls made so far.
func (c *Coalescer) Flushes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flushes
}

// Close flushes what is pending and stops accepting saves.
func (c *Coalescer) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.stopTimerLocked()
	c.mu.Unlock()

	err := c.Flush(ctx)
	c.cancel()
	return err
}
