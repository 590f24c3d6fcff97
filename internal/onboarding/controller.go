package onboarding

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/georgemunganga/supplier-onboarding/internal/modules/supplier"
)

var (
	ErrStepNotVisible = errors.New("step is not visible for the selected tier")
	ErrStepLocked     = errors.New("step has not been reached yet")
	ErrStepInvalid    = errors.New("current step has validation errors")
	ErrNoNextStep     = errors.New("no step after the last visible step")
)

// Persister is the autosave surface the controller writes navigation through.
type Persister interface {
	Save(ctx context.Context, p supplier.Patch, immediate bool) error
	Flush(ctx context.Context) error
}

// Validator checks one step against the current draft.
type Validator func(step int) supplier.ValidationResult

// Progress is the wizard position among the visible steps.
type Progress struct {
	Current        int `json:"current_step"`
	MaxStepReached int `json:"max_step_reached"`
	Position       int `json:"position"`
	Total          int `json:"total"`
	Percent        int `json:"percent"`
}

// Controller moves a supplier between wizard steps. The current step is always
// visible for the tier and the furthest step reached never decreases. The
// current step may lie past the furthest step reached only when it was opened
// by a correction note or a failed readiness check.
type Controller struct {
	steps    *supplier.StepTable
	validate Validator
	saver    Persister

	// nav serializes GoTo/Advance/Back; mu guards the fields below.
	nav sync.Mutex
	mu  sync.Mutex

	tier    supplier.Tier
	current int
	max     int
	flagged map[int]bool // unresolved correction notes, replaced on every refresh
	opened  map[int]bool // failed readiness checks, kept for the session
}

func NewController(steps *supplier.StepTable, tier supplier.Tier, current, max int, validate Validator, saver Persister) *Controller {
	current = steps.Clamp(current, tier)
	return &Controller{
		steps:    steps,
		validate: validate,
		saver:    saver,
		tier:     tier,
		current:  current,
		max:      max,
		flagged:  map[int]bool{},
		opened:   map[int]bool{},
	}
}

func (c *Controller) CurrentStep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Controller) MaxStepReached() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.max
}

func (c *Controller) Tier() supplier.Tier {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tier
}

// CanAccess reports whether GoTo(step) would be allowed: the step is visible
// and either already reached or flagged for the supplier's attention.
func (c *Controller) CanAccess(step int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessErrLocked(step) == nil
}

func (c *Controller) accessErrLocked(step int) error {
	if !c.steps.IsVisible(step, c.tier) {
		return fmt.Errorf("%w: %d", ErrStepNotVisible, step)
	}
	if step > c.max && !c.flagged[step] && !c.opened[step] {
		return fmt.Errorf("%w: %d", ErrStepLocked, step)
	}
	return nil
}

// SetCorrections opens the steps named by unresolved notes.
func (c *Controller) SetCorrections(notes []*supplier.Correction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flagged = map[int]bool{}
	for _, n := range notes {
		if !n.Resolved {
			c.flagged[n.StepNumber] = true
		}
	}
}

// Open unlocks steps a failed readiness check points at. They stay open for the
// rest of the session; SetCorrections does not touch them.
func (c *Controller) Open(steps ...int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range steps {
		c.opened[s] = true
	}
}

// OpenSteps lists the unlocked steps in order.
func (c *Controller) OpenSteps() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]int, 0, len(c.flagged)+len(c.opened))
	for s := range c.flagged {
		out = append(out, s)
	}
	for s := range c.opened {
		if !c.flagged[s] {
			out = append(out, s)
		}
	}
	sort.Ints(out)
	return out
}

// SetTier switches the visible list. A current step hidden by the new tier
// moves to the closest visible step before it.
func (c *Controller) SetTier(tier supplier.Tier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tier = tier
	c.current = c.steps.Clamp(c.current, tier)
}

// Reconcile adopts a freshly loaded record without lowering the furthest step.
// A current step past the furthest step does not raise it.
func (c *Controller) Reconcile(s *supplier.Supplier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tier = s.Tier
	if s.MaxStepReached > c.max {
		c.max = s.MaxStepReached
	}
	c.current = c.steps.Clamp(s.CurrentStep, s.Tier)
}

func (c *Controller) GoTo(ctx context.Context, step int) error {
	c.nav.Lock()
	defer c.nav.Unlock()

	c.mu.Lock()
	if err := c.accessErrLocked(step); err != nil {
		c.mu.Unlock()
		return err
	}
	prev := c.current
	if step == prev {
		c.mu.Unlock()
		return nil
	}
	c.current = step
	c.mu.Unlock()

	if err := c.saver.Save(ctx, supplier.Patch{CurrentStep: supplier.Int(step)}, true); err != nil {
		c.restore(prev)
		return err
	}
	return nil
}

// Advance validates the current step, flushes pending edits, and moves to the
// next visible step. A failed validation returns the result with ErrStepInvalid
// and changes nothing.
func (c *Controller) Advance(ctx context.Context) (supplier.ValidationResult, error) {
	c.nav.Lock()
	defer c.nav.Unlock()

	c.mu.Lock()
	cur, tier := c.current, c.tier
	c.mu.Unlock()

	res := c.validate(cur)
	if !res.Valid {
		return res, ErrStepInvalid
	}
	next, ok := c.steps.Next(cur, tier)
	if !ok {
		return res, ErrNoNextStep
	}
	if err := c.saver.Flush(ctx); err != nil {
		return res, err
	}

	patch := supplier.Patch{CurrentStep: supplier.Int(next)}
	c.mu.Lock()
	c.current = next
	if next > c.max {
		c.max = next
		patch.MaxStepReached = supplier.Int(next)
	}
	c.mu.Unlock()

	if err := c.saver.Save(ctx, patch, true); err != nil {
		c.restore(cur)
		return res, err
	}
	return res, nil
}

// Back moves to the previous visible step. On the first step it does nothing.
func (c *Controller) Back(ctx context.Context) error {
	c.nav.Lock()
	defer c.nav.Unlock()

	c.mu.Lock()
	cur := c.current
	prev, ok := c.steps.Prev(cur, c.tier)
	if !ok {
		c.mu.Unlock()
		return nil
	}
	c.current = prev
	c.mu.Unlock()

	if err := c.saver.Save(ctx, supplier.Patch{CurrentStep: supplier.Int(prev)}, true); err != nil {
		c.restore(cur)
		return err
	}
	return nil
}

// restore moves back to the step a failed navigation left. The furthest step
// reached is kept.
func (c *Controller) restore(current int) {
	c.mu.Lock()
	c.current = current
	c.mu.Unlock()
}

func (c *Controller) Progress() Progress {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := len(c.steps.Visible(c.tier))
	pos := c.steps.Index(c.current, c.tier) + 1
	p := Progress{Current: c.current, MaxStepReached: c.max, Position: pos, Total: total}
	if total > 0 {
		p.Percent = pos * 100 / total
	}
	return p
}
