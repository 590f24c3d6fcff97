// Package suppliertest provides an in-memory supplier.Repository for tests.
package suppliertest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/georgemunganga/supplier-onboarding/internal/modules/supplier"
	"github.com/google/uuid"
)

// Repo is a goroutine-safe in-memory supplier.Repository. Records are copied
// in and out so callers never share state with the store.
type Repo struct {
	mu          sync.Mutex
	suppliers   map[uuid.UUID]*supplier.Supplier
	corrections []*supplier.Correction
}

func NewRepo() *Repo {
	return &Repo{suppliers: map[uuid.UUID]*supplier.Supplier{}}
}

var _ supplier.Repository = (*Repo)(nil)

func clone(s *supplier.Supplier) *supplier.Supplier {
	c := *s
	return &c
}

// Put stores s as-is, replacing any record with the same id.
func (r *Repo) Put(s *supplier.Supplier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.suppliers[s.ID] = clone(s)
}

// AllCorrections returns every stored note, resolved or not.
func (r *Repo) AllCorrections() []*supplier.Correction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*supplier.Correction, len(r.corrections))
	for i, c := range r.corrections {
		v := *c
		out[i] = &v
	}
	return out
}

func (r *Repo) Create(_ context.Context, s *supplier.Supplier) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	s.CreatedAt, s.UpdatedAt = now, now
	r.suppliers[s.ID] = clone(s)
	return nil
}

func (r *Repo) find(match func(*supplier.Supplier) bool) (*supplier.Supplier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.suppliers {
		if match(s) {
			return clone(s), nil
		}
	}
	return nil, supplier.ErrNotFound
}

func (r *Repo) GetByID(_ context.Context, id uuid.UUID) (*supplier.Supplier, error) {
	return r.find(func(s *supplier.Supplier) bool { return s.ID == id })
}

func (r *Repo) GetByInviteToken(_ context.Context, token string) (*supplier.Supplier, error) {
	return r.find(func(s *supplier.Supplier) bool { return s.InviteToken == token })
}

func (r *Repo) GetByStripeAccountID(_ context.Context, accountID string) (*supplier.Supplier, error) {
	return r.find(func(s *supplier.Supplier) bool { return accountID != "" && s.StripeAccountID == accountID })
}

func (r *Repo) List(_ context.Context, status supplier.Status) ([]*supplier.Supplier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*supplier.Supplier{}
	for _, s := range r.suppliers {
		if status == "" || s.Status == status {
			out = append(out, clone(s))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.SubmittedAt != nil && b.SubmittedAt == nil:
			return true
		case a.SubmittedAt == nil && b.SubmittedAt != nil:
			return false
		case a.SubmittedAt != nil && !a.SubmittedAt.Equal(*b.SubmittedAt):
			return a.SubmittedAt.After(*b.SubmittedAt)
		}
		return a.UpdatedAt.After(b.UpdatedAt)
	})
	return out, nil
}

func (r *Repo) Update(_ context.Context, id uuid.UUID, p supplier.Patch, now time.Time) (*supplier.Supplier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.suppliers[id]
	if !ok {
		return nil, supplier.ErrNotFound
	}
	p.Apply(s, now)
	return clone(s), nil
}

func (r *Repo) mutate(id uuid.UUID, fn func(*supplier.Supplier)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.suppliers[id]
	if !ok {
		return supplier.ErrNotFound
	}
	fn(s)
	s.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *Repo) SetStripeAccount(_ context.Context, id uuid.UUID, accountID string) error {
	return r.mutate(id, func(s *supplier.Supplier) { s.StripeAccountID = accountID })
}

func (r *Repo) SetStripeOnboardingComplete(_ context.Context, id uuid.UUID, complete bool) error {
	return r.mutate(id, func(s *supplier.Supplier) { s.StripeOnboardingComplete = complete })
}

// transition must be called with r.mu held.
func (r *Repo) transition(id uuid.UUID, a supplier.Action, now time.Time) (*supplier.Supplier, error) {
	s, ok := r.suppliers[id]
	if !ok {
		return nil, supplier.ErrNotFound
	}
	t, err := supplier.TransitionFor(a)
	if err != nil {
		return nil, err
	}
	if !supplier.Allowed(a, s.Status) {
		return nil, &supplier.IllegalTransitionError{Action: a, Status: s.Status}
	}
	s.Status = t.To
	s.UpdatedAt = now
	switch a {
	case supplier.ActionSubmit:
		at := now
		s.SubmittedAt = &at
	case supplier.ActionApprove:
		at := now
		s.ApprovedAt = &at
	}
	return clone(s), nil
}

func (r *Repo) Transition(_ context.Context, id uuid.UUID, a supplier.Action, now time.Time) (*supplier.Supplier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transition(id, a, now)
}

func (r *Repo) RequestCorrections(_ context.Context, id uuid.UUID, reviewer string, items []supplier.CorrectionRequest, now time.Time) (*supplier.Supplier, []*supplier.Correction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.transition(id, supplier.ActionRequestCorrections, now)
	if err != nil {
		return nil, nil, err
	}
	notes := make([]*supplier.Correction, 0, len(items))
	for _, item := range items {
		c := &supplier.Correction{
			ID:         uuid.New(),
			SupplierID: id,
			StepNumber: item.StepNumber,
			Comment:    item.Comment,
			CreatedBy:  reviewer,
			CreatedAt:  now,
		}
		r.corrections = append(r.corrections, c)
		v := *c
		notes = append(notes, &v)
	}
	return s, notes, nil
}

func (r *Repo) ListCorrections(_ context.Context, supplierID uuid.UUID, unresolvedOnly bool) ([]*supplier.Correction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*supplier.Correction{}
	for _, c := range r.corrections {
		if c.SupplierID != supplierID || (unresolvedOnly && c.Resolved) {
			continue
		}
		v := *c
		out = append(out, &v)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StepNumber < out[j].StepNumber })
	return out, nil
}

// StaticChildren is a supplier.ChildLoader returning a fixed collection for every supplier.
type StaticChildren struct {
	mu       sync.Mutex
	Children supplier.Children
}

func (c *StaticChildren) Load(context.Context, uuid.UUID) (*supplier.Children, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.Children
	return &v, nil
}

// Set replaces the collections returned by Load.
func (c *StaticChildren) Set(children supplier.Children) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Children = children
}
