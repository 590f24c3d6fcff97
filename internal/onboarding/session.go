// Package onboarding is the supplier-side wizard session: the local draft, the
// autosave coalescer, and the progress controller, talking to a Draft Store.
package onboarding

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/georgemunganga/supplier-onboarding/internal/modules/catalog"
	"github.com/georgemunganga/supplier-onboarding/internal/modules/payment"
	"github.com/georgemunganga/supplier-onboarding/internal/modules/supplier"
	"github.com/georgemunganga/supplier-onboarding/internal/onboarding/autosave"
	"github.com/georgemunganga/supplier-onboarding/internal/onboarding/poll"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DraftStore is the server boundary a session reads and writes through.
type DraftStore interface {
	FetchSupplier(ctx context.Context, id uuid.UUID) (*supplier.Supplier, error)
	PatchSupplier(ctx context.Context, id uuid.UUID, p supplier.Patch) (*supplier.Supplier, error)
	FetchChildren(ctx context.Context, id uuid.UUID) (*supplier.Children, error)
	Submit(ctx context.Context, id uuid.UUID) (*supplier.SubmitResponse, error)
	FetchCorrections(ctx context.Context, id uuid.UUID) ([]*supplier.Correction, error)
	UploadStatus(ctx context.Context, id uuid.UUID) (*catalog.UploadStatus, error)
	CheckPaymentStatus(ctx context.Context, id uuid.UUID) (*payment.AccountStatus, error)
}

// Config tunes a session. Zero values fall back to the defaults.
type Config struct {
	Steps    *supplier.StepTable
	Autosave []autosave.Option
	Catalog  poll.Schedule
	Payment  poll.Schedule
	Logger   *zap.Logger
}

// CorrectionGroup is the notes addressed to one step, with its label.
type CorrectionGroup struct {
	Step  int                    `json:"step"`
	Label string                 `json:"label"`
	Notes []*supplier.Correction `json:"notes"`
}

// Session is one supplier's wizard state. Each session owns its coalescer and
// controller; nothing is shared between sessions.
type Session struct {
	id     uuid.UUID
	store  DraftStore
	steps  *supplier.StepTable
	cfg    Config
	logger *zap.Logger
	saver  *autosave.Coalescer
	ctrl   *Controller

	mu          sync.RWMutex
	draft       *supplier.Supplier
	children    *supplier.Children
	corrections []*supplier.Correction
}

// Open loads the draft, its children and, when corrections were requested,
// the open notes.
func Open(ctx context.Context, store DraftStore, id uuid.UUID, cfg Config) (*Session, error) {
	if cfg.Steps == nil {
		cfg.Steps = supplier.DefaultSteps()
	}
	if cfg.Catalog.Interval == 0 {
		cfg.Catalog = poll.CatalogSchedule
	}
	if cfg.Payment.Interval == 0 {
		cfg.Payment = poll.PaymentSchedule
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	draft, err := store.FetchSupplier(ctx, id)
	if err != nil {
		return nil, err
	}
	children, err := store.FetchChildren(ctx, id)
	if err != nil {
		return nil, err
	}

	s := &Session{
		id:       id,
		store:    store,
		steps:    cfg.Steps,
		cfg:      cfg,
		logger:   cfg.Logger.With(zap.String("supplier_id", id.String())),
		draft:    draft,
		children: children,
	}
	opts := append([]autosave.Option{autosave.WithLogger(s.logger)}, cfg.Autosave...)
	s.saver = autosave.New(s.persist, opts...)
	s.ctrl = NewController(cfg.Steps, draft.Tier, draft.CurrentStep, draft.MaxStepReached, s.Validate, s.saver)

	if err := s.RefreshCorrections(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) persist(ctx context.Context, p supplier.Patch) error {
	out, err := s.store.PatchSupplier(ctx, s.id, p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.draft.Status = out.Status
	s.draft.StripeOnboardingComplete = out.StripeOnboardingComplete
	s.draft.SLAAcknowledgedAt = out.SLAAcknowledgedAt
	s.draft.UpdatedAt = out.UpdatedAt
	s.mu.Unlock()
	return nil
}

func (s *Session) ID() uuid.UUID                 { return s.id }
func (s *Session) Controller() *Controller       { return s.ctrl }
func (s *Session) Autosave() *autosave.Coalescer { return s.saver }

// Draft returns a copy of the local record with the controller's position.
func (s *Session) Draft() supplier.Supplier {
	s.mu.RLock()
	d := *s.draft
	s.mu.RUnlock()
	d.CurrentStep = s.ctrl.CurrentStep()
	d.MaxStepReached = s.ctrl.MaxStepReached()
	return d
}

func (s *Session) Children() supplier.Children {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.children
}

func (s *Session) Actions() supplier.Actions {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return supplier.ActionsFor(s.draft.Status)
}

// Save applies p to the local draft and hands it to the coalescer. Step
// position belongs to the controller, so navigation fields in p are ignored.
func (s *Session) Save(ctx context.Context, p supplier.Patch, immediate bool) error {
	p.CurrentStep, p.MaxStepReached = nil, nil

	s.mu.Lock()
	if !supplier.CanEdit(s.draft.Status) {
		s.mu.Unlock()
		return supplier.ErrNotEditable
	}
	p.Apply(s.draft, time.Now())
	s.mu.Unlock()

	if p.Tier != nil {
		s.ctrl.SetTier(*p.Tier)
	}
	return s.saver.Save(ctx, p, immediate)
}

func (s *Session) Flush(ctx context.Context) error { return s.saver.Flush(ctx) }

// Validate runs the step validator against the local draft.
func (s *Session) Validate(step int) supplier.ValidationResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return supplier.ValidateStep(s.steps, step, s.draft, s.children)
}

// Readiness runs the submission check locally.
func (s *Session) Readiness() []supplier.ReadinessIssue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return supplier.CheckReadiness(s.steps, s.draft, s.children)
}

// Submit flushes pending edits and submits. When the server reports readiness
// issues their steps are opened on the controller so the supplier can jump there.
func (s *Session) Submit(ctx context.Context) (*supplier.SubmitResponse, error) {
	if err := s.saver.Flush(ctx); err != nil {
		return nil, err
	}
	resp, err := s.store.Submit(ctx, s.id)
	var re *supplier.ReadinessError
	if errors.As(err, &re) {
		steps := make([]int, 0, len(re.Issues))
		for _, is := range re.Issues {
			steps = append(steps, is.Step)
		}
		s.ctrl.Open(steps...)
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.draft.Status = resp.Status
	s.draft.SubmittedAt = resp.SubmittedAt
	s.mu.Unlock()
	s.logger.Info("application submitted")
	return resp, nil
}

// Refresh reloads the record from the server.
func (s *Session) Refresh(ctx context.Context) error {
	draft, err := s.store.FetchSupplier(ctx, s.id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.draft = draft
	s.mu.Unlock()
	s.ctrl.Reconcile(draft)
	return s.RefreshCorrections(ctx)
}

func (s *Session) RefreshChildren(ctx context.Context) error {
	children, err := s.store.FetchChildren(ctx, s.id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.children = children
	s.mu.Unlock()
	return nil
}

// RefreshCorrections fetches notes only while corrections are outstanding.
func (s *Session) RefreshCorrections(ctx context.Context) error {
	s.mu.RLock()
	status := s.draft.Status
	s.mu.RUnlock()

	var notes []*supplier.Correction
	if status == supplier.StatusActionNeeded {
		var err error
		notes, err = s.store.FetchCorrections(ctx, s.id)
		if err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.corrections = notes
	s.mu.Unlock()
	s.ctrl.SetCorrections(notes)
	return nil
}

func (s *Session) Corrections() []*supplier.Correction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*supplier.Correction(nil), s.corrections...)
}

// CorrectionGroups groups the open notes by step, in step order.
func (s *Session) CorrectionGroups() []CorrectionGroup {
	var groups []CorrectionGroup
	for _, n := range s.Corrections() {
		if len(groups) == 0 || groups[len(groups)-1].Step != n.StepNumber {
			groups = append(groups, CorrectionGroup{Step: n.StepNumber, Label: s.steps.Label(n.StepNumber)})
		}
		g := &groups[len(groups)-1]
		g.Notes = append(g.Notes, n)
	}
	return groups
}

// WatchCatalog polls the latest upload in the background until it finishes,
// then reloads the product list. Stop the task when the view goes away.
func (s *Session) WatchCatalog(ctx context.Context, onUpdate func(*catalog.UploadStatus)) *poll.Task {
	return poll.Start(ctx, func(ctx context.Context) error {
		fetch := func(ctx context.Context) (*catalog.UploadStatus, error) { return s.store.UploadStatus(ctx, s.id) }
		if _, err := poll.WatchCatalog(ctx, s.cfg.Catalog, fetch, onUpdate); err != nil {
			return err
		}
		return s.RefreshChildren(ctx)
	})
}

// WatchPayment polls the payment account until onboarding completes.
func (s *Session) WatchPayment(ctx context.Context, onUpdate func(*payment.AccountStatus)) *poll.Task {
	return poll.Start(ctx, func(ctx context.Context) error {
		fetch := func(ctx context.Context) (*payment.AccountStatus, error) { return s.store.CheckPaymentStatus(ctx, s.id) }
		st, err := poll.WatchPayment(ctx, s.cfg.Payment, fetch, onUpdate)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.draft.StripeOnboardingComplete = st.OnboardingComplete
		s.mu.Unlock()
		return nil
	})
}

// Close flushes pending edits and stops the coalescer.
func (s *Session) Close(ctx context.Context) error {
	return s.saver.Close(ctx)
}
