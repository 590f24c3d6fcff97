package supplier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/georgemunganga/supplier-onboarding/internal/modules/auth"
	"github.com/georgemunganga/supplier-onboarding/internal/modules/notify"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service defines the supplier-facing draft operations.
type Service interface {
	// Create issues an invite for a new supplier draft.
	Create(ctx context.Context, in CreateInput) (*Supplier, error)
	Get(ctx context.Context, id uuid.UUID) (*Supplier, error)
	// Patch applies a partial update. Step navigation is accepted in every status;
	// field edits only while the draft is editable.
	Patch(ctx context.Context, id uuid.UUID, p Patch) (*Supplier, error)
	Children(ctx context.Context, id uuid.UUID) (*Children, error)
	ValidateStep(ctx context.Context, id uuid.UUID, step int) (*ValidationResult, error)
	Readiness(ctx context.Context, id uuid.UUID) ([]ReadinessIssue, error)
	// Submit runs the readiness check and moves the draft to submitted.
	Submit(ctx context.Context, id uuid.UUID) (*Supplier, error)
	Status(ctx context.Context, id uuid.UUID) (*StatusView, error)
	// Corrections returns the unresolved notes ordered by step.
	Corrections(ctx context.Context, id uuid.UUID) ([]*Correction, error)
	VerifyInvite(ctx context.Context, token string) (*InviteInfo, error)
	Steps() *StepTable
}

// CreateInput is the admin invite payload.
type CreateInput struct {
	Email         string `json:"email"`
	CompanyName   string `json:"company_name"`
	EmailVerified bool   `json:"email_verified"`
}

// StatusView is the supplier's lightweight status poll response.
type StatusView struct {
	ID          uuid.UUID  `json:"id"`
	Status      Status     `json:"status"`
	CurrentStep int        `json:"current_step"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	Actions     Actions    `json:"actions"`
}

// InviteInfo is returned for a valid invite token. AccessToken is only set for verified emails.
type InviteInfo struct {
	SupplierID    uuid.UUID `json:"supplier_id"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"email_verified"`
	CompanyName   string    `json:"company_name"`
	CurrentStep   int       `json:"current_step"`
	Status        Status    `json:"status"`
	AccessToken   string    `json:"access_token,omitempty"`
}

type service struct {
	repo     Repository
	children ChildLoader
	steps    *StepTable
	issuer   auth.TokenIssuer
	notifier notify.Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(repo Repository, children ChildLoader, steps *StepTable, issuer auth.TokenIssuer, notifier notify.Notifier, logger *zap.Logger) Service {
	if steps == nil {
		steps = DefaultSteps()
	}
	return &service{
		repo:     repo,
		children: children,
		steps:    steps,
		issuer:   issuer,
		notifier: notifier,
		logger:   logger.Named("supplier"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) Steps() *StepTable { return s.steps }

func (s *service) Create(ctx context.Context, in CreateInput) (*Supplier, error) {
	email := strings.TrimSpace(in.Email)
	if !ValidEmail(email) {
		return nil, ErrEmailRequired
	}
	first := s.steps.First(TierUnset)
	sup := &Supplier{
		ID:             uuid.New(),
		InviteToken:    uuid.NewString(),
		Email:          strings.ToLower(email),
		EmailVerified:  in.EmailVerified,
		CompanyName:    strings.TrimSpace(in.CompanyName),
		Status:         StatusInProgress,
		CurrentStep:    first,
		MaxStepReached: first,
	}
	if err := s.repo.Create(ctx, sup); err != nil {
		return nil, fmt.Errorf("create supplier: %w", err)
	}
	s.logger.Info("supplier invited", zap.Stringer("supplier_id", sup.ID), zap.String("email", sup.Email))
	return sup, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Supplier, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) Patch(ctx context.Context, id uuid.UUID, p Patch) (*Supplier, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.IsEmpty() {
		return current, nil
	}
	if !p.OnlyNavigation() && !CanEdit(current.Status) {
		return nil, fmt.Errorf("%w: %s", ErrNotEditable, current.Status)
	}

	tier := current.Tier
	if p.Tier != nil {
		if *p.Tier != TierUnset && !p.Tier.Valid() {
			return nil, ErrInvalidTier
		}
		tier = *p.Tier
	}
	if p.OrderTransmittalPreference != nil && *p.OrderTransmittalPreference != TransmittalUnset && !p.OrderTransmittalPreference.Valid() {
		return nil, fmt.Errorf("%w: order_transmittal_preference %q", ErrInvalidField, *p.OrderTransmittalPreference)
	}

	if p.CurrentStep != nil {
		if !s.steps.IsVisible(*p.CurrentStep, tier) {
			return nil, fmt.Errorf("%w: step %d", ErrInvalidStep, *p.CurrentStep)
		}
	} else if !s.steps.IsVisible(current.CurrentStep, tier) {
		// A tier change hid the step the supplier is on.
		p.CurrentStep = Int(s.steps.Clamp(current.CurrentStep, tier))
	}
	if p.MaxStepReached != nil {
		if _, ok := s.steps.Get(*p.MaxStepReached); !ok {
			return nil, fmt.Errorf("%w: max step %d", ErrInvalidStep, *p.MaxStepReached)
		}
	}

	return s.repo.Update(ctx, id, p, s.now())
}

func (s *service) Children(ctx context.Context, id uuid.UUID) (*Children, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.children.Load(ctx, id)
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*Supplier, *Children, error) {
	sup, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	c, err := s.children.Load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return sup, c, nil
}

func (s *service) ValidateStep(ctx context.Context, id uuid.UUID, step int) (*ValidationResult, error) {
	sup, c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.steps.IsVisible(step, sup.Tier) {
		return nil, fmt.Errorf("%w: step %d", ErrInvalidStep, step)
	}
	res := ValidateStep(s.steps, step, sup, c)
	return &res, nil
}

func (s *service) Readiness(ctx context.Context, id uuid.UUID) ([]ReadinessIssue, error) {
	sup, c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return CheckReadiness(s.steps, sup, c), nil
}

func (s *service) Submit(ctx context.Context, id uuid.UUID) (*Supplier, error) {
	sup, c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanSubmit(sup.Status) {
		return nil, &IllegalTransitionError{Action: ActionSubmit, Status: sup.Status}
	}
	if issues := CheckReadiness(s.steps, sup, c); len(issues) > 0 {
		return nil, &ReadinessError{Issues: issues}
	}

	updated, err := s.repo.Transition(ctx, id, ActionSubmit, s.now())
	if err != nil {
		return nil, err
	}

	log := s.logger.With(zap.Stringer("supplier_id", id))
	log.Info("supplier submitted", zap.String("from", string(sup.Status)))
	if err := s.notifier.SubmissionReceived(ctx, updated.Recipient()); err != nil {
		log.Warn("submission notice failed", zap.Error(err))
	}
	if err := s.notifier.Ops(ctx, "New supplier submission", updated.CompanyName); err != nil {
		log.Warn("ops notice failed", zap.Error(err))
	}
	return updated, nil
}

func (s *service) Status(ctx context.Context, id uuid.UUID) (*StatusView, error) {
	sup, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &StatusView{
		ID:          sup.ID,
		Status:      sup.Status,
		CurrentStep: sup.CurrentStep,
		SubmittedAt: sup.SubmittedAt,
		ApprovedAt:  sup.ApprovedAt,
		Actions:     ActionsFor(sup.Status),
	}, nil
}

func (s *service) Corrections(ctx context.Context, id uuid.UUID) ([]*Correction, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListCorrections(ctx, id, true)
}

func (s *service) VerifyInvite(ctx context.Context, token string) (*InviteInfo, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrNotFound
	}
	sup, err := s.repo.GetByInviteToken(ctx, token)
	if err != nil {
		return nil, err
	}
	info := &InviteInfo{
		SupplierID:    sup.ID,
		Email:         sup.Email,
		EmailVerified: sup.EmailVerified,
		CompanyName:   sup.CompanyName,
		CurrentStep:   sup.CurrentStep,
		Status:        sup.Status,
	}
	if sup.EmailVerified {
		if info.AccessToken, err = s.issuer.Issue(sup.ID); err != nil {
			return nil, fmt.Errorf("issue access token: %w", err)
		}
	}
	return info, nil
}

// IsReadiness unwraps a readiness rejection.
func IsReadiness(err error) (*ReadinessError, bool) {
	var re *ReadinessError
	ok := errors.As(err, &re)
	return re, ok
}
