package review

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/georgemunganga/supplier-onboarding/internal/modules/notify"
	"github.com/georgemunganga/supplier-onboarding/internal/modules/supplier"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service drives the admin side of the review pipeline.
type Service interface {
	// List filters by status; "" and "all" return every supplier.
	List(ctx context.Context, status string) (*ListResult, error)
	Detail(ctx context.Context, id uuid.UUID) (*Detail, error)
	Claim(ctx context.Context, id uuid.UUID) (*ActionResult, error)
	// RequestCorrections drops blank comments. When nothing is left the call
	// changes nothing and returns supplier.ErrNoCorrections.
	RequestCorrections(ctx context.Context, id uuid.UUID, in CorrectionsInput) (*ActionResult, error)
	Approve(ctx context.Context, id uuid.UUID) (*ActionResult, error)
	GoLive(ctx context.Context, id uuid.UUID) (*ActionResult, error)
	Invite(ctx context.Context, in supplier.CreateInput) (*Invite, error)
	Export(ctx context.Context, status string, w io.Writer) error
}

type service struct {
	repo        supplier.Repository
	children    supplier.ChildLoader
	suppliers   supplier.Service
	notifier    notify.Notifier
	frontendURL string
	logger      *zap.Logger
	now         func() time.Time
}

func NewService(repo supplier.Repository, children supplier.ChildLoader, suppliers supplier.Service,
	notifier notify.Notifier, frontendURL string, logger *zap.Logger) Service {
	return &service{
		repo:        repo,
		children:    children,
		suppliers:   suppliers,
		notifier:    notifier,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      logger.Named("review"),
		now:         time.Now,
	}
}

func parseFilter(status string) (supplier.Status, error) {
	status = strings.TrimSpace(status)
	if status == "" || status == "all" {
		return "", nil
	}
	return supplier.ParseStatus(status)
}

func (s *service) List(ctx context.Context, status string) (*ListResult, error) {
	filter, err := parseFilter(status)
	if err != nil {
		return nil, err
	}
	all, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := &ListResult{Suppliers: make([]supplier.Summary, 0, len(all))}
	for _, sup := range all {
		out.Suppliers = append(out.Suppliers, sup.Summary())
	}
	out.Total = len(out.Suppliers)
	return out, nil
}

func (s *service) Detail(ctx context.Context, id uuid.UUID) (*Detail, error) {
	sup, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	children, err := s.children.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	notes, err := s.repo.ListCorrections(ctx, id, false)
	if err != nil {
		return nil, err
	}
	return &Detail{
		Supplier:    sup,
		Children:    *children,
		Corrections: notes,
		Actions:     supplier.ActionsFor(sup.Status),
	}, nil
}

// ── Pipeline actions ────────────────────────────────────────

func (s *service) Claim(ctx context.Context, id uuid.UUID) (*ActionResult, error) {
	sup, err := s.repo.Transition(ctx, id, supplier.ActionClaim, s.now())
	if err != nil {
		return nil, err
	}
	s.warn(s.notifier.StatusChanged(ctx, sup.Recipient(), string(sup.Status)), "status notice", sup.ID)
	s.ops(ctx, "Supplier claimed for review: "+sup.CompanyName)
	return &ActionResult{ID: sup.ID, Status: sup.Status, Message: msgClaimed}, nil
}

func (s *service) RequestCorrections(ctx context.Context, id uuid.UUID, in CorrectionsInput) (*ActionResult, error) {
	reviewer := strings.TrimSpace(in.ReviewerName)
	if reviewer == "" {
		return nil, supplier.ErrReviewerRequired
	}

	steps := s.suppliers.Steps()
	var batch []supplier.CorrectionRequest
	for _, c := range in.Corrections {
		comment := strings.TrimSpace(c.Comment)
		if comment == "" {
			continue
		}
		if _, ok := steps.Get(c.StepNumber); !ok {
			return nil, fmt.Errorf("%w: %d", supplier.ErrInvalidStep, c.StepNumber)
		}
		batch = append(batch, supplier.CorrectionRequest{StepNumber: c.StepNumber, Comment: comment})
	}
	if len(batch) == 0 {
		return nil, supplier.ErrNoCorrections
	}

	sup, notes, err := s.repo.RequestCorrections(ctx, id, reviewer, batch, s.now())
	if err != nil {
		return nil, err
	}

	items := make([]notify.CorrectionItem, 0, len(notes))
	for _, n := range notes {
		items = append(items, notify.CorrectionItem{Step: n.StepNumber, Label: steps.Label(n.StepNumber), Comment: n.Comment})
	}
	s.warn(s.notifier.CorrectionsRequested(ctx, sup.Recipient(), reviewer, items), "corrections notice", sup.ID)
	s.ops(ctx, "Corrections requested for: "+sup.CompanyName)
	s.logger.Info("corrections requested",
		zap.String("supplier_id", sup.ID.String()),
		zap.String("reviewer", reviewer),
		zap.Int("notes", len(notes)))
	return &ActionResult{ID: sup.ID, Status: sup.Status, Message: msgCorrections}, nil
}

func (s *service) Approve(ctx context.Context, id uuid.UUID) (*ActionResult, error) {
	sup, err := s.repo.Transition(ctx, id, supplier.ActionApprove, s.now())
	if err != nil {
		return nil, err
	}
	s.warn(s.notifier.Approved(ctx, sup.Recipient()), "approval notice", sup.ID)
	s.ops(ctx, "Supplier approved: "+sup.CompanyName)
	return &ActionResult{ID: sup.ID, Status: sup.Status, Message: msgApproved}, nil
}

func (s *service) GoLive(ctx context.Context, id uuid.UUID) (*ActionResult, error) {
	sup, err := s.repo.Transition(ctx, id, supplier.ActionGoLive, s.now())
	if err != nil {
		return nil, err
	}
	s.warn(s.notifier.StatusChanged(ctx, sup.Recipient(), string(sup.Status)), "status notice", sup.ID)
	s.ops(ctx, "Supplier is now LIVE: "+sup.CompanyName)
	return &ActionResult{ID: sup.ID, Status: sup.Status, Message: msgLive}, nil
}

func (s *service) Invite(ctx context.Context, in supplier.CreateInput) (*Invite, error) {
	sup, err := s.suppliers.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	return &Invite{
		ID:          sup.ID,
		Email:       sup.Email,
		InviteToken: sup.InviteToken,
		InviteURL:   s.frontendURL + "/onboard/" + sup.InviteToken,
	}, nil
}

func (s *service) Export(ctx context.Context, status string, w io.Writer) error {
	list, err := s.List(ctx, status)
	if err != nil {
		return err
	}
	return WriteWorkbook(w, list.Suppliers)
}

func (s *service) ops(ctx context.Context, subject string) {
	s.warn(s.notifier.Ops(ctx, subject, ""), "ops notice", uuid.Nil)
}

func (s *service) warn(err error, what string, id uuid.UUID) {
	if err == nil {
		return
	}
	s.logger.Warn(what+" failed", zap.String("supplier_id", id.String()), zap.Error(err))
}
