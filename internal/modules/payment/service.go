package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/georgemunganga/supplier-onboarding/internal/modules/supplier"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service links tier_1 suppliers to a connected payment account.
type Service interface {
	// CreateAccountLink opens the connected account on first use and returns a
	// hosted onboarding URL that sends the supplier back to their invite link.
	CreateAccountLink(ctx context.Context, supplierID uuid.UUID) (*AccountLink, error)
	// CheckStatus asks the provider for the account state and persists the
	// onboarding flag when it changed.
	CheckStatus(ctx context.Context, supplierID uuid.UUID) (*AccountStatus, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// Options carries the deployment-specific settings of the payment flow.
type Options struct {
	FrontendURL   string
	WebhookSecret string
	// Tolerance bounds webhook timestamp age. Zero uses DefaultTolerance.
	Tolerance time.Duration
}

type service struct {
	store   SupplierStore
	gateway Gateway
	opts    Options
	logger  *zap.Logger
	now     func() time.Time
}

func NewService(store SupplierStore, gateway Gateway, opts Options, logger *zap.Logger) Service {
	if opts.Tolerance == 0 {
		opts.Tolerance = DefaultTolerance
	}
	opts.FrontendURL = strings.TrimRight(opts.FrontendURL, "/")
	return &service{store: store, gateway: gateway, opts: opts, logger: logger, now: time.Now}
}

func (s *service) CreateAccountLink(ctx context.Context, supplierID uuid.UUID) (*AccountLink, error) {
	sup, err := s.store.GetByID(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	if sup.Tier != supplier.Tier1 {
		return nil, ErrTier1Only
	}

	accountID := sup.StripeAccountID
	if accountID == "" {
		acct, err := s.gateway.CreateAccount(ctx, sup.Email, sup.CompanyName, "supplier-"+sup.ID.String())
		if err != nil {
			return nil, fmt.Errorf("create payment account: %w", err)
		}
		if err := s.store.SetStripeAccount(ctx, sup.ID, acct.ID); err != nil {
			return nil, fmt.Errorf("store payment account: %w", err)
		}
		accountID = acct.ID
		s.logger.Info("payment account created",
			zap.String("supplier_id", sup.ID.String()),
			zap.String("account_id", accountID))
	}

	base := s.opts.FrontendURL + "/onboard/" + sup.InviteToken
	link, err := s.gateway.CreateAccountLink(ctx, accountID, base+"?stripe_refresh=1", base+"?stripe_return=1")
	if err != nil {
		return nil, fmt.Errorf("create account link: %w", err)
	}
	return link, nil
}

func (s *service) CheckStatus(ctx context.Context, supplierID uuid.UUID) (*AccountStatus, error) {
	sup, err := s.store.GetByID(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	if sup.StripeAccountID == "" {
		return &AccountStatus{}, nil
	}

	acct, err := s.gateway.RetrieveAccount(ctx, sup.StripeAccountID)
	if err != nil {
		return nil, fmt.Errorf("retrieve payment account: %w", err)
	}
	complete := acct.OnboardingComplete()
	if complete != sup.StripeOnboardingComplete {
		if err := s.store.SetStripeOnboardingComplete(ctx, sup.ID, complete); err != nil {
			return nil, err
		}
	}
	return &AccountStatus{
		StripeAccountID:    sup.StripeAccountID,
		DetailsSubmitted:   acct.DetailsSubmitted,
		ChargesEnabled:     acct.ChargesEnabled,
		OnboardingComplete: complete,
	}, nil
}

// HandleWebhook verifies the delivery when a secret is configured and applies
// account.updated events. Events for unknown accounts are acknowledged and ignored.
func (s *service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.opts.WebhookSecret != "" {
		if err := VerifySignature(payload, signature, s.opts.WebhookSecret, s.now(), s.opts.Tolerance); err != nil {
			return err
		}
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if event.Type != EventAccountUpdated {
		return nil
	}

	var acct Account
	if err := json.Unmarshal(event.Data.Object, &acct); err != nil || acct.ID == "" {
		return ErrInvalidPayload
	}

	sup, err := s.store.GetByStripeAccountID(ctx, acct.ID)
	if errors.Is(err, supplier.ErrNotFound) {
		s.logger.Warn("webhook for unknown payment account", zap.String("account_id", acct.ID))
		return nil
	}
	if err != nil {
		return err
	}

	complete := acct.OnboardingComplete()
	if complete == sup.StripeOnboardingComplete {
		return nil
	}
	if err := s.store.SetStripeOnboardingComplete(ctx, sup.ID, complete); err != nil {
		return err
	}
	s.logger.Info("payment onboarding updated",
		zap.String("supplier_id", sup.ID.String()),
		zap.Bool("complete", complete))
	return nil
}
