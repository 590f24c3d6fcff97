package supplier

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for supplier draft and correction storage.
type Repository interface {
	Create(ctx context.Context, s *Supplier) error
	GetByID(ctx context.Context, id uuid.UUID) (*Supplier, error)
	GetByInviteToken(ctx context.Context, token string) (*Supplier, error)
	GetByStripeAccountID(ctx context.Context, accountID string) (*Supplier, error)
	// List returns suppliers newest submission first. An empty status means all.
	List(ctx context.Context, status Status) ([]*Supplier, error)

	// Update persists the set fields of p and returns the stored record.
	Update(ctx context.Context, id uuid.UUID, p Patch, now time.Time) (*Supplier, error)
	SetStripeAccount(ctx context.Context, id uuid.UUID, accountID string) error
	SetStripeOnboardingComplete(ctx context.Context, id uuid.UUID, complete bool) error

	// Transition applies a pipeline action only if the stored status allows it.
	// A refused transition returns *IllegalTransitionError and changes nothing.
	Transition(ctx context.Context, id uuid.UUID, a Action, now time.Time) (*Supplier, error)
	// RequestCorrections moves the supplier to action_needed and appends one note per item, atomically.
	RequestCorrections(ctx context.Context, id uuid.UUID, reviewer string, items []CorrectionRequest, now time.Time) (*Supplier, []*Correction, error)
	ListCorrections(ctx context.Context, supplierID uuid.UUID, unresolvedOnly bool) ([]*Correction, error)
}
