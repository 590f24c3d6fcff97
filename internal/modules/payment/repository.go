package payment

import (
	"context"

	"github.com/georgemunganga/supplier-onboarding/internal/modules/supplier"
	"github.com/google/uuid"
)

// SupplierStore is the slice of supplier persistence the payment flow needs.
// supplier.Repository satisfies it.
type SupplierStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*supplier.Supplier, error)
	GetByStripeAccountID(ctx context.Context, accountID string) (*supplier.Supplier, error)
	SetStripeAccount(ctx context.Context, id uuid.UUID, accountID string) error
	SetStripeOnboardingComplete(ctx context.Context, id uuid.UUID, complete bool) error
}
