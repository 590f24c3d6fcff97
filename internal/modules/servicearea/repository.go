package servicearea

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Upsert inserts the area or replaces the supplier's existing row for the same state.
	Upsert(ctx context.Context, a *ServiceArea) error
	ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]*ServiceArea, error)
	Delete(ctx context.Context, supplierID, id uuid.UUID) error
}
