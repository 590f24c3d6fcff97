package payer

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines storage for payers and payer exclusions.
type Repository interface {
	CreatePayer(ctx context.Context, p *Payer) error
	GetPayer(ctx context.Context, supplierID, id uuid.UUID) (*Payer, error)
	ListPayers(ctx context.Context, supplierID uuid.UUID) ([]*Payer, error)
	DeletePayer(ctx context.Context, supplierID, id uuid.UUID) error

	CreateExclusion(ctx context.Context, e *Exclusion) error
	ListExclusions(ctx context.Context, supplierID uuid.UUID) ([]*Exclusion, error)
	DeleteExclusion(ctx context.Context, supplierID, id uuid.UUID) error
}
