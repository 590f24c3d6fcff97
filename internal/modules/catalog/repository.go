package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for product and catalog upload storage.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	CreateBatch(ctx context.Context, products []*Product) error
	GetByID(ctx context.Context, supplierID, id uuid.UUID) (*Product, error)
	ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]*Product, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, supplierID, id uuid.UUID) error
	// ApproveAll flags every unapproved product of the supplier and returns how many changed.
	ApproveAll(ctx context.Context, supplierID uuid.UUID) (int, error)
	CountBySupplier(ctx context.Context, supplierID uuid.UUID) (int, error)

	CreateUpload(ctx context.Context, u *Upload) error
	GetUpload(ctx context.Context, id uuid.UUID) (*Upload, error)
	LatestUpload(ctx context.Context, supplierID uuid.UUID) (*Upload, error)
	SetUploadStatus(ctx context.Context, id uuid.UUID, status ProcessingStatus, errMsg string) error
}
