package supplier

import (
	"context"
	"fmt"

	"github.com/georgemunganga/supplier-onboarding/internal/modules/catalog"
	"github.com/georgemunganga/supplier-onboarding/internal/modules/payer"
	"github.com/georgemunganga/supplier-onboarding/internal/modules/servicearea"
	"github.com/google/uuid"
)

type ProductLister interface {
	ListProducts(ctx context.Context, supplierID uuid.UUID) ([]*catalog.Product, error)
}

type PayerLister interface {
	ListPayers(ctx context.Context, supplierID uuid.UUID) ([]*payer.Payer, error)
	ListExclusions(ctx context.Context, supplierID uuid.UUID) ([]*payer.Exclusion, error)
}

type AreaLister interface {
	List(ctx context.Context, supplierID uuid.UUID) ([]*servicearea.ServiceArea, error)
}

// ChildLoader reads every child collection of a supplier.
type ChildLoader interface {
	Load(ctx context.Context, supplierID uuid.UUID) (*Children, error)
}

type childLoader struct {
	products ProductLister
	payers   PayerLister
	areas    AreaLister
}

func NewChildLoader(products ProductLister, payers PayerLister, areas AreaLister) ChildLoader {
	return &childLoader{products: products, payers: payers, areas: areas}
}

func (l *childLoader) Load(ctx context.Context, supplierID uuid.UUID) (*Children, error) {
	var (
		c   Children
		err error
	)
	if c.Products, err = l.products.ListProducts(ctx, supplierID); err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	if c.Payers, err = l.payers.ListPayers(ctx, supplierID); err != nil {
		return nil, fmt.Errorf("load payers: %w", err)
	}
	if c.Exclusions, err = l.payers.ListExclusions(ctx, supplierID); err != nil {
		return nil, fmt.Errorf("load exclusions: %w", err)
	}
	if c.ServiceAreas, err = l.areas.List(ctx, supplierID); err != nil {
		return nil, fmt.Errorf("load service areas: %w", err)
	}
	return &c, nil
}
