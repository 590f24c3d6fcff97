package payer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/georgemunganga/supplier-onboarding/internal/modules/catalog"
	"github.com/google/uuid"
)

// ProductLookup resolves a product within a supplier's catalog.
type ProductLookup interface {
	GetByID(ctx context.Context, supplierID, id uuid.UUID) (*catalog.Product, error)
}

// Service defines payer and exclusion business logic.
type Service interface {
	ListPayers(ctx context.Context, supplierID uuid.UUID) ([]*Payer, error)
	// AddPayers writes each row independently and stops at the first failure.
	AddPayers(ctx context.Context, supplierID uuid.UUID, in []PayerInput) BatchResult
	DeletePayer(ctx context.Context, supplierID, payerID uuid.UUID) error

	ListExclusions(ctx context.Context, supplierID uuid.UUID) ([]*Exclusion, error)
	AddExclusion(ctx context.Context, supplierID uuid.UUID, in ExclusionInput) (*Exclusion, error)
	DeleteExclusion(ctx context.Context, supplierID, exclusionID uuid.UUID) error
}

type service struct {
	repo     Repository
	products ProductLookup
}

func NewService(repo Repository, products ProductLookup) Service {
	return &service{repo: repo, products: products}
}

func (s *service) ListPayers(ctx context.Context, supplierID uuid.UUID) ([]*Payer, error) {
	return s.repo.ListPayers(ctx, supplierID)
}

func (s *service) AddPayers(ctx context.Context, supplierID uuid.UUID, in []PayerInput) BatchResult {
	res := BatchResult{Created: []*Payer{}}
	for i, row := range in {
		name := strings.TrimSpace(row.PayerName)
		network := strings.TrimSpace(row.NetworkType)
		if name == "" || network == "" {
			res.Err = fmt.Errorf("row %d: %w", i, ErrInvalidPayer)
			return res
		}
		p := &Payer{ID: uuid.New(), SupplierID: supplierID, PayerName: name, NetworkType: network}
		if err := s.repo.CreatePayer(ctx, p); err != nil {
			res.Err = fmt.Errorf("row %d: %w", i, err)
			return res
		}
		res.Created = append(res.Created, p)
	}
	return res
}

func (s *service) DeletePayer(ctx context.Context, supplierID, payerID uuid.UUID) error {
	return s.repo.DeletePayer(ctx, supplierID, payerID)
}

func (s *service) ListExclusions(ctx context.Context, supplierID uuid.UUID) ([]*Exclusion, error) {
	return s.repo.ListExclusions(ctx, supplierID)
}

func (s *service) AddExclusion(ctx context.Context, supplierID uuid.UUID, in ExclusionInput) (*Exclusion, error) {
	category := strings.TrimSpace(in.Category)
	if (in.ProductID == nil) == (category == "") {
		return nil, ErrInvalidExclusion
	}
	if _, err := s.repo.GetPayer(ctx, supplierID, in.PayerID); err != nil {
		return nil, err
	}
	if in.ProductID != nil {
		if _, err := s.products.GetByID(ctx, supplierID, *in.ProductID); err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return nil, ErrUnknownProduct
			}
			return nil, err
		}
	}

	e := &Exclusion{
		ID:         uuid.New(),
		SupplierID: supplierID,
		PayerID:    in.PayerID,
		ProductID:  in.ProductID,
		Category:   category,
	}
	if err := s.repo.CreateExclusion(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *service) DeleteExclusion(ctx context.Context, supplierID, exclusionID uuid.UUID) error {
	return s.repo.DeleteExclusion(ctx, supplierID, exclusionID)
}
