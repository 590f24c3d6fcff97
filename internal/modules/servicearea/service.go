package servicearea

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

type Service interface {
	List(ctx context.Context, supplierID uuid.UUID) ([]*ServiceArea, error)
	Save(ctx context.Context, supplierID uuid.UUID, in Input) (*ServiceArea, error)
	Delete(ctx context.Context, supplierID, areaID uuid.UUID) error
}

type service struct{ repo Repository }

func NewService(repo Repository) Service { return &service{repo: repo} }

func (s *service) List(ctx context.Context, supplierID uuid.UUID) ([]*ServiceArea, error) {
	return s.repo.ListBySupplier(ctx, supplierID)
}

func (s *service) Save(ctx context.Context, supplierID uuid.UUID, in Input) (*ServiceArea, error) {
	state := strings.ToUpper(strings.TrimSpace(in.State))
	if !validState(state) {
		return nil, ErrInvalidState
	}
	if in.StandardDeliveryDays <= 0 {
		return nil, ErrInvalidDelivery
	}
	if in.ExpeditedDeliveryDays != nil && *in.ExpeditedDeliveryDays <= 0 {
		return nil, ErrInvalidDelivery
	}

	a := &ServiceArea{
		ID:                    uuid.New(),
		SupplierID:            supplierID,
		State:                 state,
		Cities:                clean(in.Cities),
		ZipCodes:              clean(in.ZipCodes),
		StandardDeliveryDays:  in.StandardDeliveryDays,
		ExpeditedDeliveryDays: in.ExpeditedDeliveryDays,
	}
	if err := s.repo.Upsert(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *service) Delete(ctx context.Context, supplierID, areaID uuid.UUID) error {
	return s.repo.Delete(ctx, supplierID, areaID)
}

func validState(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// clean trims entries and drops blanks and duplicates, keeping first-seen order.
func clean(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
