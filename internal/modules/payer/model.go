package payer

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("payer not found")
	ErrExclusionNotFound = errors.New("exclusion not found")
	ErrInvalidPayer      = errors.New("payer_name and network_type are required")
	// ErrInvalidExclusion is returned unless exactly one of product_id and category is set.
	ErrInvalidExclusion = errors.New("exactly one of product_id or category is required")
	ErrUnknownProduct   = errors.New("product does not belong to this supplier")
)

// Payer is one accepted insurer and network pairing. The same payer name may
// appear once per network type.
type Payer struct {
	ID          uuid.UUID `json:"id"`
	SupplierID  uuid.UUID `json:"supplier_id"`
	PayerName   string    `json:"payer_name"`
	NetworkType string    `json:"network_type"`
	CreatedAt   time.Time `json:"created_at"`
}

type PayerInput struct {
	PayerName   string `json:"payer_name"`
	NetworkType string `json:"network_type"`
}

// Exclusion records that a payer does not cover one product or a whole category.
type Exclusion struct {
	ID         uuid.UUID  `json:"id"`
	SupplierID uuid.UUID  `json:"supplier_id"`
	PayerID    uuid.UUID  `json:"payer_id"`
	ProductID  *uuid.UUID `json:"product_id,omitempty"`
	Category   string     `json:"category,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type ExclusionInput struct {
	PayerID   uuid.UUID  `json:"payer_id"`
	ProductID *uuid.UUID `json:"product_id,omitempty"`
	Category  string     `json:"category,omitempty"`
}

// BatchResult reports a bulk payer insert. Rows in Created stay committed even when Err is set.
type BatchResult struct {
	Created []*Payer `json:"created"`
	Err     error    `json:"-"`
}
