package servicearea

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("service area not found")
	ErrInvalidState    = errors.New("state must be a two-letter code")
	ErrInvalidDelivery = errors.New("delivery days must be positive")
)

// ServiceArea is one state a supplier delivers to. Empty Cities or ZipCodes mean the whole state.
type ServiceArea struct {
	ID                    uuid.UUID `json:"id"`
	SupplierID            uuid.UUID `json:"supplier_id"`
	State                 string    `json:"state"`
	Cities                []string  `json:"cities,omitempty"`
	ZipCodes              []string  `json:"zip_codes,omitempty"`
	StandardDeliveryDays  int       `json:"standard_delivery_days"`
	ExpeditedDeliveryDays *int      `json:"expedited_delivery_days,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

type Input struct {
	State                 string   `json:"state"`
	Cities                []string `json:"cities,omitempty"`
	ZipCodes              []string `json:"zip_codes,omitempty"`
	StandardDeliveryDays  int      `json:"standard_delivery_days"`
	ExpeditedDeliveryDays *int     `json:"expedited_delivery_days,omitempty"`
}
