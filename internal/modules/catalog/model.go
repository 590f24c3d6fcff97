package catalog

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound           = errors.New("product not found")
	ErrNameRequired       = errors.New("product_name is required")
	ErrUnsupportedFormat  = errors.New("unsupported catalog file format")
	ErrEmptyCatalog       = errors.New("catalog contains no product rows")
	ErrUploadNotFound     = errors.New("catalog upload not found")
	ErrInvalidFulfillment = errors.New("unknown fulfillment type")
)

// FulfillmentType is one way a supplier can get a product to a patient.
type FulfillmentType string

const (
	FulfillmentMail      FulfillmentType = "mail_delivery"
	FulfillmentHome      FulfillmentType = "home_delivery"
	FulfillmentHomeSetup FulfillmentType = "home_delivery_setup"
	FulfillmentStorePick FulfillmentType = "in_store_pickup"
)

func (f FulfillmentType) Valid() bool {
	switch f {
	case FulfillmentMail, FulfillmentHome, FulfillmentHomeSetup, FulfillmentStorePick:
		return true
	}
	return false
}

// Confidence annotates how sure the catalog parser was about each field.
// Informational only; it never gates validation.
type Confidence map[string]string

func (c Confidence) Value() (driver.Value, error) {
	if c == nil {
		return nil, nil
	}
	return json.Marshal(c)
}

func (c *Confidence) Scan(src interface{}) error {
	if src == nil {
		*c = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return errors.New("confidence: expected []byte")
	}
	return json.Unmarshal(b, c)
}

// Product is one catalog line a supplier offers.
// @Description Supplier product
// @Description with name, HCPCS code, category, price, SKU, fulfillment types and approval flag
type Product struct {
	ID                 uuid.UUID  `json:"id"`
	SupplierID         uuid.UUID  `json:"supplier_id"`
	ProductName        string     `json:"product_name"`
	HCPCSCode          string     `json:"hcpcs_code,omitempty"`
	Category           string     `json:"category,omitempty"`
	RetailPrice        *float64   `json:"retail_price,omitempty"`
	HCPCSFeeSchedule   *float64   `json:"hcpcs_fee_schedule,omitempty"`
	SKU                string     `json:"sku,omitempty"`
	Manufacturer       string     `json:"manufacturer,omitempty"`
	VariantSize        string     `json:"variant_size,omitempty"`
	FulfillmentTypes   []string   `json:"fulfillment_types,omitempty"`
	AIConfidence       Confidence `json:"ai_confidence,omitempty"`
	ApprovedBySupplier bool       `json:"approved_by_supplier"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// ProductInput carries a manual create or a partial update. Nil fields are left unchanged.
type ProductInput struct {
	ProductName        *string   `json:"product_name,omitempty"`
	HCPCSCode          *string   `json:"hcpcs_code,omitempty"`
	Category           *string   `json:"category,omitempty"`
	RetailPrice        *float64  `json:"retail_price,omitempty"`
	HCPCSFeeSchedule   *float64  `json:"hcpcs_fee_schedule,omitempty"`
	SKU                *string   `json:"sku,omitempty"`
	Manufacturer       *string   `json:"manufacturer,omitempty"`
	VariantSize        *string   `json:"variant_size,omitempty"`
	FulfillmentTypes   *[]string `json:"fulfillment_types,omitempty"`
	ApprovedBySupplier *bool     `json:"approved_by_supplier,omitempty"`
}

func (in ProductInput) apply(p *Product) {
	if in.ProductName != nil {
		p.ProductName = *in.ProductName
	}
	if in.HCPCSCode != nil {
		p.HCPCSCode = *in.HCPCSCode
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.RetailPrice != nil {
		p.RetailPrice = in.RetailPrice
	}
	if in.HCPCSFeeSchedule != nil {
		p.HCPCSFeeSchedule = in.HCPCSFeeSchedule
	}
	if in.SKU != nil {
		p.SKU = *in.SKU
	}
	if in.Manufacturer != nil {
		p.Manufacturer = *in.Manufacturer
	}
	if in.VariantSize != nil {
		p.VariantSize = *in.VariantSize
	}
	if in.FulfillmentTypes != nil {
		p.FulfillmentTypes = *in.FulfillmentTypes
	}
	if in.ApprovedBySupplier != nil {
		p.ApprovedBySupplier = *in.ApprovedBySupplier
	}
}

func (in ProductInput) validateFulfillment() error {
	if in.FulfillmentTypes == nil {
		return nil
	}
	for _, ft := range *in.FulfillmentTypes {
		if !FulfillmentType(ft).Valid() {
			return ErrInvalidFulfillment
		}
	}
	return nil
}

// ProcessingStatus tracks a catalog upload through the background job.
type ProcessingStatus string

const (
	ProcessingUploaded   ProcessingStatus = "uploaded"
	ProcessingProcessing ProcessingStatus = "processing"
	ProcessingCompleted  ProcessingStatus = "completed"
	ProcessingFailed     ProcessingStatus = "failed"
	// ProcessingNone is reported when a supplier has never uploaded a catalog.
	ProcessingNone ProcessingStatus = "none"
)

// Terminal reports whether the job will not change state again.
func (s ProcessingStatus) Terminal() bool {
	return s == ProcessingCompleted || s == ProcessingFailed
}

// Upload is one stored catalog file and its processing state.
type Upload struct {
	ID               uuid.UUID        `json:"upload_id"`
	SupplierID       uuid.UUID        `json:"supplier_id"`
	OriginalFilename string           `json:"original_filename"`
	FilePath         string           `json:"-"`
	FileType         string           `json:"file_type"`
	Status           ProcessingStatus `json:"processing_status"`
	Error            string           `json:"error,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// UploadStatus is the polling view of the latest upload.
type UploadStatus struct {
	UploadID         *uuid.UUID       `json:"upload_id,omitempty"`
	OriginalFilename string           `json:"original_filename,omitempty"`
	Status           ProcessingStatus `json:"processing_status"`
	Error            string           `json:"error,omitempty"`
	ProductCount     int              `json:"product_count"`
}
