package supplier

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/georgemunganga/supplier-onboarding/internal/modules/catalog"
	"github.com/georgemunganga/supplier-onboarding/internal/modules/notify"
	"github.com/georgemunganga/supplier-onboarding/internal/modules/payer"
	"github.com/georgemunganga/supplier-onboarding/internal/modules/servicearea"
	"github.com/google/uuid"
)

// Tier is the supplier's partnership mode.
type Tier string

const (
	TierUnset Tier = ""
	// Tier1 suppliers transact through the marketplace and must link a payment account.
	Tier1 Tier = "tier_1"
	// Tier2 suppliers take referrals and bill on their own.
	Tier2 Tier = "tier_2"
)

func (t Tier) Valid() bool { return t == Tier1 || t == Tier2 }

// Status is the supplier's position in the review pipeline.
type Status string

const (
	StatusInProgress   Status = "in_progress"
	StatusSubmitted    Status = "submitted"
	StatusUnderReview  Status = "under_review"
	StatusActionNeeded Status = "action_needed"
	StatusApproved     Status = "approved"
	StatusLive         Status = "live"
)

var allStatuses = []Status{
	StatusInProgress, StatusSubmitted, StatusUnderReview,
	StatusActionNeeded, StatusApproved, StatusLive,
}

// ParseStatus accepts exactly one of the six pipeline states.
func ParseStatus(s string) (Status, error) {
	for _, st := range allStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// TransmittalPreference is how new orders reach the supplier.
type TransmittalPreference string

const (
	TransmittalUnset       TransmittalPreference = ""
	TransmittalSecureEmail TransmittalPreference = "secure_email"
	TransmittalFax         TransmittalPreference = "fax"
	TransmittalAPI         TransmittalPreference = "api"
)

func (p TransmittalPreference) Valid() bool {
	return p == TransmittalSecureEmail || p == TransmittalFax || p == TransmittalAPI
}

// NeedsDestination reports whether the preference requires an address or number.
func (p TransmittalPreference) NeedsDestination() bool {
	return p == TransmittalSecureEmail || p == TransmittalFax
}

// ShippingFeeStructure is stored as JSONB.
type ShippingFeeStructure struct {
	FreeShippingThreshold *float64 `json:"free_shipping_threshold,omitempty"`
	FlatRate              *float64 `json:"flat_rate,omitempty"`
	IsVariable            bool     `json:"is_variable,omitempty"`
	FeeSchedule           string   `json:"fee_schedule,omitempty"`
}

func (s ShippingFeeStructure) Value() (driver.Value, error) { return json.Marshal(s) }

func (s *ShippingFeeStructure) Scan(src interface{}) error { return scanJSON(src, s) }

// ReturnPolicy is stored as JSONB.
type ReturnPolicy struct {
	ReturnWindowDays             *int     `json:"return_window_days,omitempty"`
	RestockingFee                *float64 `json:"restocking_fee,omitempty"`
	RestockingFeeType            string   `json:"restocking_fee_type,omitempty"`
	ReturnShippingResponsibility string   `json:"return_shipping_responsibility,omitempty"`
	ConditionRequirements        string   `json:"condition_requirements,omitempty"`
}

func (r ReturnPolicy) Value() (driver.Value, error) { return json.Marshal(r) }

func (r *ReturnPolicy) Scan(src interface{}) error { return scanJSON(src, r) }

func scanJSON(src interface{}, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported JSON column type %T", src)
	}
}

// Supplier is the onboarding draft and the aggregate root of every child collection.
// Unset text fields are empty strings.
// @Description Supplier onboarding record
// @Description with company profile, contacts, tier, operations, payment linkage, agreement and progress
type Supplier struct {
	ID            uuid.UUID `json:"id"`
	InviteToken   string    `json:"invite_token"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"email_verified"`

	CompanyName    string `json:"company_name"`
	CompanyAddress string `json:"company_address"`
	TaxID          string `json:"tax_id"`
	NPI            string `json:"npi"`

	OperationsContactName  string `json:"operations_contact_name"`
	OperationsContactTitle string `json:"operations_contact_title"`
	OperationsContactEmail string `json:"operations_contact_email"`
	OperationsContactPhone string `json:"operations_contact_phone"`
	EscalationContactName  string `json:"escalation_contact_name"`
	EscalationContactTitle string `json:"escalation_contact_title"`
	EscalationContactEmail string `json:"escalation_contact_email"`
	EscalationContactPhone string `json:"escalation_contact_phone"`

	Tier                       Tier                  `json:"tier"`
	OrderTransmittalPreference TransmittalPreference `json:"order_transmittal_preference"`
	TransmittalDestination     string                `json:"transmittal_destination"`

	ShippingFeeStructure *ShippingFeeStructure `json:"shipping_fee_structure,omitempty"`
	ReturnPolicy         *ReturnPolicy         `json:"return_policy,omitempty"`
	SupportHours         string                `json:"support_hours"`
	SupportPhone         string                `json:"support_phone"`
	SupportEmail         string                `json:"support_email"`
	AfterHoursProcess    string                `json:"after_hours_process"`

	StripeAccountID          string `json:"stripe_account_id"`
	StripeOnboardingComplete bool   `json:"stripe_onboarding_complete"`

	SLAAcknowledged   bool       `json:"sla_acknowledged"`
	SLAAcknowledgedBy string     `json:"sla_acknowledged_by"`
	SLAAcknowledgedAt *time.Time `json:"sla_acknowledged_at,omitempty"`

	CurrentStep    int    `json:"current_step"`
	MaxStepReached int    `json:"max_step_reached"`
	Status         Status `json:"status"`

	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Recipient is the contact notices about this supplier go to.
func (s *Supplier) Recipient() notify.Recipient {
	email := s.OperationsContactEmail
	if email == "" {
		email = s.Email
	}
	return notify.Recipient{Email: email, ContactName: s.OperationsContactName, CompanyName: s.CompanyName}
}

// Summary is the admin list view of a supplier.
type Summary struct {
	ID          uuid.UUID  `json:"id"`
	CompanyName string     `json:"company_name"`
	Email       string     `json:"email"`
	Tier        Tier       `json:"tier"`
	Status      Status     `json:"status"`
	CurrentStep int        `json:"current_step"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (s *Supplier) Summary() Summary {
	return Summary{
		ID:          s.ID,
		CompanyName: s.CompanyName,
		Email:       s.Email,
		Tier:        s.Tier,
		Status:      s.Status,
		CurrentStep: s.CurrentStep,
		SubmittedAt: s.SubmittedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// Correction is a reviewer's note asking the supplier to revise one step.
// Notes are never deleted; Resolved is stored but nothing in this service sets it.
type Correction struct {
	ID         uuid.UUID `json:"id"`
	SupplierID uuid.UUID `json:"supplier_id"`
	StepNumber int       `json:"step_number"`
	Comment    string    `json:"comment"`
	Resolved   bool      `json:"resolved"`
	CreatedBy  string    `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
}

// CorrectionRequest is one entry of an admin's request-corrections batch.
type CorrectionRequest struct {
	StepNumber int    `json:"step_number"`
	Comment    string `json:"comment"`
}

// Children holds the supplier's child collections used by validators and readiness.
type Children struct {
	Products     []*catalog.Product         `json:"products"`
	Payers       []*payer.Payer             `json:"payers"`
	Exclusions   []*payer.Exclusion         `json:"exclusions"`
	ServiceAreas []*servicearea.ServiceArea `json:"service_areas"`
}

// HasApprovedProduct reports whether at least one product carries the supplier's approval.
func (c *Children) HasApprovedProduct() bool {
	if c == nil {
		return false
	}
	for _, p := range c.Products {
		if p.ApprovedBySupplier {
			return true
		}
	}
	return false
}

var (
	ErrNotFound          = errors.New("supplier not found")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrIllegalTransition = errors.New("action not allowed in current status")
	ErrNotEditable       = errors.New("supplier cannot be edited in current status")
	ErrInvalidStep       = errors.New("step is not available for this tier")
	ErrInvalidTier       = errors.New("tier must be tier_1 or tier_2")
	ErrInvalidField      = errors.New("invalid field value")
	ErrNoCorrections     = errors.New("at least one correction with a comment is required")
	ErrReviewerRequired  = errors.New("reviewer name is required")
	ErrEmailRequired     = errors.New("a valid email is required")
)
