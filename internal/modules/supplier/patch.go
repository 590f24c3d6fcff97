package supplier

import (
	"fmt"
	"time"
)

// Patch is a partial update of a supplier draft. A nil field is left untouched;
// a non-nil field overwrites the stored value, including with an empty string.
type Patch struct {
	CompanyName    *string `json:"company_name,omitempty"`
	CompanyAddress *string `json:"company_address,omitempty"`
	TaxID          *string `json:"tax_id,omitempty"`
	NPI            *string `json:"npi,omitempty"`

	OperationsContactName  *string `json:"operations_contact_name,omitempty"`
	OperationsContactTitle *string `json:"operations_contact_title,omitempty"`
	OperationsContactEmail *string `json:"operations_contact_email,omitempty"`
	OperationsContactPhone *string `json:"operations_contact_phone,omitempty"`
	EscalationContactName  *string `json:"escalation_contact_name,omitempty"`
	EscalationContactTitle *string `json:"escalation_contact_title,omitempty"`
	EscalationContactEmail *string `json:"escalation_contact_email,omitempty"`
	EscalationContactPhone *string `json:"escalation_contact_phone,omitempty"`

	Tier                       *Tier                  `json:"tier,omitempty"`
	OrderTransmittalPreference *TransmittalPreference `json:"order_transmittal_preference,omitempty"`
	TransmittalDestination     *string                `json:"transmittal_destination,omitempty"`

	ShippingFeeStructure *ShippingFeeStructure `json:"shipping_fee_structure,omitempty"`
	ReturnPolicy         *ReturnPolicy         `json:"return_policy,omitempty"`
	SupportHours         *string               `json:"support_hours,omitempty"`
	SupportPhone         *string               `json:"support_phone,omitempty"`
	SupportEmail         *string               `json:"support_email,omitempty"`
	AfterHoursProcess    *string               `json:"after_hours_process,omitempty"`

	SLAAcknowledged   *bool   `json:"sla_acknowledged,omitempty"`
	SLAAcknowledgedBy *string `json:"sla_acknowledged_by,omitempty"`

	CurrentStep *int `json:"current_step,omitempty"`
	// MaxStepReached only ever raises the stored value.
	MaxStepReached *int `json:"max_step_reached,omitempty"`
}

func pick[T any](base, over *T) *T {
	if over != nil {
		return over
	}
	return base
}

// Merge returns p with every field set in newer layered on top. Last write per field wins.
func (p Patch) Merge(newer Patch) Patch {
	return Patch{
		CompanyName:    pick(p.CompanyName, newer.CompanyName),
		CompanyAddress: pick(p.CompanyAddress, newer.CompanyAddress),
		TaxID:          pick(p.TaxID, newer.TaxID),
		NPI:            pick(p.NPI, newer.NPI),

		OperationsContactName:  pick(p.OperationsContactName, newer.OperationsContactName),
		OperationsContactTitle: pick(p.OperationsContactTitle, newer.OperationsContactTitle),
		OperationsContactEmail: pick(p.OperationsContactEmail, newer.OperationsContactEmail),
		OperationsContactPhone: pick(p.OperationsContactPhone, newer.OperationsContactPhone),
		EscalationContactName:  pick(p.EscalationContactName, newer.EscalationContactName),
		EscalationContactTitle: pick(p.EscalationContactTitle, newer.EscalationContactTitle),
		EscalationContactEmail: pick(p.EscalationContactEmail, newer.EscalationContactEmail),
		EscalationContactPhone: pick(p.EscalationContactPhone, newer.EscalationContactPhone),

		Tier:                       pick(p.Tier, newer.Tier),
		OrderTransmittalPreference: pick(p.OrderTransmittalPreference, newer.OrderTransmittalPreference),
		TransmittalDestination:     pick(p.TransmittalDestination, newer.TransmittalDestination),

		ShippingFeeStructure: pick(p.ShippingFeeStructure, newer.ShippingFeeStructure),
		ReturnPolicy:         pick(p.ReturnPolicy, newer.ReturnPolicy),
		SupportHours:         pick(p.SupportHours, newer.SupportHours),
		SupportPhone:         pick(p.SupportPhone, newer.SupportPhone),
		SupportEmail:         pick(p.SupportEmail, newer.SupportEmail),
		AfterHoursProcess:    pick(p.AfterHoursProcess, newer.AfterHoursProcess),

		SLAAcknowledged:   pick(p.SLAAcknowledged, newer.SLAAcknowledged),
		SLAAcknowledgedBy: pick(p.SLAAcknowledgedBy, newer.SLAAcknowledgedBy),

		CurrentStep:    pick(p.CurrentStep, newer.CurrentStep),
		MaxStepReached: maxPtr(p.MaxStepReached, newer.MaxStepReached),
	}
}

func maxPtr(a, b *int) *int {
	if a == nil {
		return b
	}
	if b == nil || *a >= *b {
		return a
	}
	return b
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return len(p.assignments(time.Time{})) == 0
}

// OnlyNavigation reports whether the patch touches nothing but step position.
func (p Patch) OnlyNavigation() bool {
	rest := p
	rest.CurrentStep, rest.MaxStepReached = nil, nil
	return !p.IsEmpty() && rest.IsEmpty()
}

// Apply writes the patch onto s in memory, mirroring what the store persists.
func (p Patch) Apply(s *Supplier, now time.Time) {
	setString := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	setString(&s.CompanyName, p.CompanyName)
	setString(&s.CompanyAddress, p.CompanyAddress)
	setString(&s.TaxID, p.TaxID)
	setString(&s.NPI, p.NPI)
	setString(&s.OperationsContactName, p.OperationsContactName)
	setString(&s.OperationsContactTitle, p.OperationsContactTitle)
	setString(&s.OperationsContactEmail, p.OperationsContactEmail)
	setString(&s.OperationsContactPhone, p.OperationsContactPhone)
	setString(&s.EscalationContactName, p.EscalationContactName)
	setString(&s.EscalationContactTitle, p.EscalationContactTitle)
	setString(&s.EscalationContactEmail, p.EscalationContactEmail)
	setString(&s.EscalationContactPhone, p.EscalationContactPhone)
	setString(&s.TransmittalDestination, p.TransmittalDestination)
	setString(&s.SupportHours, p.SupportHours)
	setString(&s.SupportPhone, p.SupportPhone)
	setString(&s.SupportEmail, p.SupportEmail)
	setString(&s.AfterHoursProcess, p.AfterHoursProcess)
	setString(&s.SLAAcknowledgedBy, p.SLAAcknowledgedBy)

	if p.Tier != nil {
		s.Tier = *p.Tier
	}
	if p.OrderTransmittalPreference != nil {
		s.OrderTransmittalPreference = *p.OrderTransmittalPreference
	}
	if p.ShippingFeeStructure != nil {
		v := *p.ShippingFeeStructure
		s.ShippingFeeStructure = &v
	}
	if p.ReturnPolicy != nil {
		v := *p.ReturnPolicy
		s.ReturnPolicy = &v
	}
	if p.SLAAcknowledged != nil {
		s.SLAAcknowledged = *p.SLAAcknowledged
		if *p.SLAAcknowledged {
			t := now
			s.SLAAcknowledgedAt = &t
		}
	}
	if p.CurrentStep != nil {
		s.CurrentStep = *p.CurrentStep
	}
	if p.MaxStepReached != nil && *p.MaxStepReached > s.MaxStepReached {
		s.MaxStepReached = *p.MaxStepReached
	}
	if !p.IsEmpty() {
		s.UpdatedAt = now
	}
}

// assignment is one SET clause entry. expr has a single %d for the placeholder index.
type assignment struct {
	column string
	expr   string
	value  interface{}
}

func (p Patch) assignments(now time.Time) []assignment {
	var out []assignment
	add := func(column string, value interface{}) {
		out = append(out, assignment{column: column, expr: column + " = $%d", value: value})
	}
	addString := func(column string, v *string) {
		if v != nil {
			add(column, *v)
		}
	}

	addString("company_name", p.CompanyName)
	addString("company_address", p.CompanyAddress)
	addString("tax_id", p.TaxID)
	addString("npi", p.NPI)
	addString("operations_contact_name", p.OperationsContactName)
	addString("operations_contact_title", p.OperationsContactTitle)
	addString("operations_contact_email", p.OperationsContactEmail)
	addString("operations_contact_phone", p.OperationsContactPhone)
	addString("escalation_contact_name", p.EscalationContactName)
	addString("escalation_contact_title", p.EscalationContactTitle)
	addString("escalation_contact_email", p.EscalationContactEmail)
	addString("escalation_contact_phone", p.EscalationContactPhone)
	if p.Tier != nil {
		out = append(out, assignment{column: "tier", expr: "tier = NULLIF($%d, '')", value: string(*p.Tier)})
	}
	if p.OrderTransmittalPreference != nil {
		out = append(out, assignment{
			column: "order_transmittal_preference",
			expr:   "order_transmittal_preference = NULLIF($%d, '')",
			value:  string(*p.OrderTransmittalPreference),
		})
	}
	addString("transmittal_destination", p.TransmittalDestination)
	if p.ShippingFeeStructure != nil {
		add("shipping_fee_structure", *p.ShippingFeeStructure)
	}
	if p.ReturnPolicy != nil {
		add("return_policy", *p.ReturnPolicy)
	}
	addString("support_hours", p.SupportHours)
	addString("support_phone", p.SupportPhone)
	addString("support_email", p.SupportEmail)
	addString("after_hours_process", p.AfterHoursProcess)
	if p.SLAAcknowledged != nil {
		add("sla_acknowledged", *p.SLAAcknowledged)
		if *p.SLAAcknowledged {
			add("sla_acknowledged_at", now)
		}
	}
	addString("sla_acknowledged_by", p.SLAAcknowledgedBy)
	if p.CurrentStep != nil {
		add("current_step", *p.CurrentStep)
	}
	if p.MaxStepReached != nil {
		out = append(out, assignment{
			column: "max_step_reached",
			expr:   "max_step_reached = GREATEST(max_step_reached, $%d)",
			value:  *p.MaxStepReached,
		})
	}
	return out
}

func (a assignment) clause(n int) string { return fmt.Sprintf(a.expr, n) }

// ── Constructors used by callers building patches ───────────

func String(v string) *string { return &v }
func Bool(v bool) *bool       { return &v }
func Int(v int) *int          { return &v }
func TierPtr(v Tier) *Tier    { return &v }

func TransmittalPtr(v TransmittalPreference) *TransmittalPreference { return &v }
