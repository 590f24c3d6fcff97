package supplier

import (
	"regexp"
	"strings"
)

// FieldError points at one invalid field of a step.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult is the outcome of a single step's validator.
type ValidationResult struct {
	Step   int          `json:"step"`
	Key    StepKey      `json:"key"`
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors,omitempty"`
}

type stepValidator func(s *Supplier, c *Children) []FieldError

var stepValidators = map[StepKey]stepValidator{
	StepCompanyInfo:      validateCompanyInfo,
	StepTierSelection:    validateTierSelection,
	StepProductCatalog:   validateProductCatalog,
	StepAcceptedPayers:   validateAcceptedPayers,
	StepPayerExclusions:  alwaysValid,
	StepServiceAreas:     validateServiceAreas,
	StepOperationsSetup:  validateOperationsSetup,
	StepOrderTransmittal: validateOrderTransmittal,
	StepPaymentSetup:     alwaysValid,
	StepSLA:              validateSLA,
}

// ValidateStep runs the validator for step n. Validators never modify s or c.
// The review step reports the aggregate readiness issues instead.
func ValidateStep(table *StepTable, n int, s *Supplier, c *Children) ValidationResult {
	def, ok := table.Get(n)
	if !ok {
		return ValidationResult{Step: n, Errors: []FieldError{{Field: "step", Message: ErrInvalidStep.Error()}}}
	}
	if c == nil {
		c = &Children{}
	}

	var errs []FieldError
	if def.Key == StepReviewSubmit {
		for _, issue := range CheckReadiness(table, s, c) {
			errs = append(errs, FieldError{Field: string(issue.Key), Message: issue.Message})
		}
	} else {
		errs = stepValidators[def.Key](s, c)
	}
	return ValidationResult{Step: n, Key: def.Key, Valid: len(errs) == 0, Errors: errs}
}

func alwaysValid(*Supplier, *Children) []FieldError { return nil }

func validateCompanyInfo(s *Supplier, _ *Children) []FieldError {
	var errs []FieldError
	add := func(field, msg string) { errs = append(errs, FieldError{Field: field, Message: msg}) }

	if strings.TrimSpace(s.CompanyName) == "" {
		add("company_name", "Company name is required")
	}

	switch digits := StripTaxID(s.TaxID); {
	case digits == "":
		add("tax_id", "Tax ID is required")
	case len(digits) != 9:
		add("tax_id", "Tax ID must be 9 digits (XX-XXXXXXX)")
	}

	npi := digitsOnly(s.NPI)
	switch {
	case strings.TrimSpace(s.NPI) == "":
		add("npi", "NPI is required")
	case len(npi) != 10:
		add("npi", "NPI must be 10 digits")
	}

	if strings.TrimSpace(s.OperationsContactName) == "" {
		add("operations_contact_name", "Primary contact name is required")
	}

	switch email := strings.TrimSpace(s.OperationsContactEmail); {
	case email == "":
		add("operations_contact_email", "Primary contact email is required")
	case !ValidEmail(email):
		add("operations_contact_email", "Please enter a valid email address")
	}
	return errs
}

func validateTierSelection(s *Supplier, _ *Children) []FieldError {
	if !s.Tier.Valid() {
		return []FieldError{{Field: "tier", Message: "Please select a partner tier"}}
	}
	return nil
}

func validateProductCatalog(_ *Supplier, c *Children) []FieldError {
	if len(c.Products) == 0 {
		return []FieldError{{Field: "products", Message: "Please add at least one product to your catalog."}}
	}
	if !c.HasApprovedProduct() {
		return []FieldError{{Field: "products", Message: "Please approve your catalog before continuing."}}
	}
	return nil
}

func validateAcceptedPayers(_ *Supplier, c *Children) []FieldError {
	if len(c.Payers) == 0 {
		return []FieldError{{Field: "payers", Message: "Please add at least one payer."}}
	}
	return nil
}

func validateServiceAreas(_ *Supplier, c *Children) []FieldError {
	if len(c.ServiceAreas) == 0 {
		return []FieldError{{Field: "service_areas", Message: "Please add at least one service area."}}
	}
	return nil
}

func validateOperationsSetup(s *Supplier, _ *Children) []FieldError {
	if strings.TrimSpace(s.SupportEmail) == "" && strings.TrimSpace(s.SupportPhone) == "" {
		return []FieldError{{Field: "support_email", Message: "Please provide at least a support email or phone number."}}
	}
	return nil
}

func validateOrderTransmittal(s *Supplier, _ *Children) []FieldError {
	p := s.OrderTransmittalPreference
	if !p.Valid() {
		return []FieldError{{Field: "order_transmittal_preference", Message: "Please select an order transmittal preference."}}
	}
	if p.NeedsDestination() && strings.TrimSpace(s.TransmittalDestination) == "" {
		msg := "Please enter the secure email address for orders."
		if p == TransmittalFax {
			msg = "Please enter the fax number for orders."
		}
		return []FieldError{{Field: "transmittal_destination", Message: msg}}
	}
	return nil
}

func validateSLA(s *Supplier, _ *Children) []FieldError {
	var errs []FieldError
	if !s.SLAAcknowledged {
		errs = append(errs, FieldError{Field: "sla_acknowledged", Message: "Please acknowledge the service level agreement."})
	}
	if strings.TrimSpace(s.SLAAcknowledgedBy) == "" {
		errs = append(errs, FieldError{Field: "sla_acknowledged_by", Message: "Please enter the name of the person acknowledging."})
	}
	return errs
}

// ── Field helpers ───────────────────────────────────────────

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether email looks like local@domain.tld.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// StripTaxID removes everything but digits.
func StripTaxID(v string) string { return digitsOnly(v) }

// FormatTaxID renders a tax id as XX-XXXXXXX. Partial input is formatted as far as it goes.
func FormatTaxID(v string) string {
	d := StripTaxID(v)
	if len(d) > 9 {
		d = d[:9]
	}
	if len(d) <= 2 {
		return d
	}
	return d[:2] + "-" + d[2:]
}

// ValidPhone accepts 10 digits, or 11 starting with 1. Empty input is valid.
func ValidPhone(phone string) bool {
	if strings.TrimSpace(phone) == "" {
		return true
	}
	d := digitsOnly(phone)
	return len(d) == 10 || (len(d) == 11 && d[0] == '1')
}

// FormatPhone renders a US number as (XXX) XXX-XXXX, returning the input unchanged when it is not one.
func FormatPhone(phone string) string {
	d := digitsOnly(phone)
	if d == "" {
		return ""
	}
	if len(d) == 11 && d[0] == '1' {
		d = d[1:]
	}
	if len(d) != 10 {
		return phone
	}
	return "(" + d[:3] + ") " + d[3:6] + "-" + d[6:]
}
