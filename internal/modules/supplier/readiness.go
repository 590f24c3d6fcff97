package supplier

import (
	"fmt"
	"sort"
	"strings"
)

// ReadinessIssue is one failing item of the submission check, addressed to a step.
type ReadinessIssue struct {
	Step    int     `json:"step"`
	Key     StepKey `json:"key"`
	Label   string  `json:"label"`
	Message string  `json:"message"`
}

// ReadinessError rejects a submission and carries every failing item.
type ReadinessError struct {
	Issues []ReadinessIssue
}

func (e *ReadinessError) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		msgs[i] = fmt.Sprintf("step %d: %s", is.Step, is.Message)
	}
	return "supplier is not ready to submit: " + strings.Join(msgs, "; ")
}

type readinessRule struct {
	key     StepKey
	message string
	failed  func(s *Supplier, c *Children) bool
}

func blank(v string) bool { return strings.TrimSpace(v) == "" }

var readinessRules = []readinessRule{
	{StepCompanyInfo, "Company name and address are required", func(s *Supplier, _ *Children) bool {
		return blank(s.CompanyName) || blank(s.CompanyAddress)
	}},
	{StepCompanyInfo, "Operations contact name and email are required", func(s *Supplier, _ *Children) bool {
		return blank(s.OperationsContactName) || blank(s.OperationsContactEmail)
	}},
	{StepTierSelection, "Please select a partner tier", func(s *Supplier, _ *Children) bool {
		return !s.Tier.Valid()
	}},
	{StepProductCatalog, "At least one product must be uploaded and approved", func(_ *Supplier, c *Children) bool {
		return !c.HasApprovedProduct()
	}},
	{StepAcceptedPayers, "At least one payer must be configured", func(_ *Supplier, c *Children) bool {
		return len(c.Payers) == 0
	}},
	{StepServiceAreas, "At least one service area must be configured", func(_ *Supplier, c *Children) bool {
		return len(c.ServiceAreas) == 0
	}},
	{StepOperationsSetup, "Support contact information is required", func(s *Supplier, _ *Children) bool {
		return blank(s.SupportEmail) && blank(s.SupportPhone)
	}},
	{StepOrderTransmittal, "Order transmittal preference is required", func(s *Supplier, _ *Children) bool {
		return !s.OrderTransmittalPreference.Valid()
	}},
	{StepPaymentSetup, "Stripe onboarding must be completed", func(s *Supplier, _ *Children) bool {
		return s.Tier == Tier1 && !s.StripeOnboardingComplete
	}},
	{StepSLA, "SLA must be acknowledged", func(s *Supplier, _ *Children) bool {
		return !s.SLAAcknowledged
	}},
}

// CheckReadiness evaluates the aggregate submission precondition and returns
// the failing items in step order. An empty result means the supplier may submit.
func CheckReadiness(table *StepTable, s *Supplier, c *Children) []ReadinessIssue {
	if c == nil {
		c = &Children{}
	}
	var issues []ReadinessIssue
	for _, rule := range readinessRules {
		if !rule.failed(s, c) {
			continue
		}
		n := table.Number(rule.key)
		issues = append(issues, ReadinessIssue{Step: n, Key: rule.key, Label: table.Label(n), Message: rule.message})
	}
	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Step < issues[j].Step })
	return issues
}
