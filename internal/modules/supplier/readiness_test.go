package supplier

import (
	"testing"

	"github.com/georgemunganga/supplier-onboarding/internal/modules/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issueSteps(issues []ReadinessIssue) []int {
	out := make([]int, len(issues))
	for i, is := range issues {
		out[i] = is.Step
	}
	return out
}

func TestCheckReadiness_CompleteDraft(t *testing.T) {
	s, c := completeDraft()
	assert.Empty(t, CheckReadiness(DefaultSteps(), s, c))
}

func TestCheckReadiness_NoApprovedProductAlwaysFailsStep3(t *testing.T) {
	s, c := completeDraft()
	c.Products = []*catalog.Product{{ProductName: "Walker"}}

	issues := CheckReadiness(DefaultSteps(), s, c)
	require.Len(t, issues, 1)
	assert.Equal(t, ReadinessIssue{
		Step:    3,
		Key:     StepProductCatalog,
		Label:   "Product Catalog",
		Message: "At least one product must be uploaded and approved",
	}, issues[0])

	issues = CheckReadiness(DefaultSteps(), &Supplier{}, &Children{})
	assert.Contains(t, issueSteps(issues), 3)
}

func TestCheckReadiness_PaymentOnlyForTier1(t *testing.T) {
	s, c := completeDraft()
	s.Tier = Tier1
	s.StripeOnboardingComplete = false

	issues := CheckReadiness(DefaultSteps(), s, c)
	require.Len(t, issues, 1)
	assert.Equal(t, 9, issues[0].Step)
	assert.Equal(t, "Payment Setup", issues[0].Label)

	s.Tier = Tier2
	assert.NotContains(t, issueSteps(CheckReadiness(DefaultSteps(), s, c)), 9)

	s.Tier = Tier1
	s.StripeOnboardingComplete = true
	assert.Empty(t, CheckReadiness(DefaultSteps(), s, c))
}

func TestCheckReadiness_EmptyDraftInStepOrder(t *testing.T) {
	issues := CheckReadiness(DefaultSteps(), &Supplier{}, nil)
	assert.Equal(t, []int{1, 1, 2, 3, 4, 6, 7, 8, 10}, issueSteps(issues))
	assert.Equal(t, "Company name and address are required", issues[0].Message)
	assert.Equal(t, "Operations contact name and email are required", issues[1].Message)

	err := &ReadinessError{Issues: issues}
	assert.Contains(t, err.Error(), "step 3: At least one product must be uploaded and approved")
}

func TestCheckReadiness_FollowsStepTableOrder(t *testing.T) {
	table := DefaultSteps()
	reordered := &StepTable{steps: table.All(), byKey: map[StepKey]int{}}
	// Swap service areas and accepted payers.
	reordered.steps[3], reordered.steps[5] = reordered.steps[5], reordered.steps[3]
	for i := range reordered.steps {
		reordered.steps[i].Number = i + 1
		reordered.byKey[reordered.steps[i].Key] = i + 1
	}

	s, c := completeDraft()
	c.Payers = nil
	c.ServiceAreas = nil
	issues := CheckReadiness(reordered, s, c)
	require.Len(t, issues, 2)
	assert.Equal(t, StepServiceAreas, issues[0].Key)
	assert.Equal(t, 4, issues[0].Step)
	assert.Equal(t, StepAcceptedPayers, issues[1].Key)
	assert.Equal(t, 6, issues[1].Step)
}
