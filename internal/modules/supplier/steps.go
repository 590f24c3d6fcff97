package supplier

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StepKey names a wizard step independently of its position.
type StepKey string

const (
	StepCompanyInfo      StepKey = "company_info"
	StepTierSelection    StepKey = "tier_selection"
	StepProductCatalog   StepKey = "product_catalog"
	StepAcceptedPayers   StepKey = "accepted_payers"
	StepPayerExclusions  StepKey = "payer_exclusions"
	StepServiceAreas     StepKey = "service_areas"
	StepOperationsSetup  StepKey = "operations_setup"
	StepOrderTransmittal StepKey = "order_transmittal"
	StepPaymentSetup     StepKey = "payment_setup"
	StepSLA              StepKey = "sla"
	StepReviewSubmit     StepKey = "review_submit"
)

var knownStepKeys = []StepKey{
	StepCompanyInfo, StepTierSelection, StepProductCatalog, StepAcceptedPayers,
	StepPayerExclusions, StepServiceAreas, StepOperationsSetup, StepOrderTransmittal,
	StepPaymentSetup, StepSLA, StepReviewSubmit,
}

// StepDefinition is one static entry of the wizard.
type StepDefinition struct {
	Number        int     `yaml:"number" json:"number"`
	Key           StepKey `yaml:"key" json:"key"`
	Label         string  `yaml:"label" json:"label"`
	RequiresTier1 bool    `yaml:"requires_tier_1" json:"requires_tier_1"`
}

// VisibleFor evaluates the step's visibility predicate. An unset tier fails the tier_1 requirement.
func (d StepDefinition) VisibleFor(tier Tier) bool {
	return !d.RequiresTier1 || tier == Tier1
}

// StepTable is the ordered, immutable list of wizard steps.
type StepTable struct {
	steps []StepDefinition
	byKey map[StepKey]int
}

//go:embed steps.yaml
var defaultStepsYAML []byte

var defaultSteps = mustLoadSteps(defaultStepsYAML)

// DefaultSteps returns the built-in eleven-step table.
func DefaultSteps() *StepTable { return defaultSteps }

func mustLoadSteps(data []byte) *StepTable {
	t, err := ParseSteps(data)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseSteps decodes a step table. Numbers must run 1..N in order and every
// known step key must appear exactly once.
func ParseSteps(data []byte) (*StepTable, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("steps: definition payload is empty")
	}
	var raw struct {
		Steps []StepDefinition `yaml:"steps"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("steps: decode definition: %w", err)
	}

	t := &StepTable{steps: raw.Steps, byKey: make(map[StepKey]int, len(raw.Steps))}
	for i, s := range raw.Steps {
		if s.Number != i+1 {
			return nil, fmt.Errorf("steps: entry %d has number %d, want %d", i, s.Number, i+1)
		}
		if s.Label == "" {
			return nil, fmt.Errorf("steps: step %d has no label", s.Number)
		}
		if _, dup := t.byKey[s.Key]; dup {
			return nil, fmt.Errorf("steps: key %q appears twice", s.Key)
		}
		t.byKey[s.Key] = s.Number
	}
	for _, k := range knownStepKeys {
		if _, ok := t.byKey[k]; !ok {
			return nil, fmt.Errorf("steps: missing step %q", k)
		}
	}
	if len(t.steps) != len(knownStepKeys) {
		return nil, fmt.Errorf("steps: %d entries, want %d", len(t.steps), len(knownStepKeys))
	}
	if t.steps[0].RequiresTier1 {
		return nil, fmt.Errorf("steps: the first step must be visible to every tier")
	}
	return t, nil
}

// LoadStepsFile reads a step table override from disk.
func LoadStepsFile(path string) (*StepTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("steps: read %s: %w", path, err)
	}
	t, err := ParseSteps(data)
	if err != nil {
		return nil, fmt.Errorf("steps: %s: %w", path, err)
	}
	return t, nil
}

// All returns every step regardless of tier.
func (t *StepTable) All() []StepDefinition {
	out := make([]StepDefinition, len(t.steps))
	copy(out, t.steps)
	return out
}

// Visible returns the tier-filtered steps in order.
func (t *StepTable) Visible(tier Tier) []StepDefinition {
	out := make([]StepDefinition, 0, len(t.steps))
	for _, s := range t.steps {
		if s.VisibleFor(tier) {
			out = append(out, s)
		}
	}
	return out
}

func (t *StepTable) Get(n int) (StepDefinition, bool) {
	if n < 1 || n > len(t.steps) {
		return StepDefinition{}, false
	}
	return t.steps[n-1], true
}

// Number returns the position of key, or 0 if the key is unknown.
func (t *StepTable) Number(key StepKey) int { return t.byKey[key] }

func (t *StepTable) Label(n int) string {
	if s, ok := t.Get(n); ok {
		return s.Label
	}
	return fmt.Sprintf("Step %d", n)
}

func (t *StepTable) IsVisible(n int, tier Tier) bool {
	s, ok := t.Get(n)
	return ok && s.VisibleFor(tier)
}

// Next returns the next visible step after n.
func (t *StepTable) Next(n int, tier Tier) (int, bool) {
	for i := n + 1; i <= len(t.steps); i++ {
		if t.IsVisible(i, tier) {
			return i, true
		}
	}
	return 0, false
}

// Prev returns the closest visible step before n.
func (t *StepTable) Prev(n int, tier Tier) (int, bool) {
	if n > len(t.steps)+1 {
		n = len(t.steps) + 1
	}
	for i := n - 1; i >= 1; i-- {
		if t.IsVisible(i, tier) {
			return i, true
		}
	}
	return 0, false
}

func (t *StepTable) First(tier Tier) int {
	n, _ := t.Next(0, tier)
	return n
}

func (t *StepTable) Last(tier Tier) int {
	n, _ := t.Prev(len(t.steps)+1, tier)
	return n
}

// Clamp maps n onto the visible list: n itself when visible, otherwise the
// closest visible step before it, otherwise the first visible step.
func (t *StepTable) Clamp(n int, tier Tier) int {
	if t.IsVisible(n, tier) {
		return n
	}
	if p, ok := t.Prev(n, tier); ok {
		return p
	}
	return t.First(tier)
}

// Index returns the zero-based position of n among the visible steps, or -1.
func (t *StepTable) Index(n int, tier Tier) int {
	for i, s := range t.Visible(tier) {
		if s.Number == n {
			return i
		}
	}
	return -1
}
