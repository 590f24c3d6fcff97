package supplier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge_LastWriteWinsPerField(t *testing.T) {
	merged := Patch{CompanyName: String("A1")}.
		Merge(Patch{NPI: String("1234567890")}).
		Merge(Patch{CompanyName: String("A3")})

	assert.Equal(t, "A3", *merged.CompanyName)
	assert.Equal(t, "1234567890", *merged.NPI)
	assert.Nil(t, merged.TaxID)
}

func TestMerge_MaxStepNeverDecreases(t *testing.T) {
	merged := Patch{MaxStepReached: Int(7)}.Merge(Patch{MaxStepReached: Int(4)})
	assert.Equal(t, 7, *merged.MaxStepReached)

	merged = Patch{}.Merge(Patch{MaxStepReached: Int(4)})
	assert.Equal(t, 4, *merged.MaxStepReached)
}

func TestPatch_Emptiness(t *testing.T) {
	assert.True(t, Patch{}.IsEmpty())
	assert.False(t, Patch{SupportHours: String("")}.IsEmpty(), "an explicit empty string clears the field")

	assert.True(t, Patch{CurrentStep: Int(3)}.OnlyNavigation())
	assert.True(t, Patch{CurrentStep: Int(3), MaxStepReached: Int(5)}.OnlyNavigation())
	assert.False(t, Patch{CurrentStep: Int(3), CompanyName: String("x")}.OnlyNavigation())
	assert.False(t, Patch{}.OnlyNavigation())
}

func TestPatch_Apply(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	s := &Supplier{CompanyName: "Old", MaxStepReached: 6, CurrentStep: 6}

	Patch{
		CompanyName:       String("New"),
		Tier:              TierPtr(Tier1),
		SLAAcknowledged:   Bool(true),
		SLAAcknowledgedBy: String("Jane Doe"),
		CurrentStep:       Int(3),
		MaxStepReached:    Int(3),
	}.Apply(s, now)

	assert.Equal(t, "New", s.CompanyName)
	assert.Equal(t, Tier1, s.Tier)
	assert.Equal(t, 3, s.CurrentStep)
	assert.Equal(t, 6, s.MaxStepReached)
	require.NotNil(t, s.SLAAcknowledgedAt)
	assert.Equal(t, now, *s.SLAAcknowledgedAt)
	assert.Equal(t, now, s.UpdatedAt)
}

func TestPatch_Assignments(t *testing.T) {
	now := time.Now()
	p := Patch{
		CompanyName:                String("Acme"),
		Tier:                       TierPtr(TierUnset),
		OrderTransmittalPreference: TransmittalPtr(TransmittalFax),
		SLAAcknowledged:            Bool(true),
		MaxStepReached:             Int(4),
	}
	var clauses []string
	for i, a := range p.assignments(now) {
		clauses = append(clauses, a.clause(i+1))
	}
	assert.Equal(t, []string{
		"company_name = $1",
		"tier = NULLIF($2, '')",
		"order_transmittal_preference = NULLIF($3, '')",
		"sla_acknowledged = $4",
		"sla_acknowledged_at = $5",
		"max_step_reached = GREATEST(max_step_reached, $6)",
	}, clauses)

	ack := Patch{SLAAcknowledged: Bool(false)}.assignments(now)
	require.Len(t, ack, 1, "withdrawing acknowledgement keeps the old timestamp")
}
