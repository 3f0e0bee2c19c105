package qualify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborlaw/lead-qualifier/internal/config"
	"github.com/harborlaw/lead-qualifier/internal/model"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func testScoring() config.ScoringConfig {
	return config.ScoringConfig{
		MedicalTreatmentPoints: 3,
		ClearLiabilityPoints:   3,
		InsuranceKnownPoints:   2,
		SOLBufferPoints:        1,
		SeriousInjuryPoints:    2,
		TriCountyBonus:         5,
		Tier1Threshold:         11,
		Tier2Threshold:         7,
		SOLYears:               3,
		MinSOLMonths:           18,
		BaseCaseValue:          25000,
		SeriousCaseValue:       75000,
		TriCountyValueMul:      1.2,
	}
}

func testKeywords() config.KeywordConfig {
	return config.KeywordConfig{
		DisputedLiability: []string{
			"disputed", "my client may be at fault", "unclear", "comparative",
			"contributory", "both parties", "shared fault", "partial fault",
		},
		InsufficientTreatment: []string{
			"none yet", "no treatment", "hasn't seen doctor", "refused treatment",
			"self-treating", "home remedies only",
		},
		SeriousInjury: []string{
			"fracture", "broken", "surgery", "surgical", "operation", "permanent",
			"disability", "amputation", "traumatic brain", "tbi", "spinal cord",
			"paralysis", "herniated", "torn", "rupture", "internal bleeding",
		},
		ClearLiability: []string{
			"rear-end", "rear end", "rearend", "ran red light", "ran stop sign",
			"ran the light", "ran the sign", "speeding", "dui", "dwi", "drunk",
			"intoxicated", "bac", "failed sobriety", "citation issued",
			"ticket issued", "at fault", "100% fault", "admitted fault",
		},
	}
}

func newTestEngine(t *testing.T, opts ...EngineOption) *Engine {
	t.Helper()
	state, err := LoadState("SC")
	require.NoError(t, err)
	opts = append(opts, WithClock(func() time.Time { return testNow }))
	return NewEngine(testScoring(), testKeywords(), state, opts...)
}

func daysAgo(n int) *time.Time {
	d := testNow.AddDate(0, 0, -n)
	return &d
}

func TestQualifyStrongCaseAutoAccepts(t *testing.T) {
	e := newTestEngine(t)

	lead := model.Lead{
		RecordID:         "rec001",
		Name:             "Jane Smith",
		AccidentDate:     daysAgo(90),
		AccidentLocation: "Charleston County, SC",
		InjuryDesc:       "Fractured femur, surgery performed",
		MedicalTreatment: "Emergency room visit, orthopedic surgeon, physical therapy",
		InsuranceCarrier: "State Farm",
		LiabilityNotes:   "Rear-end collision, citation issued to other driver",
	}

	result := e.Qualify(context.Background(), lead)

	assert.Equal(t, model.TierAutoAccept, result.Tier)
	assert.True(t, result.MedicalTreatmentMet)
	assert.True(t, result.LiabilityMet)
	assert.True(t, result.InsuranceIdentified)
	assert.True(t, result.SOLAdequate)
	assert.True(t, result.SeriousInjury)
	assert.True(t, result.IsInState)
	assert.True(t, result.IsTriCounty)
	assert.Equal(t, "charleston", result.County)
	assert.Equal(t, 16, result.TotalScore)
	assert.Equal(t, "Fracture injuries", result.InjuryType)
	require.NotNil(t, result.EstimatedCaseValue)
	assert.InDelta(t, 90000, *result.EstimatedCaseValue, 0.01)
	assert.Empty(t, result.SafetyFlags)
	assert.Contains(t, result.Notes, "Auto-qualified")
}

func TestQualifyBorderlineCaseGoesToReview(t *testing.T) {
	e := newTestEngine(t)

	lead := model.Lead{
		RecordID:         "rec002",
		Name:             "John Doe",
		AccidentDate:     daysAgo(480),
		AccidentLocation: "Columbia, SC",
		InjuryDesc:       "Whiplash and neck pain",
		MedicalTreatment: "ER visit followed by physical therapy",
		InsuranceCarrier: "GEICO",
		LiabilityNotes:   "Other driver ran red light",
	}

	result := e.Qualify(context.Background(), lead)

	assert.Equal(t, model.TierReview, result.Tier)
	assert.Equal(t, 8, result.TotalScore)
	assert.Equal(t, "richland", result.County)
	assert.True(t, result.IsInState)
	assert.False(t, result.IsTriCounty)
	assert.False(t, result.SeriousInjury)
	assert.Equal(t, "Whiplash/soft tissue", result.InjuryType)
	assert.Contains(t, result.Notes, "Flagged for review")
	assert.Contains(t, result.Notes, "STRENGTHS:")
}

func TestQualifyOutOfStateDeclines(t *testing.T) {
	e := newTestEngine(t)

	lead := model.Lead{
		RecordID:         "rec003",
		Name:             "Sam Jones",
		AccidentDate:     daysAgo(30),
		AccidentLocation: "Atlanta, Georgia",
		InjuryDesc:       "Fractured arm, surgery",
		MedicalTreatment: "Emergency room, orthopedic follow-up",
		InsuranceCarrier: "Allstate",
		LiabilityNotes:   "Rear-end collision",
	}

	result := e.Qualify(context.Background(), lead)

	// High score does not override the jurisdiction gate.
	assert.Equal(t, model.TierAutoDecline, result.Tier)
	assert.False(t, result.IsInState)
	assert.Contains(t, result.Notes, "REASONS FOR DECLINE")
}

func TestQualifyExpiredSOLDeclines(t *testing.T) {
	e := newTestEngine(t)

	lead := model.Lead{
		RecordID:         "rec004",
		Name:             "Pat Green",
		AccidentDate:     daysAgo(4 * 365),
		AccidentLocation: "Charleston, SC",
		InjuryDesc:       "Broken wrist",
		MedicalTreatment: "Emergency room, orthopedic care",
		InsuranceCarrier: "USAA",
		LiabilityNotes:   "Defendant admitted fault",
	}

	result := e.Qualify(context.Background(), lead)

	assert.Equal(t, model.TierAutoDecline, result.Tier)
	require.NotNil(t, result.MonthsUntilSOL)
	assert.Equal(t, 0, *result.MonthsUntilSOL)
}

func TestQualifyUnknownAccidentDate(t *testing.T) {
	e := newTestEngine(t)

	lead := model.Lead{
		RecordID:         "rec005",
		Name:             "Lee Brown",
		AccidentLocation: "Summerville, SC",
		InjuryDesc:       "Back pain",
		MedicalTreatment: "Chiropractor visits",
		LiabilityNotes:   "Rear-end collision",
	}

	result := e.Qualify(context.Background(), lead)

	// No date means no SOL runway, which is a hard decline gate.
	assert.Nil(t, result.MonthsUntilSOL)
	assert.False(t, result.SOLAdequate)
	assert.Equal(t, model.TierAutoDecline, result.Tier)
}

func TestQualifySafetyFlagBlocksAutoAccept(t *testing.T) {
	e := newTestEngine(t)

	lead := model.Lead{
		RecordID:         "rec006",
		Name:             "Morgan White",
		AccidentDate:     daysAgo(90),
		AccidentLocation: "Mount Pleasant, SC",
		InjuryDesc:       "Fractured hip, surgery scheduled",
		MedicalTreatment: "Emergency room, orthopedic surgeon",
		InsuranceCarrier: "Progressive",
		LiabilityNotes:   "Rear-end by 18-wheeler, citation issued",
	}

	result := e.Qualify(context.Background(), lead)

	assert.GreaterOrEqual(t, result.TotalScore, e.scoring.Tier1Threshold)
	assert.Equal(t, model.TierReview, result.Tier)
	require.Len(t, result.SafetyFlags, 1)
	assert.Equal(t, "commercial_vehicle", result.SafetyFlags[0].Type)
}
