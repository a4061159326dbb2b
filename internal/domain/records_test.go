package domain

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataQuality_PassAndWarning(t *testing.T) {
	tests := []struct {
		name    string
		ratio   float64
		pass    bool
		warning bool
	}{
		{"clean", 0.0, true, false},
		{"at warning floor", 0.10, true, false},
		{"degraded", 0.15, true, true},
		{"at fail boundary", 0.20, true, true},
		{"unusable", 0.25, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dq, err := NewDataQuality(tt.ratio, time.Time{}, time.Time{}, 500, 500, false)
			require.NoError(t, err)
			assert.Equal(t, tt.pass, dq.IsPass())
			assert.Equal(t, tt.warning, dq.IsWarning())
		})
	}
}

func TestNewDataQuality_RejectsInvalid(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := NewDataQuality(1.5, start, start, 10, 10, false)
	assert.True(t, errors.Is(err, ErrInvalidRecord))

	_, err = NewDataQuality(0.1, start, start, 10, 20, false)
	assert.True(t, errors.Is(err, ErrInvalidRecord))

	_, err = NewDataQuality(0.1, start, start.AddDate(-1, 0, 0), 10, 10, false)
	assert.True(t, errors.Is(err, ErrInvalidRecord))
}

func TestNewRiskIntentSpec_Invariants(t *testing.T) {
	_, err := NewRiskIntentSpec(RiskIntentGrowth, Range{0.8, 1.2}, 0.6, 0.4, -0.35, "VT", Range{0.14, 0.18})
	require.NoError(t, err)

	_, err = NewRiskIntentSpec(RiskIntentGrowth, Range{0.8, 1.2}, 0.9, 0.4, -0.35, "VT", Range{})
	assert.ErrorIs(t, err, ErrInvalidRecord, "min acceptable above range floor")

	_, err = NewRiskIntentSpec(RiskIntentGrowth, Range{0.8, 1.2}, 0.6, 0.6, -0.35, "VT", Range{})
	assert.ErrorIs(t, err, ErrInvalidRecord, "fail threshold must be strictly below min acceptable")

	_, err = NewRiskIntentSpec("SPECULATIVE", Range{0.8, 1.2}, 0.6, 0.4, -0.35, "VT", Range{})
	assert.ErrorIs(t, err, ErrUnknownRiskIntent)
}

func TestComponentRisk_RiskLeverage(t *testing.T) {
	cr, err := NewComponentRisk("VWCE", 0.25, 0.01, 0.004, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, cr.RiskLeverage(), 1e-9)

	zero, err := NewComponentRisk("CASH", 0, 0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, zero.RiskLeverage())

	_, err = NewComponentRisk("", 0.1, 0, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestParseRiskIntentLevel(t *testing.T) {
	level, err := ParseRiskIntentLevel(" growth ")
	require.NoError(t, err)
	assert.Equal(t, RiskIntentGrowth, level)

	_, err = ParseRiskIntentLevel("YOLO")
	assert.ErrorIs(t, err, ErrUnknownRiskIntent)
}

func TestFinalVerdictType_IsInconclusive(t *testing.T) {
	assert.True(t, VerdictInconclusiveDataFail.IsInconclusive())
	assert.True(t, VerdictInconclusiveIntentData.IsInconclusive())
	assert.True(t, VerdictInconclusiveIntentFailStruct.IsInconclusive())
	assert.False(t, VerdictCoherentIntentMatch.IsInconclusive())
	assert.False(t, VerdictStructurallyFragile.IsInconclusive())
}

func TestGateResult_WithOverrideDoesNotMutateOriginal(t *testing.T) {
	original := GateResult{
		FinalVerdict:   VerdictInconclusiveDataFail,
		IsInconclusive: true,
		Gates:          []GateReport{{Gate: GateDataIntegrity, Status: GateStatusInconclusive}},
	}
	assert.False(t, original.AllowsPortfolioAction())

	overridden := original.WithOverride(OverrideMetadata{AuthorizedBy: "risk.officer"})
	overridden.Gates[0].Message = "changed"

	assert.True(t, overridden.OverrideApplied)
	assert.True(t, overridden.AllowsPortfolioAction())
	assert.False(t, original.OverrideApplied)
	assert.Nil(t, original.Override)
	assert.Empty(t, original.Gates[0].Message)
	assert.Equal(t, []GateName{GateDataIntegrity}, original.GatesWithStatus(GateStatusInconclusive))
}

func TestBetaEstimate_Validate(t *testing.T) {
	assert.NoError(t, BetaEstimate{Beta: 0.95, Observations: 1260, WindowYears: 5}.Validate())
	assert.NoError(t, BetaEstimate{Beta: -0.2, Observations: 0, WindowYears: 0.1}.Validate())

	for _, bad := range []BetaEstimate{
		{Beta: math.NaN(), Observations: 1260, WindowYears: 5},
		{Beta: math.Inf(1), Observations: 1260, WindowYears: 5},
		{Beta: math.Inf(-1), Observations: 1260, WindowYears: 5},
		{Beta: 1, Observations: -1, WindowYears: 5},
		{Beta: 1, Observations: 1260, WindowYears: 0},
		{Beta: 1, Observations: 1260, WindowYears: math.Inf(1)},
		{Beta: 1, Observations: 1260, WindowYears: 5, Stability: math.NaN()},
	} {
		assert.ErrorIs(t, bad.Validate(), ErrInvalidRecord, "%+v", bad)
	}
}
