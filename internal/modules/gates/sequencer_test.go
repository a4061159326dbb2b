package gates

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/gatekeeper/internal/domain"
	"github.com/aristath/gatekeeper/internal/modules/classification"
	"github.com/aristath/gatekeeper/internal/modules/intent"
)

type recordingObserver struct {
	mu      sync.Mutex
	results []domain.GateResult
}

func (o *recordingObserver) ObserveRun(result domain.GateResult, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results = append(o.results, result)
}

var fixedNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newTestSequencer(obs Observer) *Sequencer {
	log := zerolog.Nop()
	return NewSequencer(Options{
		Classifier: classification.NewClassifier(classification.DefaultTaxonomy(), log),
		Soft:       classification.NewSoftClassifier(classification.DefaultSoftPolicy(), log),
		Analyzer:   intent.NewAnalyzer(intent.DefaultCatalog(), intent.DefaultLimits(), log),
		Thresholds: DefaultThresholds(),
		Observer:   obs,
		Now:        func() time.Time { return fixedNow },
	}, log)
}

func goodData() domain.DataQuality {
	return domain.DataQuality{NaNRatio: 0.05, TradingDays: 1260, OverlappingDays: 1260}
}

func coreDriven() map[string]float64 {
	return map[string]float64{"VWCE": 0.60, "SPY": 0.20, "EIMI": 0.10, "IUSN": 0.10}
}

func betaOver(beta, years float64) *domain.BetaEstimate {
	return &domain.BetaEstimate{Beta: beta, Observations: int(years * 252), WindowYears: years, State: domain.BetaStable}
}

func TestSequencer_ScenarioC_CoherentAndAllowed(t *testing.T) {
	obs := &recordingObserver{}
	s := newTestSequencer(obs)

	result, err := s.Run(context.Background(), EvaluationRequest{
		Holdings:    coreDriven(),
		RiskIntent:  "growth",
		DataQuality: goodData(),
		Beta:        betaOver(0.95, 5),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.GateStatusPass, result.Intent.Verdict)
	assert.Equal(t, domain.StructureEquityCoreDriven, result.Structural.StructureType)
	assert.Equal(t, domain.GateStatusPass, result.Structural.Verdict)
	assert.Equal(t, domain.VerdictCoherentIntentMatch, result.FinalVerdict)
	assert.True(t, result.AllowsPortfolioAction())
	assert.InDelta(t, 64.5, result.VerdictConfidence, 1e-9)
	assert.Equal(t, fixedNow, result.EvaluatedAt)

	assert.Equal(t, []domain.SequencerState{
		domain.StatePending,
		domain.StateDataIntegrityEval,
		domain.StateIntentEval,
		domain.StateStructuralEval,
		domain.StateBenchmarkEval,
		domain.StateVerdictSynthesized,
		domain.StateApproved,
	}, result.Transitions)
	assert.Equal(t, domain.StateApproved, result.State)

	require.Len(t, result.Gates, 4)
	for i, name := range domain.GateOrder {
		assert.Equal(t, name, result.Gates[i].Gate)
	}
	bench, ok := result.Gate(domain.GateBenchmark)
	require.True(t, ok)
	assert.Equal(t, domain.GateStatusNotApplicable, bench.Status)

	require.Len(t, obs.results, 1)
	assert.Equal(t, domain.VerdictCoherentIntentMatch, obs.results[0].FinalVerdict)
}

func TestSequencer_ScenarioB_DataFailBlocks(t *testing.T) {
	s := newTestSequencer(nil)

	result, err := s.Run(context.Background(), EvaluationRequest{
		Holdings:    coreDriven(),
		RiskIntent:  "GROWTH",
		DataQuality: domain.DataQuality{NaNRatio: 0.25, TradingDays: 200, OverlappingDays: 200},
		Beta:        &domain.BetaEstimate{Beta: 0.95, Observations: 200, WindowYears: 200.0 / 252},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInconclusive))

	var blocked *InconclusiveError
	require.True(t, errors.As(err, &blocked))
	assert.Equal(t, KindDataIntegrity, blocked.Kind())
	assert.Equal(t, domain.VerdictInconclusiveDataFail, blocked.VerdictType)
	assert.Contains(t, blocked.Gates, domain.GateDataIntegrity)
	assert.Contains(t, blocked.Gates, domain.GateIntent)
	assert.Contains(t, blocked.Gates, domain.GateStructural)
	assert.Contains(t, blocked.AllowedActions, "Collect more historical data")
	assert.Contains(t, blocked.ProhibitedActions, "Diversification verdict")
	assert.Equal(t, string(domain.VerdictInconclusiveDataFail), blocked.OverrideSchema()["verdict_type"])
	assert.Contains(t, err.Error(), "correlation NaN ratio 25.0% exceeds 20%")
	assert.Contains(t, err.Error(), "INCONCLUSIVE_DATA_FAIL")

	assert.False(t, result.DataQuality.IsPass())
	assert.Equal(t, domain.GateStatusInconclusive, result.Intent.Verdict)
	assert.Equal(t, domain.VerdictInconclusiveDataFail, result.FinalVerdict)
	assert.True(t, result.IsInconclusive)
	assert.False(t, result.AllowsPortfolioAction())
	assert.Equal(t, domain.StateBlockedInconclusive, result.State)
	assert.Equal(t, blocked.Result.FinalVerdict, result.FinalVerdict)

	// Metrics are still reported on a blocked structural gate
	assert.Equal(t, domain.StructureEquityCoreDriven, result.Structural.StructureType)
	assert.InDelta(t, 0.60, result.Structural.MaxPosition, 1e-9)

	// The data action outranks the beta window action
	require.NotEmpty(t, result.Actions)
	assert.Equal(t, "DATA_INTEGRITY_FAIL", result.Actions[0].IssueCode)
}

func TestSequencer_BlockingKinds(t *testing.T) {
	s := newTestSequencer(nil)

	tests := []struct {
		name    string
		data    domain.DataQuality
		beta    *domain.BetaEstimate
		verdict domain.FinalVerdictType
		kind    InconclusiveKind
		gates   []domain.GateName
	}{
		{
			name:    "intent fail on broken data",
			data:    domain.DataQuality{NaNRatio: 0.30, TradingDays: 1260, OverlappingDays: 1260},
			beta:    betaOver(0.3, 5),
			verdict: domain.VerdictInconclusiveIntentFailStruct,
			kind:    KindIntentFailStructureInconclusive,
			gates:   []domain.GateName{domain.GateDataIntegrity, domain.GateStructural},
		},
		{
			name:    "short beta window",
			data:    goodData(),
			beta:    betaOver(0.95, 2),
			verdict: domain.VerdictInconclusiveIntentData,
			kind:    KindBetaWindow,
			gates:   []domain.GateName{domain.GateIntent},
		},
		{
			name:    "too few overlapping days",
			data:    domain.DataQuality{NaNRatio: 0.0, TradingDays: 1260, OverlappingDays: 40},
			beta:    betaOver(0.95, 5),
			verdict: domain.VerdictInconclusiveDataFail,
			kind:    KindDataIntegrity,
			gates:   []domain.GateName{domain.GateDataIntegrity, domain.GateStructural},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.Run(context.Background(), EvaluationRequest{
				Holdings:    coreDriven(),
				RiskIntent:  "GROWTH",
				DataQuality: tt.data,
				Beta:        tt.beta,
			})

			var blocked *InconclusiveError
			require.True(t, errors.As(err, &blocked))
			assert.Equal(t, tt.kind, blocked.Kind())
			assert.Equal(t, tt.verdict, result.FinalVerdict)
			assert.Equal(t, tt.gates, blocked.Gates)
			assert.NotEmpty(t, blocked.Evidence)
			assert.Zero(t, result.VerdictConfidence)
		})
	}
}

func TestSequencer_ReviewVerdicts(t *testing.T) {
	s := newTestSequencer(nil)

	t.Run("keyword fragility", func(t *testing.T) {
		result, err := s.Run(context.Background(), EvaluationRequest{
			Holdings:         coreDriven(),
			RiskIntent:       "GROWTH",
			DataQuality:      goodData(),
			Beta:             betaOver(0.95, 5),
			StructuralIssues: []string{"Hidden leverage through a 3x ETF", "minor tracking drift"},
		})
		require.NoError(t, err)
		assert.Equal(t, domain.VerdictStructurallyFragile, result.FinalVerdict)
		assert.Equal(t, []string{"Hidden leverage through a 3x ETF"}, result.Structural.FragilityCauses)
		assert.Equal(t, domain.StateReviewNeeded, result.State)
		assert.True(t, result.AllowsPortfolioAction())
	})

	t.Run("single driver", func(t *testing.T) {
		result, err := s.Run(context.Background(), EvaluationRequest{
			Holdings:    map[string]float64{"VWCE": 0.70, "SPY": 0.30},
			RiskIntent:  "GROWTH",
			DataQuality: goodData(),
			Beta:        betaOver(0.95, 5),
		})
		require.NoError(t, err)
		assert.Equal(t, domain.VerdictStructurallyFragile, result.FinalVerdict)
		require.Len(t, result.Structural.FragilityCauses, 1)
		assert.Contains(t, result.Structural.FragilityCauses[0], "single-driver dependency: VWCE")
	})

	t.Run("intent misaligned", func(t *testing.T) {
		result, err := s.Run(context.Background(), EvaluationRequest{
			Holdings:    coreDriven(),
			RiskIntent:  "GROWTH",
			DataQuality: goodData(),
			Beta:        betaOver(0.3, 5),
		})
		require.NoError(t, err)
		assert.Equal(t, domain.VerdictIntentMisalignedStructureOK, result.FinalVerdict)
		assert.True(t, result.IsIntentMisaligned)
		assert.Equal(t, domain.StateReviewNeeded, result.State)
		require.NotEmpty(t, result.Actions)
		assert.Equal(t, "INTENT_MISMATCH_HARD", result.Actions[0].IssueCode)
	})
}

func TestSequencer_WarningsReduceConfidence(t *testing.T) {
	s := newTestSequencer(nil)

	result, err := s.Run(context.Background(), EvaluationRequest{
		Holdings:    coreDriven(),
		RiskIntent:  "GROWTH",
		DataQuality: domain.DataQuality{NaNRatio: 0.15, TradingDays: 2520, OverlappingDays: 2520},
		Beta:        betaOver(0.7, 10),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.VerdictCoherentIntentMatch, result.FinalVerdict)
	assert.Equal(t, []domain.GateName{domain.GateDataIntegrity, domain.GateIntent}, result.GatesWithStatus(domain.GateStatusWarn))
	assert.Equal(t, 70.0, result.VerdictConfidence)
}

func TestSequencer_ActionableCCRWarns(t *testing.T) {
	s := newTestSequencer(nil)
	holdings := map[string]float64{"VWCE": 0.40, "SPY": 0.15, "EIMI": 0.15, "IUSN": 0.15, "AGGH": 0.15}
	risk := []domain.ComponentRisk{
		{Ticker: "VWCE", Weight: 0.40, ComponentContributionPct: 0.30},
		{Ticker: "SPY", Weight: 0.15, ComponentContributionPct: 0.25},
		{Ticker: "EIMI", Weight: 0.15, ComponentContributionPct: 0.40},
		{Ticker: "IUSN", Weight: 0.15, ComponentContributionPct: 0.10},
		{Ticker: "AGGH", Weight: 0.15, ComponentContributionPct: -0.05},
	}

	result, err := s.Run(context.Background(), EvaluationRequest{
		Holdings:          holdings,
		RiskIntent:        "GROWTH",
		DataQuality:       goodData(),
		Beta:              betaOver(0.95, 5),
		RiskContributions: risk,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.GateStatusWarn, result.Structural.Verdict)
	assert.Contains(t, result.Structural.Warnings, "2 positions carry actionable CCR leverage")
	assert.Equal(t, domain.VerdictCoherentIntentMatch, result.FinalVerdict)
}

func TestSequencer_Benchmark(t *testing.T) {
	s := newTestSequencer(nil)
	cmp := &domain.BenchmarkComparison{BenchmarkName: "VT", ExcessReturn: -0.05, InformationRatio: -0.5, TrackingError: 0.04}

	result, err := s.Run(context.Background(), EvaluationRequest{
		Holdings:    coreDriven(),
		RiskIntent:  "GROWTH",
		DataQuality: goodData(),
		Beta:        betaOver(0.95, 5),
		Benchmark:   cmp,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Benchmark)
	assert.Equal(t, domain.BenchmarkSameCategory, result.Benchmark.Category)
	assert.Equal(t, domain.GateStatusWarn, result.Benchmark.Verdict)
	assert.Empty(t, cmp.Verdict, "caller comparison must not be mutated")

	result, err = s.Run(context.Background(), EvaluationRequest{
		Holdings:    map[string]float64{"VWCE": 0.50, "SPY": 0.20, "AGGH": 0.30},
		RiskIntent:  "MODERATE",
		DataQuality: goodData(),
		Beta:        betaOver(0.65, 5),
		Benchmark:   cmp,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.BenchmarkOpportunityCost, result.Benchmark.Category)
	assert.Equal(t, domain.GateStatusPass, result.Benchmark.Verdict)
	assert.Contains(t, result.Benchmark.Note, "opportunity-cost")
}

func TestSequencer_EstimatesBetaFromReturns(t *testing.T) {
	s := newTestSequencer(nil)

	bench := make([]float64, 40)
	for i := range bench {
		bench[i] = 0.001 * float64(i%5-2)
	}
	result, err := s.Run(context.Background(), EvaluationRequest{
		Holdings:         coreDriven(),
		RiskIntent:       "GROWTH",
		DataQuality:      goodData(),
		PortfolioReturns: bench,
		BenchmarkReturns: bench,
	})

	var blocked *InconclusiveError
	require.True(t, errors.As(err, &blocked))
	assert.Equal(t, KindBetaWindow, blocked.Kind())
	assert.Equal(t, 40, result.Intent.Observations)
	require.NotNil(t, result.Intent.Drawdown)
}

func TestSequencer_RejectsInvalidInput(t *testing.T) {
	s := newTestSequencer(nil)
	valid := func() EvaluationRequest {
		return EvaluationRequest{Holdings: coreDriven(), RiskIntent: "GROWTH", DataQuality: goodData(), Beta: betaOver(1, 5)}
	}

	req := valid()
	req.Holdings = map[string]float64{"VWCE": 0.5}
	_, err := s.Run(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidWeights)

	req = valid()
	req.RiskIntent = "BALANCED"
	_, err = s.Run(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrUnknownRiskIntent)

	req = valid()
	req.DataQuality.NaNRatio = 1.5
	_, err = s.Run(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidRecord)

	req = valid()
	req.Beta = nil
	_, err = s.Run(context.Background(), req)
	assert.ErrorIs(t, err, ErrMissingBetaInput)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Run(ctx, valid())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSequencer_RejectsUnusableBetaEstimate(t *testing.T) {
	s := newTestSequencer(nil)

	tests := []struct {
		name string
		est  domain.BetaEstimate
	}{
		{"NaN beta", domain.BetaEstimate{Beta: math.NaN(), Observations: 1260, WindowYears: 5}},
		{"positive infinite beta", domain.BetaEstimate{Beta: math.Inf(1), Observations: 1260, WindowYears: 5}},
		{"negative infinite beta", domain.BetaEstimate{Beta: math.Inf(-1), Observations: 1260, WindowYears: 5}},
		{"negative observations", domain.BetaEstimate{Beta: 0.95, Observations: -1, WindowYears: 5}},
		{"zero window", domain.BetaEstimate{Beta: 0.95, Observations: 1260, WindowYears: 0}},
		{"negative window", domain.BetaEstimate{Beta: 0.95, Observations: 1260, WindowYears: -5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est := tt.est
			result, err := s.Run(context.Background(), EvaluationRequest{
				Holdings:    coreDriven(),
				RiskIntent:  "GROWTH",
				DataQuality: goodData(),
				Beta:        &est,
			})
			assert.ErrorIs(t, err, domain.ErrInvalidRecord)
			assert.Empty(t, result.FinalVerdict)
		})
	}
}

func TestClassifyCCR(t *testing.T) {
	th := DefaultThresholds()
	risk := []domain.ComponentRisk{
		{Ticker: "A", Weight: 0.2, ComponentContributionPct: 0.2},
		{Ticker: "B", Weight: 0.2, ComponentContributionPct: 0.4},
		{Ticker: "C", Weight: 0.2, ComponentContributionPct: 0.6},
		{Ticker: "D", Weight: 0.2, ComponentContributionPct: 0.1},
		{Ticker: "E", Weight: 0.2, ComponentContributionPct: -0.3},
		{Ticker: "F", Weight: 0, ComponentContributionPct: 0.1},
	}

	got := ClassifyCCR(risk, goodData(), th)
	require.Len(t, got, 5)
	assert.Equal(t, domain.CCRNormal, got[0].Level)
	assert.Equal(t, domain.CCRWarning, got[1].Level)
	assert.Equal(t, domain.CCRCritical, got[2].Level)
	assert.True(t, got[1].IsActionable)
	assert.True(t, got[2].IsActionable)
	assert.False(t, got[0].IsActionable)
	assert.Equal(t, 2, countActionable(got))

	partial := ClassifyCCR(risk, domain.DataQuality{NaNRatio: 0.25}, th)
	assert.Equal(t, domain.CCRDataPartial, partial[0].DataQuality)
	assert.Zero(t, countActionable(partial))

	small := ClassifyCCR(risk[:3], goodData(), th)
	assert.Equal(t, domain.CCRDataSampleTooSmall, small[0].DataQuality)
	assert.Zero(t, countActionable(small))
}

func TestSummary(t *testing.T) {
	s := newTestSequencer(nil)

	result, err := s.Run(context.Background(), EvaluationRequest{
		Holdings:    coreDriven(),
		RiskIntent:  "GROWTH",
		DataQuality: domain.DataQuality{NaNRatio: 0.25, TradingDays: 200, OverlappingDays: 200},
		Beta:        &domain.BetaEstimate{Beta: 0.95, Observations: 200, WindowYears: 200.0 / 252},
	})
	require.Error(t, err)

	sum := s.Summarize(result)
	assert.Equal(t, domain.GateStatusInconclusive, sum.DataIntegrityGate.Status)
	assert.Equal(t, domain.GateStatusInconclusive, sum.IntentGate.Status)
	assert.Equal(t, domain.VerdictInconclusiveDataFail, sum.FinalVerdict.Value)
	assert.False(t, sum.AllowsPortfolioAction)
	assert.NotEmpty(t, sum.WhyNotContradictory)
	assert.Equal(t, 26, sum.QualityScore)

	doc := sum.Document()
	assert.Contains(t, doc, "verdict")
	assert.Contains(t, doc, "portfolio")
	assert.Contains(t, doc, "metrics")
	quality, ok := doc["quality"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 26, quality["score"])
}

func TestQualityScore(t *testing.T) {
	assert.Equal(t, 95, QualityScore(domain.DataQuality{NaNRatio: 0.05}, 5, 3))
	assert.Equal(t, 50, QualityScore(domain.DataQuality{NaNRatio: 0.0}, 1.5, 3))
	assert.Equal(t, 80, QualityScore(domain.DataQuality{NaNRatio: 0.2}, 0, 0))
}
