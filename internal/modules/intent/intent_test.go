package intent

import (
	"math"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/gatekeeper/internal/domain"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	growth, err := c.Lookup(domain.RiskIntentGrowth)
	require.NoError(t, err)
	assert.Equal(t, domain.Range{Lo: 0.8, Hi: 1.2}, growth.BetaRange)
	assert.Equal(t, 0.6, growth.MinBetaAcceptable)
	assert.Equal(t, 0.4, growth.BetaFailThreshold)
	assert.Equal(t, "VT", growth.BenchmarkID)

	conservative, err := c.Lookup(domain.RiskIntentConservative)
	require.NoError(t, err)
	assert.Equal(t, -0.15, conservative.MaxDrawdownExpected)

	_, err = c.Lookup("YOLO")
	assert.ErrorIs(t, err, domain.ErrUnknownRiskIntent)

	specs := c.Specs()
	require.Len(t, specs, 4)
	assert.Equal(t, domain.RiskIntentConservative, specs[0].Level)
	assert.Equal(t, domain.RiskIntentAggressive, specs[3].Level)
}

func TestNewCatalogFromEntries_Rejects(t *testing.T) {
	missing := DefaultEntries()[:3]
	_, err := NewCatalogFromEntries(missing)
	assert.ErrorIs(t, err, domain.ErrInvalidRecord)

	dup := append(DefaultEntries(), DefaultEntries()[0])
	_, err = NewCatalogFromEntries(dup)
	assert.ErrorIs(t, err, domain.ErrInvalidRecord)

	broken := DefaultEntries()
	broken[2].BetaFailThreshold = 0.7
	_, err = NewCatalogFromEntries(broken)
	assert.ErrorIs(t, err, domain.ErrInvalidRecord)

	unknown := DefaultEntries()
	unknown[0].Level = "BALANCED"
	_, err = NewCatalogFromEntries(unknown)
	assert.ErrorIs(t, err, domain.ErrUnknownRiskIntent)
}

func TestCatalog_Recommend(t *testing.T) {
	c := DefaultCatalog()

	assert.Equal(t, domain.RiskIntentConservative, c.Recommend(0.1))
	assert.Equal(t, domain.RiskIntentConservative, c.Recommend(0.4))
	assert.Equal(t, domain.RiskIntentModerate, c.Recommend(0.7))
	assert.Equal(t, domain.RiskIntentGrowth, c.Recommend(1.1))
	assert.Equal(t, domain.RiskIntentAggressive, c.Recommend(1.25))
	assert.Equal(t, domain.RiskIntentAggressive, c.Recommend(2.0))

	assert.Equal(t, domain.RiskIntentModerate, Next(domain.RiskIntentConservative))
	assert.Equal(t, domain.RiskIntentAggressive, Next(domain.RiskIntentAggressive))
}

func benchmarkReturns(n int) []float64 {
	rng := rand.New(rand.NewSource(7))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.NormFloat64() * 0.01
	}
	return out
}

func TestEstimateBeta_RecoversScaledSeries(t *testing.T) {
	bench := benchmarkReturns(300)
	port := make([]float64, len(bench))
	for i, r := range bench {
		port[i] = 0.9 * r
	}

	est, err := EstimateBeta(port, bench)
	require.NoError(t, err)

	assert.InDelta(t, 0.9, est.Beta, 1e-9)
	assert.Equal(t, 300, est.Observations)
	assert.InDelta(t, 300.0/252.0, est.WindowYears, 1e-9)
	assert.Equal(t, domain.BetaStable, est.State)
	assert.InDelta(t, 1.0, est.Stability, 1e-6)
}

func TestEstimateBeta_DetectsUnstableBeta(t *testing.T) {
	bench := benchmarkReturns(720)
	port := make([]float64, len(bench))
	for i, r := range bench {
		if (i/120)%2 == 0 {
			port[i] = -0.5 * r
		} else {
			port[i] = 2.5 * r
		}
	}

	est, err := EstimateBeta(port, bench)
	require.NoError(t, err)
	assert.Equal(t, domain.BetaUnstable, est.State)
}

func TestEstimateBeta_DropsNonFinitePairs(t *testing.T) {
	bench := benchmarkReturns(70)
	port := append([]float64(nil), bench...)
	for i := 0; i < 5; i++ {
		port[i*10] = math.NaN()
	}
	bench[3] = math.Inf(1)

	est, err := EstimateBeta(port, bench)
	require.NoError(t, err)
	assert.Equal(t, 64, est.Observations)
}

func TestEstimateBeta_Errors(t *testing.T) {
	bench := benchmarkReturns(59)
	_, err := EstimateBeta(bench, bench)
	assert.ErrorIs(t, err, ErrInsufficientSample)

	flat := make([]float64, 100)
	_, err = EstimateBeta(benchmarkReturns(100), flat)
	assert.ErrorIs(t, err, ErrFlatBenchmark)
}

func TestMaxDrawdown(t *testing.T) {
	assert.InDelta(t, -0.5, MaxDrawdown([]float64{0.1, -0.5, 0.2}), 1e-9)
	assert.Equal(t, 0.0, MaxDrawdown([]float64{0.01, 0.02}))
	assert.Equal(t, 0.0, MaxDrawdown(nil))
}

func TestAttributeDrawdown(t *testing.T) {
	growth, err := DefaultCatalog().Lookup(domain.RiskIntentGrowth)
	require.NoError(t, err)

	tests := []struct {
		name      string
		dd, bench float64
		beta      float64
		want      domain.DrawdownKind
	}{
		{"within beta", -0.30, -0.25, 1.0, domain.DrawdownRegimeDriven},
		{"shallower than expected", -0.10, -0.25, 1.0, domain.DrawdownRegimeDriven},
		{"partial", -0.35, -0.25, 1.0, domain.DrawdownPartiallyStructural},
		{"structural", -0.50, -0.25, 1.0, domain.DrawdownStructural},
		{"low beta", -0.50, -0.25, 0.3, domain.DrawdownIntentMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AttributeDrawdown(tt.dd, tt.bench, tt.beta, growth)
			assert.Equal(t, tt.want, got.Kind)
			assert.InDelta(t, math.Abs(tt.dd), got.StructuralComponent+got.RegimeComponent, 1e-9)
			assert.GreaterOrEqual(t, got.StructuralComponent, 0.0)
		})
	}
}

func TestAnalyzer_Evaluate(t *testing.T) {
	a := NewAnalyzer(DefaultCatalog(), DefaultLimits(), zerolog.Nop())
	fiveYears := func(beta float64) domain.BetaEstimate {
		return domain.BetaEstimate{Beta: beta, Observations: 1260, WindowYears: 5, State: domain.BetaStable}
	}

	tests := []struct {
		name      string
		est       domain.BetaEstimate
		want      domain.GateStatus
		issueCode string
	}{
		{"inside range", fiveYears(0.95), domain.GateStatusPass, ""},
		{"range floor", fiveYears(0.8), domain.GateStatusPass, ""},
		{"range ceiling", fiveYears(1.2), domain.GateStatusPass, ""},
		{"soft miss", fiveYears(0.7), domain.GateStatusWarn, "INTENT_MISMATCH_SOFT"},
		{"above range", fiveYears(1.25), domain.GateStatusWarn, "INTENT_MISMATCH_SOFT"},
		{"hard miss", fiveYears(0.3), domain.GateStatusFail, "INTENT_MISMATCH_HARD"},
		{"short window", domain.BetaEstimate{Beta: 0.95, Observations: 504, WindowYears: 2}, domain.GateStatusInconclusive, "BETA_WINDOW_INSUFFICIENT"},
		{"few observations", domain.BetaEstimate{Beta: 0.95, Observations: 40, WindowYears: 4}, domain.GateStatusInconclusive, "BETA_WINDOW_INSUFFICIENT"},
		{"NaN beta", fiveYears(math.NaN()), domain.GateStatusInconclusive, "BETA_ESTIMATE_INVALID"},
		{"infinite beta", fiveYears(math.Inf(1)), domain.GateStatusInconclusive, "BETA_ESTIMATE_INVALID"},
		{"negative infinite beta", fiveYears(math.Inf(-1)), domain.GateStatusInconclusive, "BETA_ESTIMATE_INVALID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.Evaluate(tt.est, domain.RiskIntentGrowth, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Verdict)
			assert.Equal(t, tt.want != domain.GateStatusInconclusive, got.IsValid)
			assert.NotEmpty(t, got.Message)
			assert.False(t, math.IsNaN(got.ConfidenceScore))

			if tt.issueCode == "" {
				assert.Empty(t, got.Actions)
				return
			}
			require.Len(t, got.Actions, 1)
			assert.Equal(t, tt.issueCode, got.Actions[0].IssueCode)
		})
	}
}

func TestAnalyzer_HardMissRecommendsMatchingIntent(t *testing.T) {
	a := NewAnalyzer(DefaultCatalog(), DefaultLimits(), zerolog.Nop())

	got, err := a.Evaluate(domain.BetaEstimate{Beta: 0.3, Observations: 1260, WindowYears: 5}, domain.RiskIntentGrowth, nil)
	require.NoError(t, err)
	require.Len(t, got.Actions, 1)

	act := got.Actions[0]
	assert.Equal(t, domain.PriorityCritical, act.Priority)
	assert.Contains(t, act.Actions[0], "CONSERVATIVE")
	assert.Contains(t, act.Actions[2], "MODERATE")
	assert.Equal(t, domain.BetaUnknown, got.BetaState)
}

func TestAnalyzer_UnknownIntent(t *testing.T) {
	a := NewAnalyzer(DefaultCatalog(), DefaultLimits(), zerolog.Nop())
	_, err := a.Evaluate(domain.BetaEstimate{Beta: 1}, "BALANCED", nil)
	assert.ErrorIs(t, err, domain.ErrUnknownRiskIntent)
}

func TestConfidence(t *testing.T) {
	growth, err := DefaultCatalog().Lookup(domain.RiskIntentGrowth)
	require.NoError(t, err)

	est := domain.BetaEstimate{Beta: 0.95, Observations: 1260, WindowYears: 5, State: domain.BetaStable}
	// 0.3*0.5 + 0.3*1 + 0.2*(0.15/0.4) + 0.2*0.6
	score := Confidence(est, growth, nil)
	assert.InDelta(t, 64.5, score, 1e-9)
	assert.Equal(t, "MEDIUM", ConfidenceLabel(score))

	est.WindowYears = 12
	regime := &domain.DrawdownAttribution{Kind: domain.DrawdownRegimeDriven}
	// 0.3*1 + 0.3*1 + 0.2*0.375 + 0.2*1
	assert.InDelta(t, 87.5, Confidence(est, growth, regime), 1e-9)

	est.State = domain.BetaUnstable
	structural := &domain.DrawdownAttribution{Kind: domain.DrawdownStructural}
	assert.InDelta(t, 49.5, Confidence(est, growth, structural), 1e-9)

	assert.Equal(t, "HIGH", ConfidenceLabel(80))
	assert.Equal(t, "LOW", ConfidenceLabel(40))
	assert.Equal(t, "INSUFFICIENT", ConfidenceLabel(39.9))
}
