package testing

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/gatekeeper/internal/domain"
	"github.com/aristath/gatekeeper/internal/modules/classification"
	"github.com/aristath/gatekeeper/internal/modules/gates"
	"github.com/aristath/gatekeeper/internal/modules/intent"
)

// FixedNow is the clock every fixture agrees on
var FixedNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// Clock returns FixedNow
func Clock() time.Time { return FixedNow }

// NewTestSequencer builds a sequencer on the built-in policy and FixedNow
func NewTestSequencer(observer gates.Observer) *gates.Sequencer {
	log := zerolog.Nop()
	return gates.NewSequencer(gates.Options{
		Classifier: classification.NewClassifier(classification.DefaultTaxonomy(), log),
		Soft:       classification.NewSoftClassifier(classification.DefaultSoftPolicy(), log),
		Analyzer:   intent.NewAnalyzer(intent.DefaultCatalog(), intent.DefaultLimits(), log),
		Thresholds: gates.DefaultThresholds(),
		Observer:   observer,
		Now:        Clock,
	}, log)
}

func growthHoldings() map[string]float64 {
	return map[string]float64{"VWCE": 0.60, "SPY": 0.20, "EIMI": 0.10, "IUSN": 0.10}
}

// CoherentRequest is a diversified GROWTH portfolio with five years of clean data
func CoherentRequest() gates.EvaluationRequest {
	return gates.EvaluationRequest{
		Holdings:    growthHoldings(),
		RiskIntent:  "GROWTH",
		DataQuality: domain.DataQuality{NaNRatio: 0.05, TradingDays: 1260, OverlappingDays: 1260},
		Beta:        &domain.BetaEstimate{Beta: 0.95, Observations: 1260, WindowYears: 5, State: domain.BetaStable},
	}
}

// SparseDataRequest is the same portfolio with a quarter of its correlation data missing.
// It always ends in INCONCLUSIVE_DATA_FAIL.
func SparseDataRequest() gates.EvaluationRequest {
	return gates.EvaluationRequest{
		Holdings:    growthHoldings(),
		RiskIntent:  "GROWTH",
		DataQuality: domain.DataQuality{NaNRatio: 0.25, TradingDays: 200, OverlappingDays: 200},
		Beta:        &domain.BetaEstimate{Beta: 0.95, Observations: 200, WindowYears: 200.0 / 252},
	}
}
