package intent

import (
	"math"

	"github.com/aristath/gatekeeper/internal/domain"
)

// Excess drawdown bands, as fractions of portfolio value
const (
	RegimeExcessMax  = 0.05
	PartialExcessMax = 0.15
)

// AttributeDrawdown splits the realized drawdown into the part explained by
// the benchmark's fall times beta and the structural remainder.
// Drawdowns are non-positive fractions.
func AttributeDrawdown(portfolioDD, benchmarkDD, beta float64, spec domain.RiskIntentSpec) domain.DrawdownAttribution {
	expected := benchmarkDD * beta
	excess := math.Abs(portfolioDD) - math.Abs(expected)
	structural := math.Max(0, excess)

	var kind domain.DrawdownKind
	switch {
	case excess <= RegimeExcessMax:
		kind = domain.DrawdownRegimeDriven
	case excess <= PartialExcessMax:
		kind = domain.DrawdownPartiallyStructural
	case beta < spec.MinBetaAcceptable:
		kind = domain.DrawdownIntentMismatch
	default:
		kind = domain.DrawdownStructural
	}

	return domain.DrawdownAttribution{
		PortfolioDrawdown:   portfolioDD,
		BenchmarkDrawdown:   benchmarkDD,
		ExpectedDrawdown:    expected,
		Excess:              excess,
		StructuralComponent: structural,
		RegimeComponent:     math.Abs(portfolioDD) - structural,
		Kind:                kind,
	}
}
