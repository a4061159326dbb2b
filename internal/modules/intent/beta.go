package intent

import (
	"errors"
	"fmt"
	"math"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/gatekeeper/internal/domain"
)

const (
	// TradingDaysPerYear converts observation counts to years
	TradingDaysPerYear = 252
	// MinObservations is the smallest aligned sample a beta is estimated on
	MinObservations    = 60
	// RollingWindow is the window of the rolling beta used for stability
	RollingWindow      = 60

	stableMaxCV   = 0.20
	driftingMaxCV = 0.50
)

var (
	// ErrInsufficientSample is returned when fewer than MinObservations aligned pairs exist
	ErrInsufficientSample = errors.New("insufficient sample for beta estimation")
	// ErrFlatBenchmark is returned when the benchmark has no variance
	ErrFlatBenchmark = errors.New("benchmark returns have zero variance")
)

// EstimateBeta estimates the portfolio beta against a benchmark from daily returns.
// Only pairs where both values are finite are used. On ErrInsufficientSample the
// returned estimate still carries the sample size.
func EstimateBeta(portfolio, benchmark []float64) (domain.BetaEstimate, error) {
	n := len(portfolio)
	if len(benchmark) < n {
		n = len(benchmark)
	}

	p := make([]float64, 0, n)
	b := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if isFinite(portfolio[i]) && isFinite(benchmark[i]) {
			p = append(p, portfolio[i])
			b = append(b, benchmark[i])
		}
	}
	if len(p) < MinObservations {
		short := domain.BetaEstimate{
			Observations: len(p),
			WindowYears:  float64(len(p)) / TradingDaysPerYear,
			State:        domain.BetaUnknown,
		}
		return short, fmt.Errorf("%w: %d aligned observations, need %d", ErrInsufficientSample, len(p), MinObservations)
	}

	variance := stat.Variance(b, nil)
	if variance == 0 {
		return domain.BetaEstimate{}, ErrFlatBenchmark
	}

	stability, state := rollingStability(p, b)
	return domain.BetaEstimate{
		Beta:         stat.Covariance(p, b, nil) / variance,
		Observations: len(p),
		WindowYears:  float64(len(p)) / TradingDaysPerYear,
		Stability:    stability,
		State:        state,
	}, nil
}

// rollingStability measures how much the rolling beta moves over the sample.
// The coefficient of variation of the rolling series maps to a BetaState.
func rollingStability(portfolio, benchmark []float64) (float64, domain.BetaState) {
	// talib.Beta works on price levels, so rebuild growth indices from returns
	pIdx := growthIndex(portfolio)
	bIdx := growthIndex(benchmark)

	rolling := talib.Beta(bIdx, pIdx, RollingWindow)
	values := make([]float64, 0, len(rolling))
	for _, v := range rolling {
		// lookback slots are zero-filled
		if v != 0 && isFinite(v) {
			values = append(values, v)
		}
	}
	if len(values) < 2 {
		return 0, domain.BetaUnknown
	}

	mean, std := stat.MeanStdDev(values, nil)
	if math.Abs(mean) < 1e-9 {
		return 0, domain.BetaUnstable
	}
	cv := std / math.Abs(mean)
	stability := math.Max(0, 1-cv)

	switch {
	case cv <= stableMaxCV:
		return stability, domain.BetaStable
	case cv <= driftingMaxCV:
		return stability, domain.BetaDrifting
	default:
		return stability, domain.BetaUnstable
	}
}

func growthIndex(returns []float64) []float64 {
	idx := make([]float64, len(returns)+1)
	idx[0] = 1
	for i, r := range returns {
		idx[i+1] = idx[i] * (1 + r)
	}
	return idx
}

// MaxDrawdown returns the deepest peak-to-trough fall of a return series as a
// non-positive fraction
func MaxDrawdown(returns []float64) float64 {
	peak, level, worst := 1.0, 1.0, 0.0
	for _, r := range returns {
		if !isFinite(r) {
			continue
		}
		level *= 1 + r
		if level > peak {
			peak = level
		}
		if dd := level/peak - 1; dd < worst {
			worst = dd
		}
	}
	return worst
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
