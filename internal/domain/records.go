package domain

import (
	"fmt"
	"math"
	"time"
)

// NaN ratio boundaries for DataQuality
const (
	NaNWarningThreshold = 0.10
	NaNFailThreshold    = 0.20
)

// Range is a closed numeric interval [Lo, Hi]
type Range struct {
	Lo float64 `json:"lo" yaml:"lo"`
	Hi float64 `json:"hi" yaml:"hi"`
}

// Contains reports whether v lies within the closed interval
func (r Range) Contains(v float64) bool {
	return v >= r.Lo && v <= r.Hi
}

// Width returns Hi - Lo
func (r Range) Width() float64 {
	return r.Hi - r.Lo
}

// RiskIntentSpec is the expected risk envelope of one intent level
type RiskIntentSpec struct {
	Level               RiskIntentLevel `json:"level"`
	BetaRange           Range           `json:"beta_range"`
	MinBetaAcceptable   float64         `json:"min_beta_acceptable"`
	BetaFailThreshold   float64         `json:"beta_fail_threshold"`
	MaxDrawdownExpected float64         `json:"max_dd_expected"`
	BenchmarkID         string          `json:"benchmark_id"`
	VolExpected         Range           `json:"vol_expected"`
}

// NewRiskIntentSpec validates and builds a spec
func NewRiskIntentSpec(level RiskIntentLevel, beta Range, minAcceptable, failThreshold, maxDD float64, benchmarkID string, vol Range) (RiskIntentSpec, error) {
	spec := RiskIntentSpec{
		Level:               level,
		BetaRange:           beta,
		MinBetaAcceptable:   minAcceptable,
		BetaFailThreshold:   failThreshold,
		MaxDrawdownExpected: maxDD,
		BenchmarkID:         benchmarkID,
		VolExpected:         vol,
	}
	if err := spec.Validate(); err != nil {
		return RiskIntentSpec{}, err
	}
	return spec, nil
}

// Validate checks the ordering invariants of the spec
func (s RiskIntentSpec) Validate() error {
	switch {
	case !s.Level.Valid():
		return fmt.Errorf("%w: %q", ErrUnknownRiskIntent, s.Level)
	case s.BetaRange.Lo >= s.BetaRange.Hi:
		return fmt.Errorf("%w: %s beta range [%.2f, %.2f] is empty", ErrInvalidRecord, s.Level, s.BetaRange.Lo, s.BetaRange.Hi)
	case s.MinBetaAcceptable > s.BetaRange.Lo:
		return fmt.Errorf("%w: %s min acceptable beta %.2f above range floor %.2f", ErrInvalidRecord, s.Level, s.MinBetaAcceptable, s.BetaRange.Lo)
	case s.BetaFailThreshold >= s.MinBetaAcceptable:
		return fmt.Errorf("%w: %s fail threshold %.2f not below min acceptable %.2f", ErrInvalidRecord, s.Level, s.BetaFailThreshold, s.MinBetaAcceptable)
	case s.MaxDrawdownExpected > 0:
		return fmt.Errorf("%w: %s max drawdown must be expressed as a negative fraction", ErrInvalidRecord, s.Level)
	}
	return nil
}

// DataQuality describes the upstream data feeding a run. It is read-only once built.
type DataQuality struct {
	NaNRatio        float64   `json:"nan_ratio"`
	EarliestDate    time.Time `json:"earliest_date"`
	LatestDate      time.Time `json:"latest_date"`
	TradingDays     int       `json:"trading_days"`
	OverlappingDays int       `json:"overlapping_days"`
	StaggeredEntry  bool      `json:"staggered_entry"`
}

// NewDataQuality validates and builds a DataQuality record
func NewDataQuality(nanRatio float64, earliest, latest time.Time, tradingDays, overlappingDays int, staggered bool) (DataQuality, error) {
	if math.IsNaN(nanRatio) || nanRatio < 0 || nanRatio > 1 {
		return DataQuality{}, fmt.Errorf("%w: nan ratio %v outside [0,1]", ErrInvalidRecord, nanRatio)
	}
	if tradingDays < 0 || overlappingDays < 0 {
		return DataQuality{}, fmt.Errorf("%w: negative day count", ErrInvalidRecord)
	}
	if overlappingDays > tradingDays {
		return DataQuality{}, fmt.Errorf("%w: overlapping days %d exceed trading days %d", ErrInvalidRecord, overlappingDays, tradingDays)
	}
	if !earliest.IsZero() && !latest.IsZero() && latest.Before(earliest) {
		return DataQuality{}, fmt.Errorf("%w: latest date before earliest date", ErrInvalidRecord)
	}
	return DataQuality{
		NaNRatio:        nanRatio,
		EarliestDate:    earliest,
		LatestDate:      latest,
		TradingDays:     tradingDays,
		OverlappingDays: overlappingDays,
		StaggeredEntry:  staggered,
	}, nil
}

// IsPass reports whether the NaN ratio is within the usable bound
func (q DataQuality) IsPass() bool {
	return q.NaNRatio <= NaNFailThreshold
}

// IsWarning reports whether the NaN ratio is usable but degraded
func (q DataQuality) IsWarning() bool {
	return q.NaNRatio > NaNWarningThreshold && q.NaNRatio <= NaNFailThreshold
}

// ComponentRisk is the risk contribution of one asset
type ComponentRisk struct {
	Ticker                   string  `json:"ticker"`
	Weight                   float64 `json:"weight"`
	MarginalContribution     float64 `json:"marginal_contribution"`
	ComponentContribution    float64 `json:"component_contribution"`
	ComponentContributionPct float64 `json:"component_contribution_pct"`
}

// NewComponentRisk validates and builds a ComponentRisk
func NewComponentRisk(ticker string, weight, marginal, component, componentPct float64) (ComponentRisk, error) {
	if ticker == "" {
		return ComponentRisk{}, fmt.Errorf("%w: component risk without ticker", ErrInvalidRecord)
	}
	if weight < 0 || weight > 1 {
		return ComponentRisk{}, fmt.Errorf("%w: %s weight %.4f outside [0,1]", ErrInvalidRecord, ticker, weight)
	}
	return ComponentRisk{
		Ticker:                   ticker,
		Weight:                   weight,
		MarginalContribution:     marginal,
		ComponentContribution:    component,
		ComponentContributionPct: componentPct,
	}, nil
}

// RiskLeverage is the share of risk carried per unit of weight
func (c ComponentRisk) RiskLeverage() float64 {
	if c.Weight == 0 {
		return 0
	}
	return c.ComponentContributionPct / c.Weight
}

// BetaEstimate is a portfolio beta with the sample it was estimated on
type BetaEstimate struct {
	Beta         float64   `json:"beta"`
	Observations int       `json:"observations"`
	WindowYears  float64   `json:"window_years"`
	Stability    float64   `json:"stability"`
	State        BetaState `json:"state"`
}

// Validate checks that the estimate can be judged at all
func (e BetaEstimate) Validate() error {
	if math.IsNaN(e.Beta) || math.IsInf(e.Beta, 0) {
		return fmt.Errorf("%w: beta %v is not finite", ErrInvalidRecord, e.Beta)
	}
	if e.Observations < 0 {
		return fmt.Errorf("%w: negative observation count %d", ErrInvalidRecord, e.Observations)
	}
	if math.IsNaN(e.WindowYears) || math.IsInf(e.WindowYears, 0) || e.WindowYears <= 0 {
		return fmt.Errorf("%w: beta window %v years must be positive", ErrInvalidRecord, e.WindowYears)
	}
	if math.IsNaN(e.Stability) || math.IsInf(e.Stability, 0) {
		return fmt.Errorf("%w: beta stability %v is not finite", ErrInvalidRecord, e.Stability)
	}
	return nil
}

// DrawdownAttribution splits realized drawdown into the part beta explains and the rest
type DrawdownAttribution struct {
	PortfolioDrawdown   float64      `json:"portfolio_drawdown"`
	BenchmarkDrawdown   float64      `json:"benchmark_drawdown"`
	ExpectedDrawdown    float64      `json:"expected_drawdown"`
	Excess              float64      `json:"excess"`
	StructuralComponent float64      `json:"structural_component"`
	RegimeComponent     float64      `json:"regime_component"`
	Kind                DrawdownKind `json:"kind"`
}

// PrescriptiveAction is a recommended step attached to a gate outcome
type PrescriptiveAction struct {
	IssueCode   string         `json:"issue_code"`
	Priority    ActionPriority `json:"priority"`
	Confidence  float64        `json:"confidence"`
	Description string         `json:"description"`
	Actions     []string       `json:"actions"`
	Blockers    []string       `json:"blockers,omitempty"`
}

// CCRClassification classifies a position's component-risk leverage
type CCRClassification struct {
	Ticker       string         `json:"ticker"`
	Weight       float64        `json:"weight"`
	CCRPct       float64        `json:"ccr_pct"`
	Leverage     float64        `json:"leverage"`
	Level        CCRLevel       `json:"level"`
	DataQuality  CCRDataQuality `json:"data_quality"`
	IsActionable bool           `json:"is_actionable"`
}
