package intent

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/aristath/gatekeeper/internal/domain"
)

// Limits is the minimum sample the intent verdict may be issued on
type Limits struct {
	MinWindowYears  float64 `yaml:"beta_min_years"`
	MinObservations int     `yaml:"beta_min_trading_days"`
}

// DefaultLimits returns the production sample requirements
func DefaultLimits() Limits {
	return Limits{MinWindowYears: 3.0, MinObservations: MinObservations}
}

// Analyzer evaluates realized beta against the declared risk intent
type Analyzer struct {
	catalog *Catalog
	limits  Limits
	log     zerolog.Logger
}

// NewAnalyzer creates an intent analyzer
func NewAnalyzer(catalog *Catalog, limits Limits, log zerolog.Logger) *Analyzer {
	return &Analyzer{
		catalog: catalog,
		limits:  limits,
		log:     log.With().Str("component", "intent_analyzer").Logger(),
	}
}

// Catalog returns the catalog the analyzer reads specs from
func (a *Analyzer) Catalog() *Catalog {
	return a.catalog
}

// Limits returns the sample requirements
func (a *Analyzer) Limits() Limits {
	return a.limits
}

// Evaluate judges the beta estimate against the spec of the given level.
// The drawdown attribution is optional and only feeds the confidence score.
func (a *Analyzer) Evaluate(est domain.BetaEstimate, level domain.RiskIntentLevel, dd *domain.DrawdownAttribution) (domain.IntentGateCheck, error) {
	spec, err := a.catalog.Lookup(level)
	if err != nil {
		return domain.IntentGateCheck{}, err
	}

	check := EvaluateIntent(est, spec, a.limits, dd)
	check.Actions = a.actions(check)

	a.log.Debug().
		Str("intent", string(level)).
		Float64("beta", est.Beta).
		Float64("window_years", est.WindowYears).
		Str("verdict", string(check.Verdict)).
		Float64("confidence", check.ConfidenceScore).
		Msg("Intent evaluated")

	return check, nil
}

// EvaluateIntent is the pure intent rule set
func EvaluateIntent(est domain.BetaEstimate, spec domain.RiskIntentSpec, limits Limits, dd *domain.DrawdownAttribution) domain.IntentGateCheck {
	check := domain.IntentGateCheck{
		PortfolioBeta:   est.Beta,
		IntentSpec:      spec,
		BetaWindowYears: est.WindowYears,
		Observations:    est.Observations,
		BetaState:       est.State,
		Drawdown:        dd,
	}
	if check.BetaState == "" {
		check.BetaState = domain.BetaUnknown
	}

	r := spec.BetaRange
	switch {
	case !isFinite(est.Beta):
		check.Verdict = domain.GateStatusInconclusive
		check.Message = fmt.Sprintf("Beta %v is not a number; intent cannot be judged", est.Beta)
	case est.WindowYears < limits.MinWindowYears || est.Observations < limits.MinObservations:
		check.Verdict = domain.GateStatusInconclusive
		check.Message = fmt.Sprintf("Beta window %.1fy (%d observations) below the %.1fy / %d minimum; intent cannot be judged",
			est.WindowYears, est.Observations, limits.MinWindowYears, limits.MinObservations)
	case r.Contains(est.Beta):
		check.Verdict = domain.GateStatusPass
		check.Message = fmt.Sprintf("Beta %.2f within [%.2f, %.2f] for %s over %.1f years",
			est.Beta, r.Lo, r.Hi, spec.Level, est.WindowYears)
	case est.Beta < spec.BetaFailThreshold:
		check.Verdict = domain.GateStatusFail
		check.Message = fmt.Sprintf("Beta %.2f below fail threshold %.2f for %s over %.1f years; the intent does not describe this portfolio",
			est.Beta, spec.BetaFailThreshold, spec.Level, est.WindowYears)
	case est.Beta < r.Lo:
		check.Verdict = domain.GateStatusWarn
		check.Message = fmt.Sprintf("Beta %.2f below the %s range floor %.2f", est.Beta, spec.Level, r.Lo)
	default:
		check.Verdict = domain.GateStatusWarn
		check.Message = fmt.Sprintf("Beta %.2f above the %s range ceiling %.2f", est.Beta, spec.Level, r.Hi)
	}

	check.IsValid = check.Verdict != domain.GateStatusInconclusive
	check.ConfidenceScore = Confidence(est, spec, dd)
	check.ConfidenceLabel = ConfidenceLabel(check.ConfidenceScore)
	return check
}

// Confidence scores how much the intent verdict can be trusted, 0..100
func Confidence(est domain.BetaEstimate, spec domain.RiskIntentSpec, dd *domain.DrawdownAttribution) float64 {
	sample := math.Min(1, est.WindowYears/10)

	var stability float64
	switch est.State {
	case domain.BetaStable:
		stability = 1.0
	case domain.BetaDrifting:
		stability = 0.6
	case domain.BetaUnstable:
		stability = 0.2
	default:
		stability = 0.4
	}

	margin := 0.0
	if w := spec.BetaRange.Width(); w > 0 && isFinite(est.Beta) {
		nearest := math.Inf(1)
		for _, t := range []float64{spec.BetaFailThreshold, spec.BetaRange.Lo, spec.BetaRange.Hi} {
			nearest = math.Min(nearest, math.Abs(est.Beta-t))
		}
		margin = math.Min(1, nearest/w)
	}

	consistency := 0.6
	if dd != nil {
		switch dd.Kind {
		case domain.DrawdownRegimeDriven:
			consistency = 1.0
		case domain.DrawdownPartiallyStructural:
			consistency = 0.6
		default:
			consistency = 0.3
		}
	}

	score := (0.30*sample + 0.30*stability + 0.20*margin + 0.20*consistency) * 100
	return math.Round(score*10) / 10
}

// ConfidenceLabel buckets a confidence score
func ConfidenceLabel(score float64) string {
	switch {
	case score >= 80:
		return "HIGH"
	case score >= 60:
		return "MEDIUM"
	case score >= 40:
		return "LOW"
	default:
		return "INSUFFICIENT"
	}
}

func (a *Analyzer) actions(check domain.IntentGateCheck) []domain.PrescriptiveAction {
	spec := check.IntentSpec
	beta := check.PortfolioBeta

	switch {
	case check.Verdict == domain.GateStatusInconclusive && !isFinite(beta):
		return []domain.PrescriptiveAction{{
			IssueCode:   "BETA_ESTIMATE_INVALID",
			Priority:    domain.PriorityHigh,
			Confidence:  1.0,
			Description: fmt.Sprintf("Beta estimate %v is not finite", beta),
			Actions: []string{
				"Recompute beta from aligned, gap-free return series",
				"Check the benchmark series for missing or zero-variance data",
			},
			Blockers: []string{"Intent verdict (INCONCLUSIVE)", "Structural recommendations"},
		}}

	case check.Verdict == domain.GateStatusInconclusive:
		return []domain.PrescriptiveAction{{
			IssueCode:   "BETA_WINDOW_INSUFFICIENT",
			Priority:    domain.PriorityHigh,
			Confidence:  1.0,
			Description: fmt.Sprintf("Beta window %.1fy < %.0fy required", check.BetaWindowYears, a.limits.MinWindowYears),
			Actions: []string{
				"Wait for more historical data to accumulate",
				"Use longer backtest period if available",
				"Consider using proxy benchmark for intent validation",
			},
			Blockers: []string{"Intent verdict (INCONCLUSIVE)", "Structural recommendations"},
		}}

	case check.Verdict == domain.GateStatusFail:
		recommended := a.catalog.Recommend(beta)
		return []domain.PrescriptiveAction{{
			IssueCode:   "INTENT_MISMATCH_HARD",
			Priority:    domain.PriorityCritical,
			Confidence:  0.95,
			Description: fmt.Sprintf("Portfolio beta %.2f is incompatible with %s (requires >= %.2f)", beta, spec.Level, spec.MinBetaAcceptable),
			Actions: []string{
				fmt.Sprintf("Change risk intent to %s (matches beta %.2f)", recommended, beta),
				fmt.Sprintf("Increase beta by %.2f by reducing low-beta positions", spec.MinBetaAcceptable-beta),
				fmt.Sprintf("If the defensive tilt is intentional, relabel as %s", Next(recommended)),
			},
			Blockers: []string{"All structural analysis", "Benchmark comparisons", "Diversification recommendations"},
		}}

	case check.Verdict == domain.GateStatusWarn && beta < spec.BetaRange.Lo:
		var acts []string
		if recommended := a.catalog.Recommend(beta); recommended != spec.Level {
			acts = append(acts, fmt.Sprintf("Downgrade risk intent to %s (better fit)", recommended))
		}
		acts = append(acts,
			fmt.Sprintf("Increase beta by %.2f by reducing defensive positions", spec.BetaRange.Lo-beta),
			"Accept current structure as a controlled-growth portfolio",
		)
		return []domain.PrescriptiveAction{{
			IssueCode:   "INTENT_MISMATCH_SOFT",
			Priority:    domain.PriorityMedium,
			Confidence:  0.85,
			Description: fmt.Sprintf("Portfolio beta %.2f below range floor %.2f for %s", beta, spec.BetaRange.Lo, spec.Level),
			Actions:     acts,
			Blockers:    []string{"Structural fragile verdict"},
		}}

	case check.Verdict == domain.GateStatusWarn:
		var acts []string
		if recommended := a.catalog.Recommend(beta); recommended != spec.Level {
			acts = append(acts, fmt.Sprintf("Upgrade risk intent to %s (better fit)", recommended))
		}
		acts = append(acts, fmt.Sprintf("Reduce beta by %.2f by adding defensive positions", beta-spec.BetaRange.Hi))
		return []domain.PrescriptiveAction{{
			IssueCode:   "INTENT_MISMATCH_SOFT",
			Priority:    domain.PriorityMedium,
			Confidence:  0.85,
			Description: fmt.Sprintf("Portfolio beta %.2f above range ceiling %.2f for %s", beta, spec.BetaRange.Hi, spec.Level),
			Actions:     acts,
		}}
	}
	return nil
}
