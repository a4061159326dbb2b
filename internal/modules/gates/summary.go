package gates

import (
	"math"

	"github.com/aristath/gatekeeper/internal/domain"
)

// GateSummary is the outbound view of one gate
type GateSummary struct {
	Status  domain.GateStatus `json:"status"`
	Message string            `json:"message"`
}

// StructuralSummary is the outbound view of the structural gate
type StructuralSummary struct {
	Status             domain.GateStatus             `json:"status"`
	StructureType      domain.PortfolioStructureType `json:"structure_type"`
	Confidence         float64                       `json:"confidence"`
	MaxPosition        float64                       `json:"max_position"`
	Top3Concentration  float64                       `json:"top3_concentration"`
	HHI                float64                       `json:"hhi"`
	EffectivePositions float64                       `json:"effective_positions"`
	FragilityCauses    []string                      `json:"fragility_causes,omitempty"`
	Warnings           []string                      `json:"warnings,omitempty"`
}

// VerdictValue is the final verdict with its confidence
type VerdictValue struct {
	Value      domain.FinalVerdictType `json:"value"`
	Confidence float64                 `json:"confidence"`
}

// Summary is the outbound shape of a gate run
type Summary struct {
	DataIntegrityGate     GateSummary                 `json:"data_integrity_gate"`
	IntentGate            GateSummary                 `json:"intent_gate"`
	StructuralGate        StructuralSummary           `json:"structural_gate"`
	BenchmarkGate         GateSummary                 `json:"benchmark_gate"`
	FinalVerdict          VerdictValue                `json:"final_verdict"`
	VerdictMessage        string                      `json:"verdict_message"`
	WhyNotContradictory   string                      `json:"why_not_contradictory"`
	AllowsPortfolioAction bool                        `json:"allows_portfolio_action"`
	OverrideApplied       bool                        `json:"override_applied"`
	QualityScore          int                         `json:"quality_score"`
	Actions               []domain.PrescriptiveAction `json:"actions,omitempty"`

	result domain.GateResult
}

// NewSummary builds the outbound view. minWindowYears caps the quality score
// when the beta sample is short.
func NewSummary(r domain.GateResult, minWindowYears float64) Summary {
	gate := func(name domain.GateName) GateSummary {
		g, _ := r.Gate(name)
		return GateSummary{Status: g.Status, Message: g.Message}
	}
	s := r.Structural

	return Summary{
		DataIntegrityGate: gate(domain.GateDataIntegrity),
		IntentGate:        gate(domain.GateIntent),
		StructuralGate: StructuralSummary{
			Status:             s.Verdict,
			StructureType:      s.StructureType,
			Confidence:         s.Confidence,
			MaxPosition:        s.MaxPosition,
			Top3Concentration:  s.Top3Concentration,
			HHI:                s.HHI,
			EffectivePositions: s.EffectivePositions,
			FragilityCauses:    s.FragilityCauses,
			Warnings:           s.Warnings,
		},
		BenchmarkGate:         gate(domain.GateBenchmark),
		FinalVerdict:          VerdictValue{Value: r.FinalVerdict, Confidence: r.VerdictConfidence},
		VerdictMessage:        r.VerdictMessage,
		WhyNotContradictory:   r.WhyNotContradictory,
		AllowsPortfolioAction: r.AllowsPortfolioAction(),
		OverrideApplied:       r.OverrideApplied,
		QualityScore:          QualityScore(r.DataQuality, r.Intent.BetaWindowYears, minWindowYears),
		Actions:               r.Actions,
		result:                r,
	}
}

// QualityScore is round(100*(1-nan)) capped by how much of the minimum beta window is covered
func QualityScore(dq domain.DataQuality, windowYears, minWindowYears float64) int {
	score := 100 * (1 - dq.NaNRatio)
	if minWindowYears > 0 {
		score = math.Min(score, 100*math.Min(1, windowYears/minWindowYears))
	}
	return int(math.Round(math.Max(0, score)))
}

// Document returns the persisted JSON shape. The engine fills verdict,
// portfolio, metrics and quality; serialization is left to the caller.
func (s Summary) Document() map[string]interface{} {
	r := s.result
	verdict := map[string]interface{}{
		"final_verdict":           string(s.FinalVerdict.Value),
		"confidence":              s.FinalVerdict.Confidence,
		"message":                 s.VerdictMessage,
		"why_not_contradictory":   s.WhyNotContradictory,
		"allows_portfolio_action": s.AllowsPortfolioAction,
		"override_applied":        s.OverrideApplied,
		"state":                   string(r.State),
	}
	if r.Override != nil {
		verdict["override"] = map[string]interface{}{
			"audit_id":      r.Override.AuditID,
			"authorized_by": r.Override.AuthorizedBy,
			"reason":        r.Override.Reason,
		}
	}

	return map[string]interface{}{
		"verdict": verdict,
		"portfolio": map[string]interface{}{
			"risk_intent":    string(r.RiskIntent),
			"structure_type": string(s.StructuralGate.StructureType),
		},
		"metrics": map[string]interface{}{
			"beta":                r.Intent.PortfolioBeta,
			"beta_window_years":   r.Intent.BetaWindowYears,
			"max_position":        s.StructuralGate.MaxPosition,
			"top3_concentration":  s.StructuralGate.Top3Concentration,
			"hhi":                 s.StructuralGate.HHI,
			"effective_positions": s.StructuralGate.EffectivePositions,
		},
		"quality": map[string]interface{}{
			"score":            s.QualityScore,
			"nan_ratio":        r.DataQuality.NaNRatio,
			"overlapping_days": r.DataQuality.OverlappingDays,
		},
	}
}
