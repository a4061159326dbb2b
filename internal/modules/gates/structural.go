package gates

import (
	"fmt"
	"math"
	"strings"

	"github.com/aristath/gatekeeper/internal/domain"
	"github.com/aristath/gatekeeper/internal/modules/classification"
)

// StructuralInput is what the structural gate looks at
type StructuralInput struct {
	Composition       classification.Composition
	Classification    domain.Classification
	Soft              domain.SoftClassification
	SurfaceSoft       bool
	RiskContributions []domain.ComponentRisk
	Issues            []string
	DataQuality       domain.DataQuality
	DataInconclusive  bool
}

// EvaluateStructural judges the portfolio structure. Fragility needs a causal
// cause; concentration alone only warns.
func EvaluateStructural(in StructuralInput, table classification.ThresholdTable, th Thresholds) (domain.StructuralGateCheck, domain.GateReport) {
	comp := in.Composition
	check := domain.StructuralGateCheck{
		StructureType:      in.Classification.Type,
		Confidence:         structuralConfidence(in.Soft, in.Classification.Type),
		DecisionPath:       in.Classification.DecisionPath,
		MaxPosition:        comp.MaxPosition,
		Top3Concentration:  comp.Top3,
		HHI:                comp.HHI,
		EffectivePositions: comp.EffectivePositions(),
		CCR:                ClassifyCCR(in.RiskContributions, in.DataQuality, th),
	}
	if in.SurfaceSoft {
		soft := in.Soft
		check.Soft = &soft
	}

	check.FragilityCauses = causalFragility(in.Issues, comp, th)
	check.Warnings = table.Breaches(check.StructureType, comp)
	if n := countActionable(check.CCR); n >= th.CCRActionableWarn {
		check.Warnings = append(check.Warnings, fmt.Sprintf("%d positions carry actionable CCR leverage", n))
	}

	report := domain.GateReport{
		Gate: domain.GateStructural,
		Details: map[string]interface{}{
			"structure_type":      string(check.StructureType),
			"matched_rule":        in.Classification.MatchedRule().Rule,
			"confidence":          check.Confidence,
			"max_position":        check.MaxPosition,
			"top3_concentration":  check.Top3Concentration,
			"hhi":                 check.HHI,
			"effective_positions": check.EffectivePositions,
		},
	}

	switch {
	case in.DataInconclusive:
		check.Verdict = domain.GateStatusInconclusive
		report.Message = fmt.Sprintf("Structure %s reported but unverifiable: data integrity is inconclusive", check.StructureType)
		report.Evidence = append(report.Evidence, "data integrity gate is INCONCLUSIVE")
	case len(check.FragilityCauses) > 0:
		check.Verdict = domain.GateStatusFail
		report.Message = fmt.Sprintf("Structure %s is fragile: %s", check.StructureType, strings.Join(check.FragilityCauses, "; "))
		report.Evidence = append(report.Evidence, check.FragilityCauses...)
	case len(check.Warnings) > 0:
		check.Verdict = domain.GateStatusWarn
		report.Message = fmt.Sprintf("Structure %s exceeds %d limit(s)", check.StructureType, len(check.Warnings))
		report.Evidence = append(report.Evidence, check.Warnings...)
	default:
		check.Verdict = domain.GateStatusPass
		report.Message = fmt.Sprintf("Structure %s is coherent", check.StructureType)
	}
	report.Status = check.Verdict

	return check, report
}

// causalFragility lists proven causes of instability: a keyword-tagged
// structural issue or a single position above the single-driver limit
func causalFragility(issues []string, comp classification.Composition, th Thresholds) []string {
	var causes []string
	for _, issue := range issues {
		lower := strings.ToLower(issue)
		for _, kw := range th.CausalKeywords {
			if strings.Contains(lower, kw) {
				causes = append(causes, issue)
				break
			}
		}
	}
	if len(comp.Holdings) > 0 && comp.MaxPosition > th.SingleDriverMax {
		top := comp.Holdings[0]
		causes = append(causes, fmt.Sprintf("single-driver dependency: %s at %.0f%% > %.0f%%",
			top.Ticker, top.Weight*100, th.SingleDriverMax*100))
	}
	return causes
}

// structuralConfidence is high when the soft classifier agrees with the hard type
func structuralConfidence(soft domain.SoftClassification, hard domain.PortfolioStructureType) float64 {
	if soft.PrimaryType != hard {
		return 0.5
	}
	return math.Max(0.6, math.Min(1, soft.Confidence))
}
