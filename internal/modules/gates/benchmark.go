package gates

import (
	"fmt"

	"github.com/aristath/gatekeeper/internal/domain"
	"github.com/aristath/gatekeeper/internal/modules/classification"
)

// Comparability decides whether a benchmark is a like-for-like comparison
// for the composition or only an opportunity-cost reference
func Comparability(comp classification.Composition, th Thresholds) (domain.BenchmarkCategory, string) {
	switch {
	case comp.Equity < th.SameCategoryMinEquity:
		return domain.BenchmarkOpportunityCost, fmt.Sprintf("equity %.0f%% < %.0f%%", comp.Equity*100, th.SameCategoryMinEquity*100)
	case comp.Defensive() >= th.SameCategoryMaxDefensive:
		return domain.BenchmarkOpportunityCost, fmt.Sprintf("defensive %.0f%% >= %.0f%%", comp.Defensive()*100, th.SameCategoryMaxDefensive*100)
	case comp.Satellite >= th.SameCategoryMaxSectorTilt:
		return domain.BenchmarkOpportunityCost, fmt.Sprintf("sector/thematic tilt %.0f%% >= %.0f%%", comp.Satellite*100, th.SameCategoryMaxSectorTilt*100)
	case comp.Unclassified > th.SameCategoryMaxUnclassified:
		return domain.BenchmarkOpportunityCost, fmt.Sprintf("unclassified %.0f%% > %.0f%%", comp.Unclassified*100, th.SameCategoryMaxUnclassified*100)
	}
	return domain.BenchmarkSameCategory, "pure equity core without defensive assets or sector tilts"
}

// EvaluateBenchmark compares the portfolio against its reference benchmark.
// A nil comparison yields NOT_APPLICABLE.
func EvaluateBenchmark(cmp *domain.BenchmarkComparison, comp classification.Composition, th Thresholds) (*domain.BenchmarkComparison, domain.GateReport) {
	report := domain.GateReport{Gate: domain.GateBenchmark}
	if cmp == nil {
		report.Status = domain.GateStatusNotApplicable
		report.Message = "No benchmark comparison supplied"
		return nil, report
	}

	out := *cmp
	category, reason := Comparability(comp, th)
	out.Category = category
	report.Details = map[string]interface{}{
		"benchmark":         out.BenchmarkName,
		"category":          string(category),
		"category_reason":   reason,
		"excess_return":     out.ExcessReturn,
		"information_ratio": out.InformationRatio,
		"tracking_error":    out.TrackingError,
	}

	switch {
	case category == domain.BenchmarkOpportunityCost:
		out.Verdict = domain.GateStatusPass
		out.Note = fmt.Sprintf("%s is an opportunity-cost reference only (%s)", out.BenchmarkName, reason)
		report.Message = out.Note
	case out.ExcessReturn < th.UnderperformExcess && out.InformationRatio < th.UnderperformIR:
		out.Verdict = domain.GateStatusWarn
		report.Message = fmt.Sprintf("Underperforms same-category %s: excess %.1f%%, IR %.2f",
			out.BenchmarkName, out.ExcessReturn*100, out.InformationRatio)
		report.Evidence = []string{report.Message}
	default:
		out.Verdict = domain.GateStatusPass
		report.Message = fmt.Sprintf("In line with same-category %s: excess %.1f%%, IR %.2f",
			out.BenchmarkName, out.ExcessReturn*100, out.InformationRatio)
	}
	report.Status = out.Verdict
	return &out, report
}
