package gates

import (
	"fmt"

	"github.com/aristath/gatekeeper/internal/domain"
)

// Analyses that cannot be trusted once data integrity fails
var (
	correlationAnalyses = []string{"diversification_verdict", "correlation_stability", "correlation_mean_calculation"}
	sampleAnalyses      = []string{"beta_estimation", "correlation_estimation"}
)

// EvaluateDataIntegrity judges whether the upstream data supports any structural verdict
func EvaluateDataIntegrity(dq domain.DataQuality, th Thresholds) (domain.GateReport, []domain.PrescriptiveAction) {
	report := domain.GateReport{
		Gate: domain.GateDataIntegrity,
		Details: map[string]interface{}{
			"nan_ratio":        dq.NaNRatio,
			"nan_threshold":    domain.NaNFailThreshold,
			"overlapping_days": dq.OverlappingDays,
			"trading_days":     dq.TradingDays,
			"staggered_entry":  dq.StaggeredEntry,
		},
	}

	var blocked []string
	if !dq.IsPass() {
		blocked = append(blocked, correlationAnalyses...)
		if dq.NaNRatio > 0.50 {
			blocked = append(blocked, "ccr_severity_judgment")
		}
		report.Evidence = append(report.Evidence,
			fmt.Sprintf("correlation NaN ratio %.1f%% exceeds %.0f%%", dq.NaNRatio*100, domain.NaNFailThreshold*100))
	}
	if dq.OverlappingDays < th.MinOverlappingDays {
		blocked = append(blocked, sampleAnalyses...)
		report.Evidence = append(report.Evidence,
			fmt.Sprintf("%d overlapping trading days, need %d", dq.OverlappingDays, th.MinOverlappingDays))
	}
	report.Details["blocked_analyses"] = blocked

	switch {
	case len(blocked) > 0:
		report.Status = domain.GateStatusInconclusive
		report.Message = fmt.Sprintf("Data integrity failed (NaN %.0f%%, %d overlapping days); structure cannot be judged",
			dq.NaNRatio*100, dq.OverlappingDays)
		return report, []domain.PrescriptiveAction{{
			IssueCode:   "DATA_INTEGRITY_FAIL",
			Priority:    domain.PriorityCritical,
			Confidence:  1.0,
			Description: report.Message,
			Actions:     append([]string(nil), allowedActions[KindDataIntegrity]...),
			Blockers:    append([]string(nil), prohibitedActions[KindDataIntegrity]...),
		}}
	case dq.IsWarning():
		report.Status = domain.GateStatusWarn
		report.Message = fmt.Sprintf("Data integrity degraded: NaN %.0f%% above the %.0f%% warning level",
			dq.NaNRatio*100, domain.NaNWarningThreshold*100)
		report.Evidence = append(report.Evidence, report.Message)
	default:
		report.Status = domain.GateStatusPass
		report.Message = fmt.Sprintf("Data integrity OK: NaN %.0f%% <= %.0f%%", dq.NaNRatio*100, domain.NaNFailThreshold*100)
	}
	return report, nil
}
