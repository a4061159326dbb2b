package gates

import (
	"math"

	"github.com/aristath/gatekeeper/internal/domain"
)

// ClassifyCCR grades each position's risk leverage (CCR% / weight).
// Only FULL-quality WARNING or CRITICAL entries are actionable.
func ClassifyCCR(risk []domain.ComponentRisk, dq domain.DataQuality, th Thresholds) []domain.CCRClassification {
	if len(risk) == 0 {
		return nil
	}

	quality := domain.CCRDataFull
	switch {
	case dq.NaNRatio > domain.NaNFailThreshold:
		quality = domain.CCRDataPartial
	case len(risk) < th.CCRMinPositions:
		quality = domain.CCRDataSampleTooSmall
	}

	out := make([]domain.CCRClassification, 0, len(risk))
	for _, rc := range risk {
		if rc.Weight == 0 || math.IsNaN(rc.ComponentContributionPct) {
			continue
		}
		leverage := rc.RiskLeverage()

		level := domain.CCRNormal
		switch {
		case leverage > th.CCRCriticalLeverage:
			level = domain.CCRCritical
		case leverage > th.CCRWarningLeverage:
			level = domain.CCRWarning
		}

		out = append(out, domain.CCRClassification{
			Ticker:       rc.Ticker,
			Weight:       rc.Weight,
			CCRPct:       rc.ComponentContributionPct,
			Leverage:     leverage,
			Level:        level,
			DataQuality:  quality,
			IsActionable: quality == domain.CCRDataFull && level != domain.CCRNormal,
		})
	}
	return out
}

func countActionable(ccr []domain.CCRClassification) int {
	n := 0
	for _, c := range ccr {
		if c.IsActionable {
			n++
		}
	}
	return n
}
