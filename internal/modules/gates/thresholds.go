package gates

// Thresholds are the gate-level policy parameters
type Thresholds struct {
	MinOverlappingDays int `yaml:"min_overlapping_days"`

	SingleDriverMax float64  `yaml:"single_driver_max"`
	CausalKeywords  []string `yaml:"causal_keywords"`

	CCRWarningLeverage  float64 `yaml:"ccr_warning_leverage"`
	CCRCriticalLeverage float64 `yaml:"ccr_critical_leverage"`
	CCRMinPositions     int     `yaml:"ccr_min_positions"`
	CCRActionableWarn   int     `yaml:"ccr_actionable_warn"`

	SameCategoryMinEquity       float64 `yaml:"same_category_min_equity"`
	SameCategoryMaxDefensive    float64 `yaml:"same_category_max_defensive"`
	SameCategoryMaxSectorTilt   float64 `yaml:"same_category_max_sector_tilt"`
	SameCategoryMaxUnclassified float64 `yaml:"same_category_max_unclassified"`
	UnderperformExcess          float64 `yaml:"underperform_excess"`
	UnderperformIR              float64 `yaml:"underperform_ir"`

	WarnPenalty float64 `yaml:"warn_penalty"`
}

// DefaultThresholds returns the production gate parameters
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinOverlappingDays: 60,
		SingleDriverMax:    0.60,
		CausalKeywords: []string{
			"single-driver",
			"hidden leverage",
			"correlation collapse",
			"liquidity trap",
			"constraint violated",
			"structural instability",
			"derivative exposure",
			"leverage ratio",
		},
		CCRWarningLeverage:          1.5,
		CCRCriticalLeverage:         2.5,
		CCRMinPositions:             5,
		CCRActionableWarn:           2,
		SameCategoryMinEquity:       0.95,
		SameCategoryMaxDefensive:    0.05,
		SameCategoryMaxSectorTilt:   0.10,
		SameCategoryMaxUnclassified: 0.20,
		UnderperformExcess:          -0.02,
		UnderperformIR:              -0.3,
		WarnPenalty:                 15,
	}
}
