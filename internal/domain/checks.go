package domain

// IntentGateCheck is the outcome of evaluating realized beta against a risk intent
type IntentGateCheck struct {
	PortfolioBeta   float64              `json:"portfolio_beta"`
	IntentSpec      RiskIntentSpec       `json:"intent_spec"`
	BetaWindowYears float64              `json:"beta_window_years"`
	Observations    int                  `json:"observations"`
	Verdict         GateStatus           `json:"verdict"`
	ConfidenceScore float64              `json:"confidence_score"`
	ConfidenceLabel string               `json:"confidence_label"`
	BetaState       BetaState            `json:"beta_state"`
	IsValid         bool                 `json:"is_valid"`
	Drawdown        *DrawdownAttribution `json:"drawdown,omitempty"`
	Message         string               `json:"message"`
	Actions         []PrescriptiveAction `json:"actions,omitempty"`
}

// RuleTrace records one evaluated classification rule
type RuleTrace struct {
	Rule    string                 `json:"rule"`
	Type    PortfolioStructureType `json:"type"`
	Matched bool                   `json:"matched"`
	Detail  string                 `json:"detail"`
}

// Classification is the hard classifier's single type and the path that selected it
type Classification struct {
	Type         PortfolioStructureType `json:"type"`
	DecisionPath []RuleTrace            `json:"decision_path"`
}

// MatchedRule returns the trace of the rule that selected the type
func (c Classification) MatchedRule() RuleTrace {
	for _, step := range c.DecisionPath {
		if step.Matched {
			return step
		}
	}
	return RuleTrace{}
}

// TypeCandidate is a scored structure type from the soft classifier
type TypeCandidate struct {
	Type       PortfolioStructureType `json:"type"`
	Score      float64                `json:"score"`
	Confidence float64                `json:"confidence"`
}

// SoftClassification is the advisory, confidence-weighted classification
type SoftClassification struct {
	CoreScore        float64                `json:"core_score"`
	TacticalScore    float64                `json:"tactical_score"`
	ConvictionScore  float64                `json:"conviction_score"`
	PrimaryType      PortfolioStructureType `json:"primary_type"`
	Confidence       float64                `json:"confidence"`
	AlternativeTypes []TypeCandidate        `json:"alternative_types"`
}

// StructuralGateCheck is the outcome of the structural gate
type StructuralGateCheck struct {
	StructureType      PortfolioStructureType `json:"structure_type"`
	Confidence         float64                `json:"confidence"`
	DecisionPath       []RuleTrace            `json:"decision_path"`
	MaxPosition        float64                `json:"max_position"`
	Top3Concentration  float64                `json:"top3_concentration"`
	HHI                float64                `json:"hhi"`
	EffectivePositions float64                `json:"effective_positions"`
	Verdict            GateStatus             `json:"verdict"`
	FragilityCauses    []string               `json:"fragility_causes,omitempty"`
	Warnings           []string               `json:"warnings,omitempty"`
	CCR                []CCRClassification    `json:"ccr,omitempty"`
	Soft               *SoftClassification    `json:"soft_classification,omitempty"`
}

// BenchmarkComparison is the portfolio measured against its reference benchmark
type BenchmarkComparison struct {
	BenchmarkName    string            `json:"benchmark_name" validate:"required"`
	Category         BenchmarkCategory `json:"category"`
	PortfolioCAGR    float64           `json:"portfolio_cagr"`
	BenchmarkCAGR    float64           `json:"benchmark_cagr"`
	PortfolioSharpe  float64           `json:"portfolio_sharpe"`
	BenchmarkSharpe  float64           `json:"benchmark_sharpe"`
	ExcessReturn     float64           `json:"excess_return"`
	TrackingError    float64           `json:"tracking_error"`
	InformationRatio float64           `json:"information_ratio"`
	Beta             float64           `json:"beta"`
	Alpha            float64           `json:"alpha"`
	Verdict          GateStatus        `json:"verdict"`
	Note             string            `json:"note,omitempty"`
}

// GateReport is the uniform per-gate report kept on the GateResult
type GateReport struct {
	Gate     GateName               `json:"gate"`
	Status   GateStatus             `json:"status"`
	Message  string                 `json:"message"`
	Evidence []string               `json:"evidence,omitempty"`
	Details  map[string]interface{} `json:"details,omitempty"`
}
