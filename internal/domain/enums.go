// Package domain holds the value types shared by the gate engine: enums,
// validated records and the GateResult aggregate.
package domain

import (
	"fmt"
	"strings"
)

// RiskIntentLevel is the declared target risk posture
type RiskIntentLevel string

const (
	RiskIntentConservative RiskIntentLevel = "CONSERVATIVE"
	RiskIntentModerate     RiskIntentLevel = "MODERATE"
	RiskIntentGrowth       RiskIntentLevel = "GROWTH"
	RiskIntentAggressive   RiskIntentLevel = "AGGRESSIVE"
)

// RiskIntentLevels lists every level from least to most aggressive
var RiskIntentLevels = []RiskIntentLevel{
	RiskIntentConservative,
	RiskIntentModerate,
	RiskIntentGrowth,
	RiskIntentAggressive,
}

// Valid reports whether the level belongs to the closed set
func (l RiskIntentLevel) Valid() bool {
	for _, known := range RiskIntentLevels {
		if l == known {
			return true
		}
	}
	return false
}

// ParseRiskIntentLevel parses a level name case-insensitively
func ParseRiskIntentLevel(s string) (RiskIntentLevel, error) {
	level := RiskIntentLevel(strings.ToUpper(strings.TrimSpace(s)))
	if !level.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRiskIntent, s)
	}
	return level, nil
}

// PortfolioStructureType is one of the ten mutually exclusive structural types
type PortfolioStructureType string

const (
	StructureIncomeYield             PortfolioStructureType = "INCOME_YIELD"
	StructureDefensive               PortfolioStructureType = "DEFENSIVE"
	StructureBalanced                PortfolioStructureType = "BALANCED"
	StructureRiskParity              PortfolioStructureType = "RISK_PARITY"
	StructureEquityMultiBlock        PortfolioStructureType = "EQUITY_MULTI_BLOCK"
	StructureEquityCoreDriven        PortfolioStructureType = "EQUITY_CORE_DRIVEN"
	StructureBarbellThematic         PortfolioStructureType = "BARBELL_THEMATIC"
	StructureEquityGrowthCore        PortfolioStructureType = "EQUITY_GROWTH_CORE"
	StructureEquityGrowthDiversified PortfolioStructureType = "EQUITY_GROWTH_DIVERSIFIED"
	StructureTactical                PortfolioStructureType = "TACTICAL"
)

// StructureTypes lists the types in classifier priority order
var StructureTypes = []PortfolioStructureType{
	StructureIncomeYield,
	StructureDefensive,
	StructureBalanced,
	StructureRiskParity,
	StructureEquityMultiBlock,
	StructureEquityCoreDriven,
	StructureBarbellThematic,
	StructureEquityGrowthCore,
	StructureEquityGrowthDiversified,
	StructureTactical,
}

// Valid reports whether the type belongs to the closed set
func (t PortfolioStructureType) Valid() bool {
	for _, known := range StructureTypes {
		if t == known {
			return true
		}
	}
	return false
}

// FinalVerdictType is the single synthesized verdict of a run
type FinalVerdictType string

const (
	VerdictCoherentIntentMatch          FinalVerdictType = "STRUCTURALLY_COHERENT_INTENT_MATCH"
	VerdictStructurallyFragile          FinalVerdictType = "STRUCTURALLY_FRAGILE"
	VerdictIntentMisalignedStructureOK  FinalVerdictType = "INTENT_MISALIGNED_STRUCTURE_OK"
	VerdictInconclusiveDataFail         FinalVerdictType = "INCONCLUSIVE_DATA_FAIL"
	VerdictInconclusiveIntentData       FinalVerdictType = "INCONCLUSIVE_INTENT_DATA"
	VerdictInconclusiveIntentFailStruct FinalVerdictType = "INCONCLUSIVE_INTENT_FAIL_STRUCTURE"
)

// FinalVerdictTypes lists every verdict
var FinalVerdictTypes = []FinalVerdictType{
	VerdictCoherentIntentMatch,
	VerdictStructurallyFragile,
	VerdictIntentMisalignedStructureOK,
	VerdictInconclusiveDataFail,
	VerdictInconclusiveIntentData,
	VerdictInconclusiveIntentFailStruct,
}

// Valid reports whether the verdict belongs to the closed set
func (v FinalVerdictType) Valid() bool {
	for _, known := range FinalVerdictTypes {
		if v == known {
			return true
		}
	}
	return false
}

// IsInconclusive reports whether the verdict belongs to the blocking family
func (v FinalVerdictType) IsInconclusive() bool {
	return strings.HasPrefix(string(v), "INCONCLUSIVE")
}

// GateStatus is the outcome of a single gate
type GateStatus string

const (
	GateStatusPass          GateStatus = "PASS"
	GateStatusWarn          GateStatus = "WARN"
	GateStatusFail          GateStatus = "FAIL"
	GateStatusInconclusive  GateStatus = "INCONCLUSIVE"
	GateStatusNotApplicable GateStatus = "NOT_APPLICABLE"
)

// GateName identifies a gate in the fixed evaluation order
type GateName string

const (
	GateDataIntegrity GateName = "DATA_INTEGRITY"
	GateIntent        GateName = "INTENT"
	GateStructural    GateName = "STRUCTURAL"
	GateBenchmark     GateName = "BENCHMARK"
)

// GateOrder is the strict priority order of evaluation
var GateOrder = []GateName{GateDataIntegrity, GateIntent, GateStructural, GateBenchmark}

// SequencerState is a state of the gate sequencer state machine
type SequencerState string

const (
	StatePending             SequencerState = "PENDING"
	StateDataIntegrityEval   SequencerState = "DATA_INTEGRITY_EVAL"
	StateIntentEval          SequencerState = "INTENT_EVAL"
	StateStructuralEval      SequencerState = "STRUCTURAL_EVAL"
	StateBenchmarkEval       SequencerState = "BENCHMARK_EVAL"
	StateVerdictSynthesized  SequencerState = "VERDICT_SYNTHESIZED"
	StateApproved            SequencerState = "APPROVED"
	StateReviewNeeded        SequencerState = "REVIEW_NEEDED"
	StateBlockedInconclusive SequencerState = "BLOCKED_INCONCLUSIVE"
)

// IsTerminal reports whether no further transition is possible
func (s SequencerState) IsTerminal() bool {
	return s == StateApproved || s == StateReviewNeeded || s == StateBlockedInconclusive
}

// BetaState summarizes how stable the rolling beta was over the window
type BetaState string

const (
	BetaStable   BetaState = "STABLE"
	BetaDrifting BetaState = "DRIFTING"
	BetaUnstable BetaState = "UNSTABLE"
	BetaUnknown  BetaState = "UNKNOWN"
)

// DrawdownKind classifies the excess drawdown over what beta explains
type DrawdownKind string

const (
	DrawdownRegimeDriven        DrawdownKind = "REGIME_DRIVEN"
	DrawdownPartiallyStructural DrawdownKind = "PARTIALLY_STRUCTURAL"
	DrawdownStructural          DrawdownKind = "STRUCTURAL_FRAGILITY"
	DrawdownIntentMismatch      DrawdownKind = "INTENT_MISMATCH"
)

// BenchmarkCategory states whether a benchmark is a like-for-like comparison
type BenchmarkCategory string

const (
	BenchmarkSameCategory    BenchmarkCategory = "SAME_CATEGORY"
	BenchmarkOpportunityCost BenchmarkCategory = "OPPORTUNITY_COST"
)

// ActionPriority orders prescriptive actions
type ActionPriority string

const (
	PriorityCritical ActionPriority = "CRITICAL"
	PriorityHigh     ActionPriority = "HIGH"
	PriorityMedium   ActionPriority = "MEDIUM"
	PriorityLow      ActionPriority = "LOW"
	PriorityInfo     ActionPriority = "INFO"
)

// CCRLevel classifies risk leverage of a single position
type CCRLevel string

const (
	CCRNormal   CCRLevel = "NORMAL"
	CCRWarning  CCRLevel = "WARNING"
	CCRCritical CCRLevel = "CRITICAL"
)

// CCRDataQuality states how far a CCR figure can be trusted
type CCRDataQuality string

const (
	CCRDataFull           CCRDataQuality = "FULL"
	CCRDataPartial        CCRDataQuality = "PARTIAL"
	CCRDataSampleTooSmall CCRDataQuality = "SAMPLE_TOO_SMALL"
)
