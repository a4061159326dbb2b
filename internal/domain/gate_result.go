package domain

import "time"

// GateResult aggregates every gate outcome of one run and the synthesized verdict.
// It is built once by the sequencer and never mutated afterwards; WithOverride
// returns a new value.
type GateResult struct {
	EvaluatedAt         time.Time            `json:"evaluated_at"`
	RiskIntent          RiskIntentLevel      `json:"risk_intent"`
	DataQuality         DataQuality          `json:"data_quality"`
	Gates               []GateReport         `json:"gates"`
	Intent              IntentGateCheck      `json:"intent_gate"`
	Structural          StructuralGateCheck  `json:"structural_gate"`
	Benchmark           *BenchmarkComparison `json:"benchmark,omitempty"`
	FinalVerdict        FinalVerdictType     `json:"final_verdict"`
	VerdictConfidence   float64              `json:"verdict_confidence"`
	VerdictMessage      string               `json:"verdict_message"`
	WhyNotContradictory string               `json:"why_not_contradictory"`
	IsIntentMisaligned  bool                 `json:"is_intent_misaligned"`
	IsInconclusive      bool                 `json:"is_inconclusive"`
	State               SequencerState       `json:"state"`
	Transitions         []SequencerState     `json:"transitions"`
	Actions             []PrescriptiveAction `json:"actions,omitempty"`
	OverrideApplied     bool                 `json:"override_applied"`
	Override            *OverrideMetadata    `json:"override,omitempty"`
}

// AllowsPortfolioAction reports whether downstream recommendations may proceed
func (r GateResult) AllowsPortfolioAction() bool {
	return !r.IsInconclusive || r.OverrideApplied
}

// Gate returns the report for the named gate
func (r GateResult) Gate(name GateName) (GateReport, bool) {
	for _, g := range r.Gates {
		if g.Gate == name {
			return g, true
		}
	}
	return GateReport{}, false
}

// GatesWithStatus lists the gates that ended in the given status, in evaluation order
func (r GateResult) GatesWithStatus(status GateStatus) []GateName {
	var names []GateName
	for _, g := range r.Gates {
		if g.Status == status {
			names = append(names, g.Gate)
		}
	}
	return names
}

// WithOverride returns a copy of the result carrying the applied override
func (r GateResult) WithOverride(meta OverrideMetadata) GateResult {
	out := r
	out.Gates = append([]GateReport(nil), r.Gates...)
	out.Transitions = append([]SequencerState(nil), r.Transitions...)
	out.Actions = append([]PrescriptiveAction(nil), r.Actions...)
	out.OverrideApplied = true
	m := meta
	out.Override = &m
	return out
}

// UserAcknowledgment is a caller-supplied override of a blocking verdict
type UserAcknowledgment struct {
	VerdictType  FinalVerdictType `json:"verdict_type" validate:"required"`
	AuthorizedBy string           `json:"authorized_by" validate:"required"`
	Reason       string           `json:"reason" validate:"required,min=10"`
	Date         time.Time        `json:"date" validate:"required"`
	ExpiryDate   *time.Time       `json:"expiry_date"`
}

// OverrideMetadata is attached to a GateResult once an override is accepted
type OverrideMetadata struct {
	AuditID      string           `json:"audit_id"`
	AuthorizedBy string           `json:"authorized_by"`
	Reason       string           `json:"reason"`
	VerdictType  FinalVerdictType `json:"verdict_type"`
	Date         time.Time        `json:"date"`
	ExpiryDate   *time.Time       `json:"expiry_date,omitempty"`
	AppliedAt    time.Time        `json:"applied_at"`
}
