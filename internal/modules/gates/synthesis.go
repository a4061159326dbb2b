package gates

import (
	"math"

	"github.com/aristath/gatekeeper/internal/domain"
)

// SynthesisInput is the per-gate outcome the final verdict is derived from
type SynthesisInput struct {
	Data                 domain.GateStatus
	Intent               domain.GateStatus
	Structural           domain.GateStatus
	Benchmark            domain.GateStatus
	IntentConfidence     float64
	StructuralConfidence float64
}

// Verdict is the synthesized outcome of a run
type Verdict struct {
	Type                domain.FinalVerdictType
	Confidence          float64
	Message             string
	WhyNotContradictory string
}

// Synthesize applies the verdict precedence. Earlier rules win.
func Synthesize(in SynthesisInput, warnPenalty float64) Verdict {
	dataInconclusive := in.Data == domain.GateStatusInconclusive

	var t domain.FinalVerdictType
	switch {
	case dataInconclusive && in.Intent == domain.GateStatusFail:
		t = domain.VerdictInconclusiveIntentFailStruct
	case dataInconclusive || in.Structural == domain.GateStatusInconclusive:
		t = domain.VerdictInconclusiveDataFail
	case in.Intent == domain.GateStatusInconclusive:
		t = domain.VerdictInconclusiveIntentData
	case in.Structural == domain.GateStatusFail:
		t = domain.VerdictStructurallyFragile
	case in.Intent == domain.GateStatusFail:
		t = domain.VerdictIntentMisalignedStructureOK
	default:
		t = domain.VerdictCoherentIntentMatch
	}

	v := Verdict{Type: t}
	v.Message, v.WhyNotContradictory = verdictText(t)

	switch t {
	case domain.VerdictCoherentIntentMatch:
		warns := 0
		for _, s := range []domain.GateStatus{in.Data, in.Intent, in.Structural, in.Benchmark} {
			if s == domain.GateStatusWarn {
				warns++
			}
		}
		v.Confidence = math.Min(math.Max(0, 100-warnPenalty*float64(warns)), in.IntentConfidence)
	case domain.VerdictStructurallyFragile:
		v.Confidence = in.StructuralConfidence * 100
	case domain.VerdictIntentMisalignedStructureOK:
		v.Confidence = in.IntentConfidence
	}
	return v
}

// TerminalState maps a verdict to the sequencer's terminal state
func TerminalState(t domain.FinalVerdictType) domain.SequencerState {
	switch {
	case t.IsInconclusive():
		return domain.StateBlockedInconclusive
	case t == domain.VerdictCoherentIntentMatch:
		return domain.StateApproved
	default:
		return domain.StateReviewNeeded
	}
}

func verdictText(t domain.FinalVerdictType) (string, string) {
	switch t {
	case domain.VerdictCoherentIntentMatch:
		return "Structurally coherent: structure and intent aligned",
			"All gates passed: data integrity holds, realized beta matches the declared intent and no causal structural problem was found. " +
				"CCR warnings, if present, are diagnostic and not terminal."
	case domain.VerdictStructurallyFragile:
		return "Structurally fragile: causal structural problem proven",
			"Fragile is allowed because data integrity holds and a demonstrable cause of instability was found " +
				"(single-driver dependency, hidden leverage, correlation collapse, liquidity trap or a violated constraint). " +
				"Concentration alone never produces this verdict."
	case domain.VerdictIntentMisalignedStructureOK:
		return "Intent misaligned: structure OK",
			"This is not a structural problem. The portfolio is structurally coherent but the declared risk intent " +
				"does not match its realized beta. Change the risk intent, or raise beta deliberately if the intent stands."
	case domain.VerdictInconclusiveDataFail:
		return "Inconclusive: data integrity failed",
			"Correlation data is too incomplete or too short to judge structure. " +
				"No diversification or restructuring verdict is possible until the data improves."
	case domain.VerdictInconclusiveIntentData:
		return "Inconclusive: beta window too short",
			"The beta sample is below the minimum window, so intent cannot be judged either way. " +
				"Structure may be sound but intent-based recommendations are blocked."
	case domain.VerdictInconclusiveIntentFailStruct:
		return "Intent mismatch certain, structure inconclusive",
			"The intent failure is certain on a sufficient beta window, but structure cannot be verified with the available data. " +
				"The intent may be corrected; structural changes are blocked."
	}
	return string(t), ""
}
