package gates

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aristath/gatekeeper/internal/domain"
)

// ErrInconclusive matches every *InconclusiveError via errors.Is
var ErrInconclusive = errors.New("inconclusive verdict")

// InconclusiveKind names why a run was blocked
type InconclusiveKind string

const (
	KindDataIntegrity                   InconclusiveKind = "DATA_INTEGRITY_FAIL"
	KindBetaWindow                      InconclusiveKind = "BETA_WINDOW_INSUFFICIENT"
	KindIntentFailStructureInconclusive InconclusiveKind = "INTENT_FAIL_STRUCTURE_INCONCLUSIVE"
)

var allowedActions = map[InconclusiveKind][]string{
	KindDataIntegrity: {
		"Collect more historical data",
		"Use proxy correlations for missing pairs",
		"Remove problematic tickers with sparse data",
		"Use alternative correlation estimation (shrinkage, factor models)",
	},
	KindBetaWindow: {
		"Wait for more historical data to accumulate",
		"Use longer backtest period if available",
		"Use proxy benchmark beta for intent validation",
		"Accept provisional beta estimate with documented caveat",
	},
	KindIntentFailStructureInconclusive: {
		"Change Risk Intent to match observed beta",
		"Document intent mismatch in IPS",
		"Improve correlation data for structural analysis",
	},
}

var prohibitedActions = map[InconclusiveKind][]string{
	KindDataIntegrity: {
		"Diversification verdict",
		"Correlation-based recommendations",
		"CCR severity judgments",
		"Portfolio restructuring based on correlation",
	},
	KindBetaWindow: {
		"Risk Intent validation",
		"Beta-adjusted metrics",
		"Intent-based portfolio recommendations",
		"Structural recommendations based on beta alignment",
	},
	KindIntentFailStructureInconclusive: {
		"Structural diversification recommendations",
		"CCR-based asset changes",
		"Portfolio restructuring (structure unknown)",
	},
}

// KindFor maps an inconclusive verdict to its blocking kind
func KindFor(t domain.FinalVerdictType) InconclusiveKind {
	switch t {
	case domain.VerdictInconclusiveIntentData:
		return KindBetaWindow
	case domain.VerdictInconclusiveIntentFailStruct:
		return KindIntentFailStructureInconclusive
	default:
		return KindDataIntegrity
	}
}

// InconclusiveError blocks downstream portfolio action. It always carries the
// full result so callers can report it or submit an override against it.
type InconclusiveError struct {
	Result            domain.GateResult
	VerdictType       domain.FinalVerdictType
	Gates             []domain.GateName
	Evidence          []string
	AllowedActions    []string
	ProhibitedActions []string

	kind InconclusiveKind
}

func newInconclusiveError(result domain.GateResult) *InconclusiveError {
	kind := KindFor(result.FinalVerdict)
	gates := result.GatesWithStatus(domain.GateStatusInconclusive)

	var evidence []string
	for _, name := range gates {
		if g, ok := result.Gate(name); ok {
			evidence = append(evidence, g.Evidence...)
		}
	}

	return &InconclusiveError{
		Result:            result,
		VerdictType:       result.FinalVerdict,
		Gates:             gates,
		Evidence:          evidence,
		AllowedActions:    append([]string(nil), allowedActions[kind]...),
		ProhibitedActions: append([]string(nil), prohibitedActions[kind]...),
		kind:              kind,
	}
}

// Kind returns why the run was blocked
func (e *InconclusiveError) Kind() InconclusiveKind {
	return e.kind
}

// Is lets errors.Is(err, ErrInconclusive) match
func (e *InconclusiveError) Is(target error) bool {
	return target == ErrInconclusive
}

// OverrideSchema describes the acknowledgment that unblocks this verdict
func (e *InconclusiveError) OverrideSchema() map[string]string {
	return map[string]string{
		"verdict_type":  string(e.VerdictType),
		"authorized_by": "string, required",
		"reason":        "string, at least 10 characters",
		"date":          "RFC3339 timestamp",
		"expiry_date":   "RFC3339 timestamp after date and now, or null",
	}
}

func (e *InconclusiveError) Error() string {
	gates := make([]string, len(e.Gates))
	for i, g := range e.Gates {
		gates[i] = string(g)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s): inconclusive gates [%s]", e.VerdictType, e.kind, strings.Join(gates, ", "))
	if len(e.Evidence) > 0 {
		fmt.Fprintf(&b, "; evidence: %s", strings.Join(e.Evidence, "; "))
	}
	fmt.Fprintf(&b, "; override requires {verdict_type: %q, authorized_by, reason (>= 10 chars), date, expiry_date|null}", e.VerdictType)
	return b.String()
}
