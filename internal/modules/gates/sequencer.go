// Package gates runs the ordered decision gates over a portfolio and
// synthesizes a single final verdict.
package gates

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/gatekeeper/internal/domain"
	"github.com/aristath/gatekeeper/internal/modules/classification"
	"github.com/aristath/gatekeeper/internal/modules/intent"
)

// ErrMissingBetaInput is returned when a request has neither a beta estimate nor return series
var ErrMissingBetaInput = errors.New("request carries neither beta nor return series")

// Observer is notified of every completed run
type Observer interface {
	ObserveRun(result domain.GateResult, elapsed time.Duration)
}

// Options wires the sequencer's collaborators
type Options struct {
	Classifier     *classification.Classifier
	Soft           *classification.SoftClassifier
	Analyzer       *intent.Analyzer
	TypeThresholds classification.ThresholdTable
	Thresholds     Thresholds
	Observer       Observer
	Now            func() time.Time
}

// Sequencer runs DataIntegrity, Intent, Structural and Benchmark in order.
// All gates always run; a blocking verdict is returned as *InconclusiveError
// alongside the full result.
type Sequencer struct {
	classifier     *classification.Classifier
	soft           *classification.SoftClassifier
	analyzer       *intent.Analyzer
	typeThresholds classification.ThresholdTable
	thresholds     Thresholds
	observer       Observer
	now            func() time.Time
	log            zerolog.Logger
}

// NewSequencer creates a sequencer
func NewSequencer(opts Options, log zerolog.Logger) *Sequencer {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	table := opts.TypeThresholds
	if table == nil {
		table = classification.DefaultThresholdTable()
	}
	return &Sequencer{
		classifier:     opts.Classifier,
		soft:           opts.Soft,
		analyzer:       opts.Analyzer,
		typeThresholds: table,
		thresholds:     opts.Thresholds,
		observer:       opts.Observer,
		now:            now,
		log:            log.With().Str("component", "gate_sequencer").Logger(),
	}
}

// Summarize builds the outbound summary of a result
func (s *Sequencer) Summarize(r domain.GateResult) Summary {
	return NewSummary(r, s.analyzer.Limits().MinWindowYears)
}

// run carries the intermediate state of one evaluation
type run struct {
	result domain.GateResult
	log    zerolog.Logger
}

func (r *run) transition(state domain.SequencerState) {
	r.result.State = state
	r.result.Transitions = append(r.result.Transitions, state)
	r.log.Debug().Str("state", string(state)).Msg("Gate sequencer transition")
}

// Run evaluates a request. Invalid input returns a zero result and an error;
// an inconclusive verdict returns the full result and an *InconclusiveError.
func (s *Sequencer) Run(ctx context.Context, req EvaluationRequest) (domain.GateResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.GateResult{}, err
	}
	started := time.Now()

	level, err := domain.ParseRiskIntentLevel(req.RiskIntent)
	if err != nil {
		return domain.GateResult{}, err
	}
	spec, err := s.analyzer.Catalog().Lookup(level)
	if err != nil {
		return domain.GateResult{}, err
	}
	dq := req.DataQuality
	dq, err = domain.NewDataQuality(dq.NaNRatio, dq.EarliestDate, dq.LatestDate, dq.TradingDays, dq.OverlappingDays, dq.StaggeredEntry)
	if err != nil {
		return domain.GateResult{}, fmt.Errorf("data quality: %w", err)
	}
	hard, comp, err := s.classifier.Classify(req.Holdings, req.RiskContributions)
	if err != nil {
		return domain.GateResult{}, err
	}
	est, err := s.betaEstimate(req)
	if err != nil {
		return domain.GateResult{}, err
	}

	r := &run{
		result: domain.GateResult{
			EvaluatedAt: s.now(),
			RiskIntent:  level,
			DataQuality: dq,
		},
		log: s.log.With().Str("risk_intent", string(level)).Logger(),
	}
	r.transition(domain.StatePending)

	// Data integrity
	r.transition(domain.StateDataIntegrityEval)
	dataReport, dataActions := EvaluateDataIntegrity(dq, s.thresholds)
	r.result.Gates = append(r.result.Gates, dataReport)
	r.result.Actions = append(r.result.Actions, dataActions...)

	// Intent
	r.transition(domain.StateIntentEval)
	dd := s.drawdown(req, est.Beta, spec)
	intentCheck, err := s.analyzer.Evaluate(est, level, dd)
	if err != nil {
		return domain.GateResult{}, err
	}
	r.result.Intent = intentCheck
	r.result.Gates = append(r.result.Gates, intentReport(intentCheck))
	r.result.Actions = append(r.result.Actions, intentCheck.Actions...)

	// Structural
	r.transition(domain.StateStructuralEval)
	soft := s.soft.Classify(comp, est.Beta)
	structural, structReport := EvaluateStructural(StructuralInput{
		Composition:       comp,
		Classification:    hard,
		Soft:              soft,
		SurfaceSoft:       s.soft.ShouldSurface(soft, hard.Type),
		RiskContributions: req.RiskContributions,
		Issues:            req.StructuralIssues,
		DataQuality:       dq,
		DataInconclusive:  dataReport.Status == domain.GateStatusInconclusive,
	}, s.typeThresholds, s.thresholds)
	r.result.Structural = structural
	r.result.Gates = append(r.result.Gates, structReport)

	// Benchmark
	r.transition(domain.StateBenchmarkEval)
	bench, benchReport := EvaluateBenchmark(req.Benchmark, comp, s.thresholds)
	r.result.Benchmark = bench
	r.result.Gates = append(r.result.Gates, benchReport)

	r.transition(domain.StateVerdictSynthesized)
	v := Synthesize(SynthesisInput{
		Data:                 dataReport.Status,
		Intent:               intentCheck.Verdict,
		Structural:           structural.Verdict,
		Benchmark:            benchReport.Status,
		IntentConfidence:     intentCheck.ConfidenceScore,
		StructuralConfidence: structural.Confidence,
	}, s.thresholds.WarnPenalty)

	r.result.FinalVerdict = v.Type
	r.result.VerdictConfidence = v.Confidence
	r.result.VerdictMessage = v.Message
	r.result.WhyNotContradictory = v.WhyNotContradictory
	r.result.IsInconclusive = v.Type.IsInconclusive()
	r.result.IsIntentMisaligned = intentCheck.Verdict == domain.GateStatusFail
	sortActions(r.result.Actions)
	r.transition(TerminalState(v.Type))

	result := r.result
	if s.observer != nil {
		s.observer.ObserveRun(result, time.Since(started))
	}

	if result.IsInconclusive {
		blocked := newInconclusiveError(result)
		r.log.Warn().
			Str("verdict", string(v.Type)).
			Str("kind", string(blocked.Kind())).
			Strs("evidence", blocked.Evidence).
			Msg("Gate run blocked")
		return result, blocked
	}

	r.log.Info().
		Str("verdict", string(v.Type)).
		Float64("confidence", v.Confidence).
		Str("structure_type", string(structural.StructureType)).
		Float64("beta", est.Beta).
		Msg("Gate run completed")
	return result, nil
}

func (s *Sequencer) betaEstimate(req EvaluationRequest) (domain.BetaEstimate, error) {
	if req.Beta != nil {
		if err := req.Beta.Validate(); err != nil {
			return domain.BetaEstimate{}, fmt.Errorf("beta: %w", err)
		}
		return *req.Beta, nil
	}
	if len(req.PortfolioReturns) == 0 || len(req.BenchmarkReturns) == 0 {
		return domain.BetaEstimate{}, ErrMissingBetaInput
	}
	est, err := intent.EstimateBeta(req.PortfolioReturns, req.BenchmarkReturns)
	if errors.Is(err, intent.ErrInsufficientSample) {
		// The intent gate reports the short sample as INCONCLUSIVE
		return est, nil
	}
	if err != nil {
		return domain.BetaEstimate{}, fmt.Errorf("estimate beta: %w", err)
	}
	return est, nil
}

// drawdown attributes the drawdown from explicit figures, or from the return
// series when those are present
func (s *Sequencer) drawdown(req EvaluationRequest, beta float64, spec domain.RiskIntentSpec) *domain.DrawdownAttribution {
	var pdd, bdd float64
	switch {
	case req.PortfolioDrawdown != nil && req.BenchmarkDrawdown != nil:
		pdd, bdd = *req.PortfolioDrawdown, *req.BenchmarkDrawdown
	case len(req.PortfolioReturns) > 0 && len(req.BenchmarkReturns) > 0:
		pdd, bdd = intent.MaxDrawdown(req.PortfolioReturns), intent.MaxDrawdown(req.BenchmarkReturns)
	default:
		return nil
	}
	dd := intent.AttributeDrawdown(pdd, bdd, beta, spec)
	return &dd
}

func intentReport(c domain.IntentGateCheck) domain.GateReport {
	report := domain.GateReport{
		Gate:    domain.GateIntent,
		Status:  c.Verdict,
		Message: c.Message,
		Details: map[string]interface{}{
			"portfolio_beta":    c.PortfolioBeta,
			"beta_window_years": c.BetaWindowYears,
			"observations":      c.Observations,
			"beta_range":        c.IntentSpec.BetaRange,
			"confidence":        c.ConfidenceScore,
			"confidence_label":  c.ConfidenceLabel,
			"beta_state":        string(c.BetaState),
		},
	}
	if c.Drawdown != nil {
		report.Details["drawdown_kind"] = string(c.Drawdown.Kind)
	}
	if c.Verdict != domain.GateStatusPass {
		report.Evidence = []string{c.Message}
	}
	return report
}

var priorityRank = map[domain.ActionPriority]int{
	domain.PriorityCritical: 0,
	domain.PriorityHigh:     1,
	domain.PriorityMedium:   2,
	domain.PriorityLow:      3,
	domain.PriorityInfo:     4,
}

func sortActions(actions []domain.PrescriptiveAction) {
	sort.SliceStable(actions, func(i, j int) bool {
		return priorityRank[actions[i].Priority] < priorityRank[actions[j].Priority]
	})
}
