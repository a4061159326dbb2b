package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/aristath/gatekeeper/internal/domain"
	"github.com/aristath/gatekeeper/internal/modules/gates"
	"github.com/aristath/gatekeeper/internal/modules/override"
)

// GateHandlers serves evaluation and override endpoints
type GateHandlers struct {
	sequencer *gates.Sequencer
	authority *override.Authority
	validate  *validator.Validate
	log       zerolog.Logger
}

// NewGateHandlers creates the gate handlers
func NewGateHandlers(sequencer *gates.Sequencer, authority *override.Authority, validate *validator.Validate, log zerolog.Logger) *GateHandlers {
	return &GateHandlers{
		sequencer: sequencer,
		authority: authority,
		validate:  validate,
		log:       log.With().Str("handler", "gates").Logger(),
	}
}

// blockedView tells the caller why a run was blocked and how to override it
type blockedView struct {
	Kind              gates.InconclusiveKind  `json:"kind"`
	VerdictType       domain.FinalVerdictType `json:"verdict_type"`
	Gates             []domain.GateName       `json:"gates"`
	Evidence          []string                `json:"evidence"`
	AllowedActions    []string                `json:"allowed_actions"`
	ProhibitedActions []string                `json:"prohibited_actions"`
	OverrideSchema    map[string]string       `json:"override_schema"`
}

type evaluateResponse struct {
	gates.Summary
	Blocked *blockedView `json:"blocked,omitempty"`
}

type overrideRequest struct {
	Request        gates.EvaluationRequest   `json:"request"`
	Acknowledgment domain.UserAcknowledgment `json:"acknowledgment"`
}

type overrideResponse struct {
	gates.Summary
	Override *domain.OverrideMetadata `json:"override"`
}

func newBlockedView(e *gates.InconclusiveError) *blockedView {
	return &blockedView{
		Kind:              e.Kind(),
		VerdictType:       e.VerdictType,
		Gates:             e.Gates,
		Evidence:          e.Evidence,
		AllowedActions:    e.AllowedActions,
		ProhibitedActions: e.ProhibitedActions,
		OverrideSchema:    e.OverrideSchema(),
	}
}

// HandleEvaluate runs the gates. 200 with the summary, 409 when blocked.
func (h *GateHandlers) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req gates.EvaluationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err), h.log)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), h.log)
		return
	}

	result, err := h.sequencer.Run(r.Context(), req)
	var blocked *gates.InconclusiveError
	switch {
	case errors.As(err, &blocked):
		writeJSON(w, http.StatusConflict, evaluateResponse{
			Summary: h.sequencer.Summarize(result),
			Blocked: newBlockedView(blocked),
		}, h.log)
	case err != nil:
		h.writeRunError(w, err)
	default:
		writeJSON(w, http.StatusOK, evaluateResponse{Summary: h.sequencer.Summarize(result)}, h.log)
	}
}

// HandleOverride re-runs the evaluation and applies the acknowledgment to the
// raised block. 200 when applied, 422 when the acknowledgment is rejected.
func (h *GateHandlers) HandleOverride(w http.ResponseWriter, r *http.Request) {
	var body overrideRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err), h.log)
		return
	}
	if err := h.validate.Struct(body.Request); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), h.log)
		return
	}

	result, err := h.sequencer.Run(r.Context(), body.Request)
	var blocked *gates.InconclusiveError
	switch {
	case errors.As(err, &blocked):
	case err != nil:
		h.writeRunError(w, err)
		return
	default:
		writeError(w, http.StatusConflict,
			fmt.Sprintf("verdict %s is not blocking; nothing to override", result.FinalVerdict), h.log)
		return
	}

	overridden, err := h.authority.Apply(r.Context(), body.Acknowledgment, blocked)
	var invalid *override.InvalidOverrideError
	switch {
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error":  invalid.Error(),
			"field":  invalid.Field,
			"reason": invalid.Reason,
		}, h.log)
	case err != nil:
		h.log.Error().Err(err).Msg("Failed to apply override")
		writeError(w, http.StatusInternalServerError, "failed to record override", h.log)
	default:
		writeJSON(w, http.StatusOK, overrideResponse{
			Summary:  h.sequencer.Summarize(overridden),
			Override: overridden.Override,
		}, h.log)
	}
}

// HandleOverrides lists the override audit history
func (h *GateHandlers) HandleOverrides(w http.ResponseWriter, r *http.Request) {
	records, err := h.authority.History(r.Context(), r.URL.Query().Get("authorized_by"))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list overrides")
		writeError(w, http.StatusInternalServerError, "failed to list overrides", h.log)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"overrides": records,
		"count":     len(records),
	}, h.log)
}

func (h *GateHandlers) writeRunError(w http.ResponseWriter, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		writeError(w, http.StatusServiceUnavailable, err.Error(), h.log)
		return
	}
	writeError(w, http.StatusBadRequest, err.Error(), h.log)
}
