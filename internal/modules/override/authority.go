package override

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/gatekeeper/internal/domain"
	"github.com/aristath/gatekeeper/internal/modules/gates"
)

// MinReasonLength is the shortest accepted justification, after trimming
const MinReasonLength = 10

// Observer is notified of every override decision
type Observer interface {
	ObserveOverride(verdict domain.FinalVerdictType, accepted bool)
}

// Authority is the only way a blocked verdict can be released
type Authority struct {
	audit    AuditLog
	clock    func() time.Time
	observer Observer
	log      zerolog.Logger
}

// NewAuthority creates an override authority writing to the given audit log.
// A nil clock uses time.Now.
func NewAuthority(audit AuditLog, clock func() time.Time, log zerolog.Logger) *Authority {
	if clock == nil {
		clock = time.Now
	}
	return &Authority{
		audit: audit,
		clock: clock,
		log:   log.With().Str("component", "override_authority").Logger(),
	}
}

// SetObserver registers the override observer
func (a *Authority) SetObserver(o Observer) {
	a.observer = o
}

// Validate checks the acknowledgment against the verdict that was raised
func (a *Authority) Validate(ack domain.UserAcknowledgment, raised *gates.InconclusiveError) (bool, error) {
	if raised == nil {
		return false, invalid("verdict_type", "no blocked verdict to override")
	}
	if ack.VerdictType != raised.VerdictType {
		return false, invalid("verdict_type", "acknowledges %s but %s was raised", ack.VerdictType, raised.VerdictType)
	}
	if strings.TrimSpace(ack.AuthorizedBy) == "" {
		return false, invalid("authorized_by", "must not be empty")
	}
	if n := len([]rune(strings.TrimSpace(ack.Reason))); n < MinReasonLength {
		return false, invalid("reason", "%d characters, at least %d required", n, MinReasonLength)
	}
	if ack.Date.IsZero() {
		return false, invalid("date", "must be set")
	}
	if ack.ExpiryDate != nil {
		if !ack.ExpiryDate.After(ack.Date) {
			return false, invalid("expiry_date", "%s is not after date %s",
				ack.ExpiryDate.Format(time.RFC3339), ack.Date.Format(time.RFC3339))
		}
		if now := a.clock(); !ack.ExpiryDate.After(now) {
			return false, invalid("expiry_date", "%s has already passed", ack.ExpiryDate.Format(time.RFC3339))
		}
	}
	return true, nil
}

// Apply validates the acknowledgment, appends exactly one audit record and
// returns the blocked result marked as overridden. Nothing is returned when
// the audit append fails.
func (a *Authority) Apply(ctx context.Context, ack domain.UserAcknowledgment, raised *gates.InconclusiveError) (domain.GateResult, error) {
	if _, err := a.Validate(ack, raised); err != nil {
		a.observe(ack.VerdictType, false)
		a.log.Warn().Err(err).Str("authorized_by", ack.AuthorizedBy).Msg("Override rejected")
		return domain.GateResult{}, err
	}

	now := a.clock()
	rec := AuditRecord{
		ID:           uuid.NewString(),
		Timestamp:    now,
		AuthorizedBy: strings.TrimSpace(ack.AuthorizedBy),
		Reason:       strings.TrimSpace(ack.Reason),
		VerdictType:  ack.VerdictType,
		Date:         ack.Date,
		ExpiryDate:   ack.ExpiryDate,
		Gates:        append([]domain.GateName(nil), raised.Gates...),
	}
	if err := a.audit.Append(ctx, rec); err != nil {
		return domain.GateResult{}, fmt.Errorf("failed to record override: %w", err)
	}

	result := raised.Result.WithOverride(domain.OverrideMetadata{
		AuditID:      rec.ID,
		AuthorizedBy: rec.AuthorizedBy,
		Reason:       rec.Reason,
		VerdictType:  rec.VerdictType,
		Date:         rec.Date,
		ExpiryDate:   rec.ExpiryDate,
		AppliedAt:    now,
	})

	a.observe(ack.VerdictType, true)
	a.log.Info().
		Str("audit_id", rec.ID).
		Str("authorized_by", rec.AuthorizedBy).
		Str("verdict_type", string(rec.VerdictType)).
		Msg("Override applied")

	return result, nil
}

// History lists audit records, filtered by authorizer when one is given
func (a *Authority) History(ctx context.Context, authorizedBy string) ([]AuditRecord, error) {
	records, err := a.audit.List(ctx, strings.TrimSpace(authorizedBy))
	if err != nil {
		return nil, fmt.Errorf("failed to list overrides: %w", err)
	}
	return records, nil
}

func (a *Authority) observe(verdict domain.FinalVerdictType, accepted bool) {
	if a.observer != nil {
		a.observer.ObserveOverride(verdict, accepted)
	}
}
