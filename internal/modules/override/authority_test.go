package override

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/gatekeeper/internal/domain"
	"github.com/aristath/gatekeeper/internal/modules/gates"
	testingpkg "github.com/aristath/gatekeeper/internal/testing"
)

var now = testingpkg.FixedNow

func clock() time.Time { return now }

// blockedRun runs a portfolio with sparse correlation data and returns the raised block
func blockedRun(t *testing.T) *gates.InconclusiveError {
	t.Helper()
	_, err := testingpkg.NewTestSequencer(nil).Run(context.Background(), testingpkg.SparseDataRequest())
	var raised *gates.InconclusiveError
	require.True(t, errors.As(err, &raised))
	return raised
}

func validAck() domain.UserAcknowledgment {
	expiry := now.Add(30 * 24 * time.Hour)
	return domain.UserAcknowledgment{
		VerdictType:  domain.VerdictInconclusiveDataFail,
		AuthorizedBy: "risk-committee",
		Reason:       "Accepting sparse history for newly listed ETF",
		Date:         now.Add(-time.Hour),
		ExpiryDate:   &expiry,
	}
}

type countingObserver struct {
	accepted, rejected int
}

func (o *countingObserver) ObserveOverride(_ domain.FinalVerdictType, accepted bool) {
	if accepted {
		o.accepted++
	} else {
		o.rejected++
	}
}

func TestAuthority_Validate_Rejections(t *testing.T) {
	raised := blockedRun(t)
	a := NewAuthority(NewMemoryLog(), clock, zerolog.Nop())

	past := now.Add(-time.Minute)
	beforeDate := now.Add(-2 * time.Hour)

	tests := []struct {
		name   string
		mutate func(*domain.UserAcknowledgment)
		field  string
	}{
		{"mismatched verdict type", func(ack *domain.UserAcknowledgment) { ack.VerdictType = domain.VerdictInconclusiveIntentData }, "verdict_type"},
		{"empty authorizer", func(ack *domain.UserAcknowledgment) { ack.AuthorizedBy = "   " }, "authorized_by"},
		{"short reason", func(ack *domain.UserAcknowledgment) { ack.Reason = "too short" }, "reason"},
		{"reason padded with spaces", func(ack *domain.UserAcknowledgment) { ack.Reason = "   short     " }, "reason"},
		{"missing date", func(ack *domain.UserAcknowledgment) { ack.Date = time.Time{} }, "date"},
		{"expiry in the past", func(ack *domain.UserAcknowledgment) { ack.ExpiryDate = &past }, "expiry_date"},
		{"expiry before date", func(ack *domain.UserAcknowledgment) { ack.ExpiryDate = &beforeDate }, "expiry_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := validAck()
			tt.mutate(&ack)

			ok, err := a.Validate(ack, raised)
			assert.False(t, ok)

			var invalidErr *InvalidOverrideError
			require.True(t, errors.As(err, &invalidErr))
			assert.Equal(t, tt.field, invalidErr.Field)
		})
	}
}

func TestAuthority_Validate_ExactTenCharReasonAndNoExpiry(t *testing.T) {
	raised := blockedRun(t)
	a := NewAuthority(NewMemoryLog(), clock, zerolog.Nop())

	ack := validAck()
	ack.Reason = "0123456789"
	ack.ExpiryDate = nil

	ok, err := a.Validate(ack, raised)
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestAuthority_Validate_NilRaised(t *testing.T) {
	a := NewAuthority(NewMemoryLog(), clock, zerolog.Nop())
	ok, err := a.Validate(validAck(), nil)
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestAuthority_Apply_ScenarioD(t *testing.T) {
	raised := blockedRun(t)
	assert.False(t, raised.Result.AllowsPortfolioAction())

	audit := NewMemoryLog()
	obs := &countingObserver{}
	a := NewAuthority(audit, clock, zerolog.Nop())
	a.SetObserver(obs)

	result, err := a.Apply(context.Background(), validAck(), raised)
	require.NoError(t, err)

	assert.True(t, result.OverrideApplied)
	assert.True(t, result.IsInconclusive)
	assert.True(t, result.AllowsPortfolioAction())
	require.NotNil(t, result.Override)
	assert.Equal(t, "risk-committee", result.Override.AuthorizedBy)
	assert.Equal(t, now, result.Override.AppliedAt)

	// The raised result itself is untouched
	assert.False(t, raised.Result.OverrideApplied)
	assert.Nil(t, raised.Result.Override)

	records, err := a.History(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, result.Override.AuditID, records[0].ID)
	assert.Equal(t, "risk-committee", records[0].AuthorizedBy)
	assert.Equal(t, domain.VerdictInconclusiveDataFail, records[0].VerdictType)
	assert.Equal(t, raised.Gates, records[0].Gates)

	assert.Equal(t, 1, obs.accepted)
	assert.Zero(t, obs.rejected)
}

func TestAuthority_Apply_RejectedWritesNothing(t *testing.T) {
	raised := blockedRun(t)
	audit := NewMemoryLog()
	obs := &countingObserver{}
	a := NewAuthority(audit, clock, zerolog.Nop())
	a.SetObserver(obs)

	ack := validAck()
	ack.Reason = "nope"
	_, err := a.Apply(context.Background(), ack, raised)
	require.Error(t, err)

	records, err := audit.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, 1, obs.rejected)
}

type failingLog struct{ MemoryLog }

func (f *failingLog) Append(context.Context, AuditRecord) error {
	return errors.New("disk full")
}

func TestAuthority_Apply_AppendFailureReturnsNoOverride(t *testing.T) {
	raised := blockedRun(t)
	a := NewAuthority(&failingLog{}, clock, zerolog.Nop())

	result, err := a.Apply(context.Background(), validAck(), raised)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.False(t, result.OverrideApplied)
	assert.Nil(t, result.Override)
}

func TestAuthority_History_FiltersByAuthorizer(t *testing.T) {
	raised := blockedRun(t)
	a := NewAuthority(NewMemoryLog(), clock, zerolog.Nop())

	for _, who := range []string{"alice", "bob", "alice"} {
		ack := validAck()
		ack.AuthorizedBy = who
		_, err := a.Apply(context.Background(), ack, raised)
		require.NoError(t, err)
	}

	alice, err := a.History(context.Background(), "alice")
	require.NoError(t, err)
	assert.Len(t, alice, 2)

	all, err := a.History(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
