package scheduler

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/aristath/gatekeeper/internal/domain"
	"github.com/aristath/gatekeeper/internal/modules/override"
	"github.com/aristath/gatekeeper/internal/reliability"
	testingpkg "github.com/aristath/gatekeeper/internal/testing"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingJob struct {
	runs atomic.Int32
	err  error
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	return j.err
}

type deadlineJob struct {
	hadDeadline bool
}

func (j *deadlineJob) Name() string { return "deadline" }

func (j *deadlineJob) Run(ctx context.Context) error {
	_, j.hadDeadline = ctx.Deadline()
	return nil
}

func TestScheduler_RunNow(t *testing.T) {
	s := New(time.Minute, zerolog.Nop())
	defer s.Stop()

	job := &countingJob{err: errors.New("boom")}
	assert.EqualError(t, s.RunNow(job), "boom")
	assert.Equal(t, int32(1), job.runs.Load())

	dj := &deadlineJob{}
	require.NoError(t, s.RunNow(dj))
	assert.True(t, dj.hadDeadline)
}

func TestScheduler_AddJobRejectsBadSchedule(t *testing.T) {
	s := New(0, zerolog.Nop())
	defer s.Stop()

	assert.Error(t, s.AddJob("not a schedule", &countingJob{}))
}

func TestScheduler_StartStopRunsJobs(t *testing.T) {
	s := New(0, zerolog.Nop())
	job := &countingJob{}
	require.NoError(t, s.AddJob("@every 1s", job))

	s.Start()
	assert.Eventually(t, func() bool { return job.runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
	s.Stop()
}

type memoryStore struct {
	keys []string
}

func (m *memoryStore) Upload(_ context.Context, key string, body io.Reader, _ map[string]string) error {
	_, _ = io.Copy(io.Discard, body)
	m.keys = append(m.keys, key)
	return nil
}

func (m *memoryStore) List(_ context.Context, prefix string) ([]reliability.ObjectInfo, error) {
	var out []reliability.ObjectInfo
	for _, k := range m.keys {
		if strings.HasPrefix(k, prefix) {
			out = append(out, reliability.ObjectInfo{Key: k})
		}
	}
	return out, nil
}

func (m *memoryStore) Delete(context.Context, string) error { return nil }

func TestAuditArchiveJob_Run(t *testing.T) {
	audit := override.NewMemoryLog()
	require.NoError(t, audit.Append(context.Background(), override.AuditRecord{
		ID:           "rec-1",
		AuthorizedBy: "ops",
		Reason:       "documented exception",
		VerdictType:  domain.VerdictInconclusiveIntentData,
	}))

	store := &memoryStore{}
	svc := reliability.NewAuditArchiveService(audit, store, "audit", nil, zerolog.Nop())
	job := NewAuditArchiveJob(svc, 30, zerolog.Nop())

	assert.Equal(t, "audit_archive", job.Name())
	require.NoError(t, job.Run(context.Background()))
	require.Len(t, store.keys, 1)
	assert.True(t, strings.HasPrefix(store.keys[0], "audit/audit-"))
}

func TestAuditMaintenanceJob_Run(t *testing.T) {
	job := NewAuditMaintenanceJob(testingpkg.NewTestDB(t, "audit"), zerolog.Nop())
	assert.Equal(t, "audit_maintenance", job.Name())
	assert.NoError(t, job.Run(context.Background()))

	// No database configured
	assert.NoError(t, NewAuditMaintenanceJob(nil, zerolog.Nop()).Run(context.Background()))
}
