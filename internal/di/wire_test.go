package di

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/gatekeeper/internal/config"
	"github.com/aristath/gatekeeper/internal/domain"
	"github.com/aristath/gatekeeper/internal/modules/gates"
)

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.db")
	if backend == config.AuditBackendFile {
		path = filepath.Join(dir, "overrides.jsonl")
	}
	return &config.Config{
		DataDir:      dir,
		Port:         8080,
		AuditBackend: backend,
		AuditPath:    path,
	}
}

func TestWire_SQLiteBackend(t *testing.T) {
	cfg := testConfig(t, config.AuditBackendSQLite)

	container, jobs, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer container.Close()
	defer jobs.Scheduler.Stop()

	assert.NotNil(t, container.AuditDB)
	assert.NotNil(t, container.Sequencer)
	assert.NotNil(t, container.Authority)
	assert.NotNil(t, container.Metrics)
	assert.Nil(t, container.Archive)
	assert.NotNil(t, jobs.Maintenance)
	assert.Nil(t, jobs.Archive)
	assert.FileExists(t, cfg.AuditPath)

	require.NoError(t, jobs.Scheduler.RunNow(jobs.Maintenance))
}

func TestWire_FileBackendRunsEndToEnd(t *testing.T) {
	cfg := testConfig(t, config.AuditBackendFile)

	container, jobs, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer container.Close()
	defer jobs.Scheduler.Stop()

	assert.Nil(t, container.AuditDB)
	assert.Nil(t, jobs.Maintenance)

	_, err = container.Sequencer.Run(context.Background(), gates.EvaluationRequest{
		Holdings:    map[string]float64{"VWCE": 0.60, "SPY": 0.20, "EIMI": 0.10, "IUSN": 0.10},
		RiskIntent:  "GROWTH",
		DataQuality: domain.DataQuality{NaNRatio: 0.25, TradingDays: 200, OverlappingDays: 200},
		Beta:        &domain.BetaEstimate{Beta: 0.95, Observations: 200, WindowYears: 200.0 / 252},
	})
	var blocked *gates.InconclusiveError
	require.ErrorAs(t, err, &blocked)

	expiry := time.Now().Add(24 * time.Hour)
	_, err = container.Authority.Apply(context.Background(), domain.UserAcknowledgment{
		VerdictType:  blocked.VerdictType,
		AuthorizedBy: "ops",
		Reason:       "short history accepted for pilot",
		Date:         time.Now(),
		ExpiryDate:   &expiry,
	}, blocked)
	require.NoError(t, err)

	raw, err := os.ReadFile(cfg.AuditPath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"authorized_by":"ops"`)
}

func TestWire_PolicyFileApplied(t *testing.T) {
	cfg := testConfig(t, config.AuditBackendFile)
	cfg.PolicyFile = filepath.Join(cfg.DataDir, "policy.yaml")
	require.NoError(t, os.WriteFile(cfg.PolicyFile, []byte("gates:\n  warn_penalty: 5\ntaxonomy:\n  - ticker: ZZZW\n    categories: [world]\n"), 0644))

	container, jobs, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer container.Close()
	defer jobs.Scheduler.Stop()

	assert.Equal(t, 5.0, container.Policy.Gates.WarnPenalty)
	_, ok := container.Taxonomy.Lookup("ZZZW")
	assert.True(t, ok)
}

func TestWire_InvalidPolicy(t *testing.T) {
	cfg := testConfig(t, config.AuditBackendFile)
	cfg.PolicyFile = filepath.Join(cfg.DataDir, "missing.yaml")

	_, _, err := Wire(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}
