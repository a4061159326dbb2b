package scheduler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/gatekeeper/internal/database"
	"github.com/aristath/gatekeeper/internal/reliability"
)

// AuditArchiveJob uploads a snapshot of the audit log and prunes old archives
type AuditArchiveJob struct {
	archive   *reliability.AuditArchiveService
	retention int
	log       zerolog.Logger
}

// NewAuditArchiveJob creates the archive job; retention is the number of archives kept
func NewAuditArchiveJob(archive *reliability.AuditArchiveService, retention int, log zerolog.Logger) *AuditArchiveJob {
	return &AuditArchiveJob{
		archive:   archive,
		retention: retention,
		log:       log.With().Str("job", "audit_archive").Logger(),
	}
}

// Name returns the job name
func (j *AuditArchiveJob) Name() string {
	return "audit_archive"
}

// Run executes the archive job. A failed prune is logged, not returned.
func (j *AuditArchiveJob) Run(ctx context.Context) error {
	info, err := j.archive.CreateAndUpload(ctx)
	if err != nil {
		return err
	}

	deleted, err := j.archive.PruneArchives(ctx, j.retention)
	if err != nil {
		j.log.Warn().Err(err).Msg("Failed to prune audit archives")
	}

	j.log.Info().
		Str("key", info.Key).
		Int("records", info.Records).
		Int("pruned", deleted).
		Msg("Audit archive job completed")
	return nil
}

// AuditMaintenanceJob checkpoints the audit ledger WAL and verifies the database
type AuditMaintenanceJob struct {
	db  *database.DB
	log zerolog.Logger
}

// NewAuditMaintenanceJob creates the maintenance job
func NewAuditMaintenanceJob(db *database.DB, log zerolog.Logger) *AuditMaintenanceJob {
	return &AuditMaintenanceJob{
		db:  db,
		log: log.With().Str("job", "audit_maintenance").Logger(),
	}
}

// Name returns the job name
func (j *AuditMaintenanceJob) Name() string {
	return "audit_maintenance"
}

// Run executes the maintenance job
func (j *AuditMaintenanceJob) Run(ctx context.Context) error {
	if j.db == nil {
		return nil
	}
	if err := j.db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("audit database unhealthy: %w", err)
	}
	if err := j.db.WALCheckpoint(ctx, "TRUNCATE"); err != nil {
		return err
	}

	stats, err := j.db.GetStats(ctx)
	if err != nil {
		return err
	}
	j.log.Info().
		Int64("size_bytes", stats.SizeBytes).
		Int64("wal_size_bytes", stats.WALSizeBytes).
		Msg("Audit database maintenance completed")
	return nil
}
