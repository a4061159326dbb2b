package di

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/gatekeeper/internal/config"
	"github.com/aristath/gatekeeper/internal/scheduler"
)

const (
	maintenanceSchedule = "0 30 2 * * *" // Daily at 02:30
	jobTimeout          = 10 * time.Minute
)

// RegisterJobs creates the scheduler and registers the background jobs.
// The scheduler is not started.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	sched := scheduler.New(jobTimeout, log)
	instances := &JobInstances{Scheduler: sched}

	if container.AuditDB != nil {
		instances.Maintenance = scheduler.NewAuditMaintenanceJob(container.AuditDB, log)
		if err := sched.AddJob(maintenanceSchedule, instances.Maintenance); err != nil {
			sched.Stop()
			return nil, fmt.Errorf("failed to register audit_maintenance job: %w", err)
		}
	}

	if container.Archive != nil {
		instances.Archive = scheduler.NewAuditArchiveJob(container.Archive, cfg.Archive.RetentionCount, log)
		if err := sched.AddJob(cfg.Archive.Schedule, instances.Archive); err != nil {
			sched.Stop()
			return nil, fmt.Errorf("failed to register audit_archive job: %w", err)
		}
	}

	return instances, nil
}
