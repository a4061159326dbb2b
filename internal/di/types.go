// Package di provides dependency injection wiring and initialization.
package di

import (
	"github.com/aristath/gatekeeper/internal/config"
	"github.com/aristath/gatekeeper/internal/database"
	"github.com/aristath/gatekeeper/internal/metrics"
	"github.com/aristath/gatekeeper/internal/modules/classification"
	"github.com/aristath/gatekeeper/internal/modules/gates"
	"github.com/aristath/gatekeeper/internal/modules/intent"
	"github.com/aristath/gatekeeper/internal/modules/override"
	"github.com/aristath/gatekeeper/internal/reliability"
	"github.com/aristath/gatekeeper/internal/scheduler"
)

// Container holds all dependencies for the application
type Container struct {
	Policy config.Policy

	// Audit storage; AuditDB is nil with the file backend
	AuditDB  *database.DB
	AuditLog override.AuditLog

	Taxonomy   *classification.Taxonomy
	Catalog    *intent.Catalog
	Classifier *classification.Classifier
	Soft       *classification.SoftClassifier
	Analyzer   *intent.Analyzer
	Sequencer  *gates.Sequencer
	Authority  *override.Authority
	Metrics    *metrics.Registry

	// Nil unless archiving is enabled
	Archive *reliability.AuditArchiveService
}

// Close releases the container's resources
func (c *Container) Close() error {
	if c.AuditDB != nil {
		return c.AuditDB.Close()
	}
	return nil
}

// JobInstances holds the registered background jobs
type JobInstances struct {
	Scheduler   *scheduler.Scheduler
	Maintenance *scheduler.AuditMaintenanceJob
	Archive     *scheduler.AuditArchiveJob // nil unless archiving is enabled
}
