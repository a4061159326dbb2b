package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/gatekeeper/internal/config"
	"github.com/aristath/gatekeeper/internal/database"
	"github.com/aristath/gatekeeper/internal/modules/override"
)

// InitializeAuditLog opens the configured audit backend
func InitializeAuditLog(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	switch cfg.AuditBackend {
	case config.AuditBackendFile:
		fileLog, err := override.NewFileLog(cfg.AuditPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize audit file: %w", err)
		}
		container.AuditLog = fileLog

	case config.AuditBackendSQLite:
		// audit.db - Immutable override audit trail
		auditDB, err := database.New(database.Config{
			Path:    cfg.AuditPath,
			Profile: database.ProfileLedger, // Maximum safety for immutable audit trail
			Name:    "audit",
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize audit database: %w", err)
		}
		sqliteLog, err := override.NewSQLiteLog(auditDB, log)
		if err != nil {
			auditDB.Close()
			return nil, err
		}
		container.AuditDB = auditDB
		container.AuditLog = sqliteLog

	default:
		return nil, fmt.Errorf("unknown audit backend %q", cfg.AuditBackend)
	}

	log.Info().Str("backend", cfg.AuditBackend).Str("path", cfg.AuditPath).Msg("Audit log initialized")
	return container, nil
}
