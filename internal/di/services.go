package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/gatekeeper/internal/config"
	"github.com/aristath/gatekeeper/internal/metrics"
	"github.com/aristath/gatekeeper/internal/modules/classification"
	"github.com/aristath/gatekeeper/internal/modules/gates"
	"github.com/aristath/gatekeeper/internal/modules/intent"
	"github.com/aristath/gatekeeper/internal/modules/override"
	"github.com/aristath/gatekeeper/internal/reliability"
)

// InitializeServices builds the gate engine from the policy
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, policy config.Policy, log zerolog.Logger) error {
	catalog, err := policy.Catalog()
	if err != nil {
		return fmt.Errorf("failed to build risk intent catalog: %w", err)
	}

	container.Policy = policy
	container.Catalog = catalog
	container.Taxonomy = policy.BuildTaxonomy()
	container.Metrics = metrics.NewRegistry()

	container.Classifier = classification.NewClassifier(container.Taxonomy, log)
	container.Soft = classification.NewSoftClassifier(policy.SoftClassifier, log)
	container.Analyzer = intent.NewAnalyzer(catalog, policy.Intent, log)

	container.Sequencer = gates.NewSequencer(gates.Options{
		Classifier:     container.Classifier,
		Soft:           container.Soft,
		Analyzer:       container.Analyzer,
		TypeThresholds: policy.TypeThresholds,
		Thresholds:     policy.Gates,
		Observer:       container.Metrics,
	}, log)

	container.Authority = override.NewAuthority(container.AuditLog, nil, log)
	container.Authority.SetObserver(container.Metrics)

	if cfg.Archive.Enabled {
		store, err := reliability.NewS3Store(ctx, reliability.S3Config{
			Bucket:      cfg.Archive.Bucket,
			Region:      cfg.Archive.Region,
			Endpoint:    cfg.Archive.Endpoint,
			AccessKeyID: cfg.Archive.AccessKeyID,
			SecretKey:   cfg.Archive.SecretKey,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to initialize archive store: %w", err)
		}
		container.Archive = reliability.NewAuditArchiveService(container.AuditLog, store, cfg.Archive.Prefix, nil, log)
		container.Archive.SetObserver(container.Metrics)
	}

	log.Info().
		Int("taxonomy_size", container.Taxonomy.Len()).
		Bool("archive_enabled", container.Archive != nil).
		Msg("Gate engine initialized")
	return nil
}
