package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/gatekeeper/internal/config"
)

// Wire initializes all dependencies and returns a fully configured container
// Order of operations:
// 1. Load the gate policy
// 2. Open the audit log
// 3. Initialize services
// 4. Register jobs
func Wire(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Container, *JobInstances, error) {
	policy, err := config.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load policy: %w", err)
	}

	container, err := InitializeAuditLog(cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize audit log: %w", err)
	}

	if err := InitializeServices(ctx, container, cfg, policy, log); err != nil {
		container.Close()
		return nil, nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	jobs, err := RegisterJobs(container, cfg, log)
	if err != nil {
		container.Close()
		return nil, nil, fmt.Errorf("failed to register jobs: %w", err)
	}

	return container, jobs, nil
}
