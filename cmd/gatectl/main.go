// Package main is the gatectl command line client. It runs the decision
// gates locally against a request file and manages override records.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aristath/gatekeeper/internal/config"
	"github.com/aristath/gatekeeper/internal/di"
	"github.com/aristath/gatekeeper/pkg/logger"
)

// exitBlocked is returned when a run ends in a blocking verdict
const exitBlocked = 2

var errBlocked = errors.New("portfolio action blocked")

var (
	policyFile   string
	auditBackend string
	auditPath    string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "gatectl",
	Short: "Run investment decision gates and manage overrides",
	Long: `gatectl evaluates a portfolio through the data integrity, intent,
structural and benchmark gates and prints the synthesized verdict.
Blocking verdicts exit with status 2 and can be overridden with an
audited acknowledgment.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&policyFile, "policy", "", "Gate policy YAML file (default: GATE_POLICY_FILE)")
	rootCmd.PersistentFlags().StringVar(&auditBackend, "audit-backend", "", "Audit backend: file or sqlite (default: AUDIT_BACKEND)")
	rootCmd.PersistentFlags().StringVar(&auditPath, "audit-path", "", "Audit log location (default: AUDIT_PATH)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log gate decisions to stderr")
}

// loadContainer builds the container from the environment and the global flags
func loadContainer(cmd *cobra.Command) (*di.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if policyFile != "" {
		cfg.PolicyFile = policyFile
	}
	if auditBackend != "" {
		cfg.AuditBackend = auditBackend
	}
	if auditPath != "" {
		cfg.AuditPath = auditPath
	}
	// Archiving is a server concern; the CLI never schedules it
	cfg.Archive.Enabled = false
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	log := logger.New(logger.Config{Level: level, Pretty: true, Output: os.Stderr})

	container, jobs, err := di.Wire(cmd.Context(), cfg, log)
	if err != nil {
		return nil, err
	}
	jobs.Scheduler.Stop()
	return container, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errBlocked) {
			os.Exit(exitBlocked)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
