package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aristath/gatekeeper/internal/domain"
	"github.com/aristath/gatekeeper/internal/modules/gates"
)

var overrideCmd = &cobra.Command{
	Use:   "override <request.json>",
	Short: "Override a blocking verdict with an audited acknowledgment",
	Long: `Override re-runs the gates for the request and, when the verdict blocks,
records an acknowledgment against it. --verdict-type must name the blocking
verdict being acknowledged; a different verdict is rejected. The override
expires after --expires.

Example:
  gatectl override request.json --verdict-type INCONCLUSIVE_DATA_FAIL \
    --by risk-committee --reason "Accepting sparse history for newly listed ETF" --expires 720h`,
	Args: cobra.ExactArgs(1),
	RunE: runOverride,
}

var (
	overrideVerdict string
	overrideBy      string
	overrideReason  string
	overrideExpires time.Duration
)

func init() {
	rootCmd.AddCommand(overrideCmd)

	overrideCmd.Flags().StringVar(&overrideVerdict, "verdict-type", "", "Blocking verdict being acknowledged, e.g. INCONCLUSIVE_DATA_FAIL (required)")
	overrideCmd.Flags().StringVar(&overrideBy, "by", "", "Who authorizes the override (required)")
	overrideCmd.Flags().StringVar(&overrideReason, "reason", "", "Why the block is accepted (required)")
	overrideCmd.Flags().DurationVar(&overrideExpires, "expires", 30*24*time.Hour, "How long the override stays valid (0 for no expiry)")
	_ = overrideCmd.MarkFlagRequired("verdict-type")
	_ = overrideCmd.MarkFlagRequired("by")
	_ = overrideCmd.MarkFlagRequired("reason")
}

func runOverride(cmd *cobra.Command, args []string) error {
	req, err := readRequest(args[0])
	if err != nil {
		return err
	}

	container, err := loadContainer(cmd)
	if err != nil {
		return err
	}
	defer container.Close()

	_, runErr := container.Sequencer.Run(cmd.Context(), req)
	var blocked *gates.InconclusiveError
	if !errors.As(runErr, &blocked) {
		if runErr != nil {
			return fmt.Errorf("evaluation failed: %w", runErr)
		}
		return fmt.Errorf("verdict is not blocking, nothing to override")
	}

	now := time.Now().UTC()
	ack := domain.UserAcknowledgment{
		VerdictType:  domain.FinalVerdictType(strings.ToUpper(strings.TrimSpace(overrideVerdict))),
		AuthorizedBy: overrideBy,
		Reason:       overrideReason,
		Date:         now,
	}
	if overrideExpires > 0 {
		expiry := now.Add(overrideExpires)
		ack.ExpiryDate = &expiry
	}

	result, err := container.Authority.Apply(cmd.Context(), ack, blocked)
	if err != nil {
		return err
	}

	return printJSON(cmd.OutOrStdout(), map[string]interface{}{
		"result":   container.Sequencer.Summarize(result).Document(),
		"override": result.Override,
	})
}
