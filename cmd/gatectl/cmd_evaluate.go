package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/aristath/gatekeeper/internal/modules/gates"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <request.json>",
	Short: "Evaluate a portfolio through the decision gates",
	Long: `Evaluate reads an evaluation request (JSON, "-" for stdin), runs every
gate and prints the summary.

Examples:
  gatectl evaluate request.json
  cat request.json | gatectl evaluate -`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	req, err := readRequest(args[0])
	if err != nil {
		return err
	}

	container, err := loadContainer(cmd)
	if err != nil {
		return err
	}
	defer container.Close()

	result, runErr := container.Sequencer.Run(cmd.Context(), req)
	var blocked *gates.InconclusiveError
	if runErr != nil && !errors.As(runErr, &blocked) {
		return fmt.Errorf("evaluation failed: %w", runErr)
	}

	out := map[string]interface{}{
		"result": container.Sequencer.Summarize(result).Document(),
	}
	if blocked != nil {
		out["blocked"] = map[string]interface{}{
			"kind":               blocked.Kind(),
			"verdict_type":       blocked.VerdictType,
			"gates":              blocked.Gates,
			"evidence":           blocked.Evidence,
			"allowed_actions":    blocked.AllowedActions,
			"prohibited_actions": blocked.ProhibitedActions,
			"override_schema":    blocked.OverrideSchema(),
		}
	}
	if err := printJSON(cmd.OutOrStdout(), out); err != nil {
		return err
	}
	if blocked != nil {
		return errBlocked
	}
	return nil
}

// readRequest decodes and validates an evaluation request from a file or stdin
func readRequest(path string) (gates.EvaluationRequest, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return gates.EvaluationRequest{}, fmt.Errorf("failed to open request: %w", err)
		}
		defer f.Close()
		r = f
	}

	var req gates.EvaluationRequest
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return gates.EvaluationRequest{}, fmt.Errorf("failed to decode request: %w", err)
	}
	if err := validator.New().Struct(req); err != nil {
		return gates.EvaluationRequest{}, fmt.Errorf("invalid request: %w", err)
	}
	return req, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
