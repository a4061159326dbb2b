package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded overrides",
	RunE:  runHistory,
}

var (
	historyBy     string
	historyFormat string
)

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historyBy, "by", "", "Only overrides authorized by this person")
	historyCmd.Flags().StringVar(&historyFormat, "format", "table", "Output format (table|json)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	if historyFormat != "table" && historyFormat != "json" {
		return fmt.Errorf("invalid format '%s', must be table or json", historyFormat)
	}

	container, err := loadContainer(cmd)
	if err != nil {
		return err
	}
	defer container.Close()

	records, err := container.Authority.History(cmd.Context(), historyBy)
	if err != nil {
		return err
	}

	if historyFormat == "json" {
		return printJSON(cmd.OutOrStdout(), records)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tRECORDED\tBY\tVERDICT\tEXPIRES\tREASON")
	for _, r := range records {
		expires := "-"
		if r.ExpiryDate != nil {
			expires = r.ExpiryDate.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(r.ID),
			r.Timestamp.Format("2006-01-02 15:04"),
			r.AuthorizedBy,
			r.VerdictType,
			expires,
			strings.ReplaceAll(r.Reason, "\n", " "),
		)
	}
	return w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
