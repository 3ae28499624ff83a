package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/opencall-dev/opencall-cli/internal/model"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List ingest run history",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		runs, err := st.ListIngestRuns(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "runs")
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(runs)
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No ingest runs recorded.")
			return nil
		}
		formatIngestRuns(os.Stdout, runs)
		return nil
	},
}

func init() {
	runsCmd.Flags().Int("limit", 20, "max number of runs to display")
	runsCmd.Flags().Bool("json", false, "emit JSON instead of a table")
	rootCmd.AddCommand(runsCmd)
}

// formatIngestRuns writes a tabular run list to w.
func formatIngestRuns(out io.Writer, runs []model.IngestRun) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTARTED\tSTATUS\tPROCESSED\tNEW\tUPDATED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t-------\t------\t---------\t---\t-------\t--------")

	for _, r := range runs {
		processed, created, updated := 0, 0, 0
		if r.Summary != nil {
			processed = r.Summary.TotalProcessed()
			created = r.Summary.NewOpportunities
			updated = r.Summary.UpdatedOpportunities
		}

		dur := ""
		if r.CompletedAt != nil {
			dur = r.CompletedAt.Sub(r.StartedAt).Round(time.Second).String()
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			truncateID(r.ID),
			r.StartedAt.Format("2006-01-02 15:04"),
			r.Status,
			processed,
			created,
			updated,
			dur,
		)
	}
	_ = w.Flush()
}
