package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/opencall-dev/opencall-cli/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show active opportunities and recent ingest runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		limit, _ := cmd.Flags().GetInt("limit")

		opps, err := st.LoadOpportunities(ctx, store.Filter{ActiveOnly: true, Limit: limit})
		if err != nil {
			return eris.Wrap(err, "status")
		}

		runs, err := st.ListIngestRuns(ctx, 5)
		if err != nil {
			return eris.Wrap(err, "status")
		}

		if len(opps) == 0 {
			fmt.Fprintln(os.Stdout, "No active opportunities.")
		} else {
			fmt.Fprintf(os.Stdout, "Active opportunities (%d):\n\n", len(opps))
			formatOpportunities(os.Stdout, opps)
		}

		fmt.Fprintln(os.Stdout)
		if len(runs) == 0 {
			fmt.Fprintln(os.Stdout, "No ingest runs recorded.")
		} else {
			fmt.Fprintln(os.Stdout, "Recent ingest runs:")
			fmt.Fprintln(os.Stdout)
			formatIngestRuns(os.Stdout, runs)
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().Int("limit", 25, "max number of active opportunities to display")
	rootCmd.AddCommand(statusCmd)
}
