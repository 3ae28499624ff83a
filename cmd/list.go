package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/opencall-dev/opencall-cli/internal/model"
	"github.com/opencall-dev/opencall-cli/internal/store"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List canonical opportunities",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		platform, _ := cmd.Flags().GetString("platform")
		activeOnly, _ := cmd.Flags().GetBool("active")
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		opps, err := st.LoadOpportunities(ctx, store.Filter{
			Platform:   model.Platform(platform),
			ActiveOnly: activeOnly,
			Limit:      limit,
		})
		if err != nil {
			return eris.Wrap(err, "list")
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(opps)
		}

		if len(opps) == 0 {
			fmt.Fprintln(os.Stderr, "No opportunities found.")
			return nil
		}
		formatOpportunities(os.Stdout, opps)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <opportunity-id>",
	Short: "Show the change history of an opportunity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		limit, _ := cmd.Flags().GetInt("limit")
		events, err := st.ListChangeEvents(ctx, args[0], limit)
		if err != nil {
			return eris.Wrap(err, "history")
		}

		if len(events) == 0 {
			fmt.Fprintln(os.Stderr, "No change events recorded.")
			return nil
		}
		formatChangeEvents(os.Stdout, events)
		return nil
	},
}

func init() {
	listCmd.Flags().String("platform", "", "only opportunities seen on this platform")
	listCmd.Flags().Bool("active", false, "only opportunities whose deadline has not passed")
	listCmd.Flags().Int("limit", 50, "max number of opportunities to display")
	listCmd.Flags().Bool("json", false, "emit JSON instead of a table")

	historyCmd.Flags().Int("limit", 100, "max number of events to display")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(historyCmd)
}

// formatOpportunities writes a tabular opportunity list to w.
func formatOpportunities(out io.Writer, opps []model.Opportunity) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTITLE\tDEADLINE\tFEE\tPLATFORMS\tSEEN")
	_, _ = fmt.Fprintln(w, "--\t-----\t--------\t---\t---------\t----")

	for _, o := range opps {
		deadline := o.DeadlineRaw
		if o.Deadline != nil {
			deadline = o.Deadline.Format("2006-01-02")
		}

		title := o.Title
		if len(title) > 40 {
			title = title[:37] + "..."
		}

		platforms := ""
		for i, p := range o.Platforms {
			if i > 0 {
				platforms += ","
			}
			platforms += string(p)
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
			truncateID(o.ID),
			title,
			deadline,
			o.Fee.String(),
			platforms,
			o.TimesSeen,
		)
	}
	_ = w.Flush()
}

// formatChangeEvents writes a tabular event list to w.
func formatChangeEvents(out io.Writer, events []model.ChangeEvent) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "WHEN\tFIELD\tKIND\tPLATFORM\tOLD\tNEW")
	_, _ = fmt.Fprintln(w, "----\t-----\t----\t--------\t---\t---")

	for _, ev := range events {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			ev.OccurredAt.Format("2006-01-02 15:04"),
			ev.Field,
			ev.Kind,
			ev.Platform,
			clip(ev.OldValue, 30),
			clip(ev.NewValue, 30),
		)
	}
	_ = w.Flush()
}

func clip(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
