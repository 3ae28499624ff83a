package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/opencall-dev/opencall-cli/internal/feed"
	"github.com/opencall-dev/opencall-cli/internal/match"
	"github.com/opencall-dev/opencall-cli/internal/model"
	"github.com/opencall-dev/opencall-cli/internal/normalize"
	"github.com/opencall-dev/opencall-cli/internal/reconcile"
	"github.com/opencall-dev/opencall-cli/internal/store"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load platform exports and fold them into the opportunity set",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		inputDir, _ := cmd.Flags().GetString("input")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		if inputDir == "" {
			inputDir = cfg.Ingest.InputDir
		}

		batches, err := feed.LoadDir(ctx, inputDir)
		if err != nil {
			return err
		}

		var records []model.RawRecord
		var platforms []model.Platform
		for _, b := range batches {
			records = append(records, b.Records...)
			if b.Platform != "" {
				platforms = append(platforms, b.Platform)
			}
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		existing, err := st.LoadOpportunities(ctx, store.Filter{})
		if err != nil {
			return err
		}

		norm := normalize.New()
		norm.YearWindowDays = cfg.Reconcile.YearInferenceWindowDays
		norm.MaxDescription = cfg.Ingest.MaxDescriptionLen
		engine := reconcile.New(norm, match.New(cfg.Reconcile.FuzzyThreshold))

		runDate := time.Now().UTC()
		res := engine.Reconcile(runDate, records, existing)

		if dryRun {
			fmt.Fprintln(os.Stderr, "Dry run; nothing persisted.")
			formatSummary(os.Stdout, &res.Summary)
			return nil
		}

		run, err := st.CreateIngestRun(ctx, platforms)
		if err != nil {
			return err
		}

		persistErr := reconcile.Persist(ctx, st, res)

		status := model.IngestRunComplete
		if len(res.Summary.Uncommitted) > 0 {
			status = model.IngestRunPartial
		}
		if err := st.CompleteIngestRun(ctx, run.ID, status, &res.Summary); err != nil {
			return err
		}

		zap.L().Info("ingest finished",
			zap.String("run_id", run.ID),
			zap.String("status", string(status)),
			zap.Int("processed", res.Summary.TotalProcessed()),
			zap.Int("new", res.Summary.NewOpportunities),
			zap.Int("updated", res.Summary.UpdatedOpportunities))

		formatSummary(os.Stdout, &res.Summary)
		if persistErr != nil {
			return eris.Wrap(persistErr, "ingest")
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().String("input", "", "directory of export files (defaults to ingest.input_dir)")
	ingestCmd.Flags().Bool("dry-run", false, "reconcile without persisting")
	rootCmd.AddCommand(ingestCmd)
}

// formatSummary writes run counters to w.
func formatSummary(out io.Writer, s *model.RunSummary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Records processed:\t%d\n", s.TotalProcessed())
	for _, p := range model.KnownPlatforms {
		if n, ok := s.Processed[p]; ok {
			_, _ = fmt.Fprintf(w, "  %s:\t%d\n", p, n)
		}
	}
	_, _ = fmt.Fprintf(w, "New opportunities:\t%d\n", s.NewOpportunities)
	_, _ = fmt.Fprintf(w, "Updated opportunities:\t%d\n", s.UpdatedOpportunities)
	_, _ = fmt.Fprintf(w, "Change events:\t%d\n", s.ChangeEvents)
	_, _ = fmt.Fprintf(w, "Unparsed deadlines:\t%d\n", s.UnparsedDeadlines)
	_, _ = fmt.Fprintf(w, "Ambiguous matches:\t%d\n", s.AmbiguousMatches)
	_, _ = fmt.Fprintf(w, "Rejected records:\t%d\n", s.RejectedRecords)
	if len(s.Uncommitted) > 0 {
		_, _ = fmt.Fprintf(w, "Uncommitted:\t%d\n", len(s.Uncommitted))
	}
	_ = w.Flush()
}
