// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/keyword-query/internal/batch"
	"github.com/pdiddy/keyword-query/internal/store"
	"github.com/pdiddy/keyword-query/pkg/types"
)

var batchCmd = &cobra.Command{
	Use:   "batch <file.csv>",
	Short: "Run every keyword pair in a CSV file through search and extraction",
	Long: `Batch reads a CSV file whose header names the columns keyword1 and
keyword2, then processes every row in parallel: search, then text
extraction for the first --pages result URLs.

Rows are independent. A failed row is recorded with its error and the run
continues. Results are stored in the SQLite result store as each row
finishes, and a per-row table and summary are printed at the end. The
command exits non-zero when any row failed.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyBatchFlags(cmd, &cfg)

	queries, err := batch.LoadCSV(args[0])
	if err != nil {
		return err
	}
	if queries.Len() == 0 {
		fmt.Fprintln(os.Stderr, "batch: no keyword pairs in", args[0])
		return nil
	}

	client, err := newSearchClient(cmd, cfg)
	if err != nil {
		return err
	}

	opts := []batch.Option{
		batch.WithSearcher(client),
		batch.WithFetcher(newExtractor(cfg)),
		batch.WithRate(cfg.Batch.RatePerSecond),
		batch.WithMaxPages(cfg.Batch.MaxPages),
		batch.WithLogger(logger.With().Str("component", "batch").Logger()),
		batch.WithProgress(os.Stderr),
	}

	var (
		st    *store.Store
		runID string
	)
	if noStore, _ := cmd.Flags().GetBool("no-store"); !noStore {
		st, err = store.Open(cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()
		runID, err = st.BeginRun(cmd.Context(), queries.Len(), time.Now())
		if err != nil {
			return err
		}
		opts = append(opts, batch.WithSink(st.Sink(runID)))
	}

	coord := batch.NewCoordinator(queries, cfg.Batch.Workers, opts...)
	logger.Info().Int("rows", queries.Len()).Int("workers", coord.Workers()).Msg("starting batch")

	report, runErr := coord.Run(cmd.Context())
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	if st != nil {
		// The run context may be cancelled; record the final counts anyway.
		if err := st.FinishRun(context.WithoutCancel(cmd.Context()), runID, report); err != nil {
			logger.Error().Err(err).Str("run", runID).Msg("could not finish run")
		} else {
			fmt.Fprintf(os.Stderr, "Stored run %s in %s\n", runID, st.Path())
		}
	}

	batch.FormatReport(report, os.Stdout)

	if out, _ := cmd.Flags().GetString("out"); out != "" {
		if err := batch.WriteReport(out, report); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote report to %s\n", out)
	}

	if runErr != nil {
		return fmt.Errorf("batch interrupted: %w", runErr)
	}
	if report.HasFailures() {
		return fmt.Errorf("%d of %d row(s) failed", report.Failed, report.Total())
	}
	return nil
}

// applyBatchFlags overrides configuration with flags the user set.
func applyBatchFlags(cmd *cobra.Command, cfg *types.Config) {
	f := cmd.Flags()
	if f.Changed("workers") {
		cfg.Batch.Workers, _ = f.GetInt("workers")
	}
	if f.Changed("rate") {
		cfg.Batch.RatePerSecond, _ = f.GetFloat64("rate")
	}
	if f.Changed("pages") {
		cfg.Batch.MaxPages, _ = f.GetInt("pages")
	}
	if f.Changed("db") {
		cfg.Store.Path, _ = f.GetString("db")
	}
}

func init() {
	batchCmd.Flags().Int("workers", 0, "worker pool size (default one per CPU core)")
	batchCmd.Flags().Float64("rate", 0, "maximum search requests per second across workers (0 = unlimited)")
	batchCmd.Flags().Int("pages", types.DefaultMaxPages, "result pages to extract per row")
	batchCmd.Flags().String("db", types.DefaultStorePath, "SQLite result store path")
	batchCmd.Flags().Bool("no-store", false, "do not write results to the result store")
	batchCmd.Flags().String("out", "", "write the report to a .yaml or .json file")

	rootCmd.AddCommand(batchCmd)
}
