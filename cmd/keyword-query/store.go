// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/keyword-query/internal/batch"
	"github.com/pdiddy/keyword-query/internal/store"
	"github.com/pdiddy/keyword-query/pkg/types"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Query the result store (runs, page text)",
	Long: `Store inspects the SQLite database written by batch runs. Use
subcommands to list runs, print a run's report, show the stored text of a
page, or search stored page text.`,
}

// --- runs subcommand ---

var storeRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored batch runs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		runs, err := st.Runs(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return writeJSON(runs)
		}
		if len(runs) == 0 {
			fmt.Println("No runs stored.")
			return nil
		}

		fmt.Printf("%-36s  %-20s  %-5s  %-9s  %s\n", "Run", "Started", "Rows", "Succeeded", "Failed")
		fmt.Println(strings.Repeat("-", 85))
		for _, r := range runs {
			fmt.Printf("%-36s  %-20s  %-5d  %-9d  %d\n",
				r.ID, r.Started.Local().Format("2006-01-02 15:04:05"), r.Rows, r.Succeeded, r.Failed)
		}
		return nil
	},
}

// --- report subcommand ---

var storeReportCmd = &cobra.Command{
	Use:   "report <run-id>",
	Short: "Print the per-row report of a stored run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		report, err := st.Report(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if out, _ := cmd.Flags().GetString("out"); out != "" {
			return batch.WriteReport(out, report)
		}
		batch.FormatReport(report, os.Stdout)
		return nil
	},
}

// --- page subcommand ---

var storePageCmd = &cobra.Command{
	Use:   "page <url>",
	Short: "Print the stored text of a page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		page, err := st.Page(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(page.Text)
		return nil
	},
}

// --- search subcommand ---

var storeSearchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Find stored pages whose text contains a term",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		matches, err := st.SearchText(cmd.Context(), strings.Join(args, " "), limit)
		if err != nil {
			return err
		}
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return writeJSON(matches)
		}
		if len(matches) == 0 {
			fmt.Println("No results found.")
			return nil
		}
		for i, m := range matches {
			fmt.Printf("%-4d  %s\n      %s\n", i+1, m.URL, m.Snippet)
		}
		return nil
	},
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("db") {
		cfg.Store.Path, _ = cmd.Flags().GetString("db")
	}
	if _, err := os.Stat(cfg.Store.Path); err != nil {
		return nil, fmt.Errorf("result store %s: %w", cfg.Store.Path, err)
	}
	return store.Open(cfg.Store)
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	storeCmd.PersistentFlags().String("db", types.DefaultStorePath, "SQLite result store path")

	storeRunsCmd.Flags().Bool("json", false, "output runs as JSON")
	storeReportCmd.Flags().String("out", "", "write the report to a .yaml or .json file instead of stdout")
	storeSearchCmd.Flags().Int("limit", 20, "maximum number of pages to return")
	storeSearchCmd.Flags().Bool("json", false, "output matches as JSON")

	storeCmd.AddCommand(storeRunsCmd, storeReportCmd, storePageCmd, storeSearchCmd)
	rootCmd.AddCommand(storeCmd)
}
