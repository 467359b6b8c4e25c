// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/keyword-query/internal/search"
	"github.com/pdiddy/keyword-query/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search <keyword1> <keyword2>",
	Short: "Search the web for pages containing both keywords",
	Long: `Search sends both keywords as quoted exact-phrase terms to the search
provider and prints the result URLs in provider order. A query with no
matches prints "No results found." and exits successfully.

Use --save to write the result (or the failure) to a YAML link file.`,
	Args: cobra.ExactArgs(2),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newSearchClient(cmd, cfg)
	if err != nil {
		return err
	}

	pair := types.KeywordPair{Keyword1: args[0], Keyword2: args[1]}
	res, searchErr := client.Search(cmd.Context(), pair)
	if errors.Is(searchErr, search.ErrNoResults) {
		res = types.SearchResult{Pair: pair, URLs: []string{}}
	}

	if path, _ := cmd.Flags().GetString("save"); path != "" {
		saveErr := searchErr
		if errors.Is(saveErr, search.ErrNoResults) {
			saveErr = nil
		}
		if err := search.WriteLinkFile(path, res, saveErr); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved %d link(s) to %s\n", len(res.URLs), path)
	}

	if searchErr != nil && !errors.Is(searchErr, search.ErrNoResults) {
		return searchErr
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return search.FormatJSON(res, os.Stdout)
	}
	search.FormatTable(res, os.Stdout)
	return nil
}

func init() {
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().String("save", "", "write the result to a YAML link file")

	rootCmd.AddCommand(searchCmd)
}
