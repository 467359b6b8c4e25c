// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/keyword-query/internal/extract"
	"github.com/pdiddy/keyword-query/internal/search"
	"github.com/pdiddy/keyword-query/pkg/types"
)

var errEmptyKeywords = errors.New("one or both of the keywords is empty")

var queryCmd = &cobra.Command{
	Use:   "query <keyword1> <keyword2>",
	Short: "Search a keyword pair and extract text from the top results",
	Long: `Query runs one keyword pair end to end: it searches the provider, then
fetches the first --pages result URLs and extracts their text. Pages that
fail to download produce an empty text and do not stop the run.

Use --links to reuse a link file written by "search --save" instead of
calling the provider again, and --out-dir to save each page's text.`,
	Args: cobra.RangeArgs(0, 2),
	RunE: runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pages, _ := cmd.Flags().GetInt("pages")
	if pages < 0 {
		pages = cfg.Batch.MaxPages
	}

	var res types.SearchResult
	if linkPath, _ := cmd.Flags().GetString("links"); linkPath != "" {
		lf, err := search.ReadLinkFile(linkPath)
		if err != nil {
			return err
		}
		res = lf.Result()
	} else {
		pair, err := pairFromArgs(args)
		if err != nil {
			return err
		}
		client, err := newSearchClient(cmd, cfg)
		if err != nil {
			return err
		}
		res = types.SearchResult{Pair: pair, URLs: client.Links(cmd.Context(), pair.Keyword1, pair.Keyword2)}
	}

	search.FormatTable(res, os.Stdout)
	if len(res.URLs) == 0 || pages == 0 {
		return nil
	}

	outDir, _ := cmd.Flags().GetString("out-dir")
	ex := newExtractor(cfg)
	for i, u := range res.URLs {
		if i >= pages {
			break
		}
		text := ex.Text(cmd.Context(), u)
		fmt.Printf("\n=== %d. %s (%d bytes)\n", i+1, u, len(text))
		if outDir != "" {
			path, err := extract.SavePage(outDir, types.PageText{URL: u, Text: text})
			if err != nil {
				return err
			}
			fmt.Printf("saved to %s\n", path)
			continue
		}
		if text != "" {
			fmt.Println(text)
		}
	}
	return nil
}

// pairFromArgs builds the keyword pair, rejecting missing or blank keywords.
func pairFromArgs(args []string) (types.KeywordPair, error) {
	if len(args) != 2 {
		return types.KeywordPair{}, errEmptyKeywords
	}
	pair := types.KeywordPair{
		Keyword1: strings.TrimSpace(args[0]),
		Keyword2: strings.TrimSpace(args[1]),
	}
	if pair.IsEmpty() {
		return types.KeywordPair{}, errEmptyKeywords
	}
	return pair, nil
}

func init() {
	queryCmd.Flags().Int("pages", -1, "number of result pages to extract (default from config batch.max_pages)")
	queryCmd.Flags().String("links", "", "reuse links from a file written by search --save")
	queryCmd.Flags().String("out-dir", "", "save each page's text to this directory")

	rootCmd.AddCommand(queryCmd)
}
