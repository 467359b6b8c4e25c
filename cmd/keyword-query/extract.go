// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/keyword-query/internal/extract"
	"github.com/pdiddy/keyword-query/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract <url>",
	Short: "Fetch a page and print its readable text",
	Long: `Extract downloads a single page, removes scripts, navigation, headers,
footers and other boilerplate, and prints the main text content.

A page that cannot be fetched or has an unsupported content type is an
error here; batch and query runs record an empty text instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if n, _ := cmd.Flags().GetInt("max-length"); n > 0 {
		cfg.Extraction.MaxTextLength = n
	}

	text, err := newExtractor(cfg).Extract(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if dir, _ := cmd.Flags().GetString("out-dir"); dir != "" {
		path, err := extract.SavePage(dir, types.PageText{URL: args[0], Text: text})
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved text to %s\n", path)
		return nil
	}
	fmt.Println(text)
	return nil
}

func init() {
	extractCmd.Flags().Int("max-length", 0, "truncate text to this many bytes (default from config)")
	extractCmd.Flags().String("out-dir", "", "write the text to a file in this directory instead of stdout")

	rootCmd.AddCommand(extractCmd)
}
