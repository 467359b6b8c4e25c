// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/keyword-query/pkg/types"
)

// FormatTable writes the result URLs as a numbered list to w.
func FormatTable(res types.SearchResult, w io.Writer) {
	if len(res.URLs) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %s\n", "Rank", "URL")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for i, u := range res.URLs {
		fmt.Fprintf(w, "%-4d  %s\n", i+1, u)
	}

	fmt.Fprintf(w, "\n%d results for %s", len(res.URLs), res.Pair)
	if res.TotalEstimatedMatches > int64(len(res.URLs)) {
		fmt.Fprintf(w, " (about %d matches)", res.TotalEstimatedMatches)
	}
	fmt.Fprintln(w)
}

// FormatJSON writes the result as indented JSON to w.
func FormatJSON(res types.SearchResult, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
