// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/keyword-query/pkg/types"
)

// FormatReport writes a per-row table and a summary line to w.
func FormatReport(report types.BatchReport, w io.Writer) {
	fmt.Fprintf(w, "%-5s  %-25s  %-25s  %-5s  %-5s  %s\n",
		"Row", "Keyword 1", "Keyword 2", "URLs", "Pages", "Status")
	fmt.Fprintln(w, strings.Repeat("-", 90))

	for _, r := range report.Rows {
		status := "ok"
		if r.Failed() {
			status = "failed: " + r.Err
		}
		fmt.Fprintf(w, "%-5d  %-25s  %-25s  %-5d  %-5d  %s\n",
			r.Index+1, clip(r.Pair.Keyword1, 25), clip(r.Pair.Keyword2, 25),
			len(r.URLs), textPages(r.Pages), status)
	}

	elapsed := report.Finished.Sub(report.Started).Round(time.Millisecond)
	fmt.Fprintf(w, "\nBatch summary: %d succeeded, %d failed (total: %d) in %v\n",
		report.Succeeded, report.Failed, report.Total(), elapsed)
}

// WriteReport saves the report as JSON when path ends in .json and as YAML
// otherwise.
func WriteReport(path string, report types.BatchReport) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(report, "", "  ")
	default:
		data, err = yaml.Marshal(&report)
	}
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// textPages counts pages that produced non-empty text.
func textPages(pages []types.PageText) int {
	n := 0
	for _, p := range pages {
		if p.Text != "" {
			n++
		}
	}
	return n
}

// clip shortens s to at most max bytes, cutting on a rune boundary.
func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
