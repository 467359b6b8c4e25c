// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pdiddy/keyword-query/pkg/types"
)

// ErrNotFound is returned when a page or run is not in the store.
var ErrNotFound = errors.New("not found")

const (
	defaultSearchLimit = 20
	snippetRadius      = 80
)

// RunSummary describes one stored batch run.
type RunSummary struct {
	ID        string    `json:"id" yaml:"id"`
	Started   time.Time `json:"started" yaml:"started"`
	Finished  time.Time `json:"finished,omitempty" yaml:"finished,omitempty"`
	Rows      int       `json:"rows" yaml:"rows"`
	Succeeded int       `json:"succeeded" yaml:"succeeded"`
	Failed    int       `json:"failed" yaml:"failed"`
}

// Match is a stored page whose text contains a search term.
type Match struct {
	URL     string `json:"url" yaml:"url"`
	Snippet string `json:"snippet" yaml:"snippet"`
}

// Page returns the stored text for url.
func (s *Store) Page(ctx context.Context, url string) (types.PageText, error) {
	var text string
	err := s.db.QueryRowContext(ctx, `SELECT text FROM pages WHERE url = ?`, url).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return types.PageText{}, fmt.Errorf("page %s: %w", url, ErrNotFound)
	}
	if err != nil {
		return types.PageText{}, fmt.Errorf("querying page: %w", err)
	}
	return types.PageText{URL: url, Text: text}, nil
}

// SearchText returns pages whose text contains term, ignoring ASCII case,
// most recently fetched first. limit <= 0 uses a default of 20.
func (s *Store) SearchText(ctx context.Context, term string, limit int) ([]Match, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, errors.New("search term is empty")
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT url, text FROM pages
		 WHERE instr(lower(text), lower(?)) > 0
		 ORDER BY fetched_at DESC, url
		 LIMIT ?`,
		term, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("searching pages: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var url, text string
		if err := rows.Scan(&url, &text); err != nil {
			return nil, fmt.Errorf("scanning page: %w", err)
		}
		matches = append(matches, Match{URL: url, Snippet: snippet(text, term)})
	}
	return matches, rows.Err()
}

// Runs lists stored runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started, COALESCE(finished, ''), row_count, succeeded, failed
		 FROM runs ORDER BY started DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var (
			r                 RunSummary
			started, finished string
		)
		if err := rows.Scan(&r.ID, &started, &finished, &r.Rows, &r.Succeeded, &r.Failed); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Started, _ = time.Parse(timeFmt, started)
		if finished != "" {
			r.Finished, _ = time.Parse(timeFmt, finished)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Report rebuilds the batch report of a stored run, rows in input order.
func (s *Store) Report(ctx context.Context, runID string) (types.BatchReport, error) {
	var (
		report            types.BatchReport
		started, finished string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT started, COALESCE(finished, ''), succeeded, failed FROM runs WHERE id = ?`, runID,
	).Scan(&started, &finished, &report.Succeeded, &report.Failed)
	if errors.Is(err, sql.ErrNoRows) {
		return report, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return report, fmt.Errorf("querying run: %w", err)
	}
	report.Started, _ = time.Parse(timeFmt, started)
	if finished != "" {
		report.Finished, _ = time.Parse(timeFmt, finished)
	}

	qrows, err := s.db.QueryContext(ctx,
		`SELECT row_index, keyword1, keyword2, COALESCE(error, ''), COALESCE(duration_ms, 0)
		 FROM queries WHERE run_id = ? ORDER BY row_index`, runID)
	if err != nil {
		return report, fmt.Errorf("querying rows: %w", err)
	}
	for qrows.Next() {
		var (
			r  types.RowResult
			ms int64
		)
		if err := qrows.Scan(&r.Index, &r.Pair.Keyword1, &r.Pair.Keyword2, &r.Err, &ms); err != nil {
			qrows.Close()
			return report, fmt.Errorf("scanning row: %w", err)
		}
		r.Duration = time.Duration(ms) * time.Millisecond
		r.URLs = []string{}
		report.Rows = append(report.Rows, r)
	}
	if err := qrows.Close(); err != nil {
		return report, err
	}

	byIndex := make(map[int]*types.RowResult, len(report.Rows))
	for i := range report.Rows {
		byIndex[report.Rows[i].Index] = &report.Rows[i]
	}

	lrows, err := s.db.QueryContext(ctx,
		`SELECT l.row_index, l.url, l.extracted, COALESCE(p.text, '')
		 FROM links l LEFT JOIN pages p ON p.url = l.url
		 WHERE l.run_id = ? ORDER BY l.row_index, l.rank`, runID)
	if err != nil {
		return report, fmt.Errorf("querying links: %w", err)
	}
	defer lrows.Close()
	for lrows.Next() {
		var (
			idx       int
			url, text string
			extracted bool
		)
		if err := lrows.Scan(&idx, &url, &extracted, &text); err != nil {
			return report, fmt.Errorf("scanning link: %w", err)
		}
		r, ok := byIndex[idx]
		if !ok {
			continue
		}
		r.URLs = append(r.URLs, url)
		if extracted {
			r.Pages = append(r.Pages, types.PageText{URL: url, Text: text})
		}
	}
	return report, lrows.Err()
}

// snippet returns up to snippetRadius bytes of context on each side of the
// first case-insensitive occurrence of term.
func snippet(text, term string) string {
	lower := strings.ToLower(text)
	idx := strings.Index(lower, strings.ToLower(term))
	if idx < 0 || len(lower) != len(text) {
		idx = 0
	}
	start := max(idx-snippetRadius, 0)
	end := min(idx+len(term)+snippetRadius, len(text))
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}

	out := strings.TrimSpace(text[start:end])
	if start > 0 {
		out = "..." + out
	}
	if end < len(text) {
		out += "..."
	}
	return out
}
