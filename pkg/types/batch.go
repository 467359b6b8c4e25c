// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// QueryBatch is a table of keyword pairs submitted together.
type QueryBatch struct {
	Rows []KeywordPair `json:"rows" yaml:"rows"`
}

// Len returns the number of rows in the batch.
func (b QueryBatch) Len() int { return len(b.Rows) }

// RowResult is the outcome of the search and extraction pipeline for one
// batch row. Index is the row's position in the input batch.
type RowResult struct {
	Index    int           `json:"index" yaml:"index"`
	Pair     KeywordPair   `json:"pair" yaml:"pair"`
	URLs     []string      `json:"urls" yaml:"urls"`
	Pages    []PageText    `json:"pages,omitempty" yaml:"pages,omitempty"`
	Err      string        `json:"error,omitempty" yaml:"error,omitempty"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Failed reports whether the row ended in an error.
func (r RowResult) Failed() bool { return r.Err != "" }

// BatchReport collects every row result in input order plus run totals.
type BatchReport struct {
	Rows      []RowResult `json:"rows" yaml:"rows"`
	Succeeded int         `json:"succeeded" yaml:"succeeded"`
	Failed    int         `json:"failed" yaml:"failed"`
	Started   time.Time   `json:"started" yaml:"started"`
	Finished  time.Time   `json:"finished" yaml:"finished"`
}

// Total returns the number of rows processed.
func (r BatchReport) Total() int {
	return r.Succeeded + r.Failed
}

// HasFailures reports whether any row failed.
func (r BatchReport) HasFailures() bool {
	return r.Failed > 0
}
