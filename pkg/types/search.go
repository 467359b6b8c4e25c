// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for keyword-query: keyword
// pairs, search results, extracted page text, and batch reports.
package types

import "strings"

// KeywordPair is the unit of work for every query. Both keywords are sent
// verbatim as quoted phrases; their order does not matter to the provider.
type KeywordPair struct {
	Keyword1 string `json:"keyword1" yaml:"keyword1"`
	Keyword2 string `json:"keyword2" yaml:"keyword2"`
}

// IsEmpty reports whether either keyword is blank.
func (p KeywordPair) IsEmpty() bool {
	return strings.TrimSpace(p.Keyword1) == "" || strings.TrimSpace(p.Keyword2) == ""
}

// String renders the pair the way the provider query sees it.
func (p KeywordPair) String() string {
	return `"` + p.Keyword1 + `" "` + p.Keyword2 + `"`
}

// SearchResult holds the candidate pages returned by the search provider for
// one keyword pair. URLs keep provider order and may contain duplicates.
type SearchResult struct {
	Pair KeywordPair `json:"pair" yaml:"pair"`

	// URLs lists result page URLs (0-50 entries).
	URLs []string `json:"urls" yaml:"urls"`

	// TotalEstimatedMatches is the provider's estimate of the full match count.
	TotalEstimatedMatches int64 `json:"total_estimated_matches" yaml:"total_estimated_matches"`
}

// PageText is the readable text extracted from one page. Text may be empty.
type PageText struct {
	URL  string `json:"url" yaml:"url"`
	Text string `json:"text" yaml:"text"`
}
