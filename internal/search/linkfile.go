// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/keyword-query/pkg/types"
)

// LinkFile is the on-disk form of a saved search. Saving lets a later
// extraction run reuse the links without spending another API call.
type LinkFile struct {
	Pair                  types.KeywordPair `yaml:"pair"`
	URLs                  []string          `yaml:"urls"`
	TotalEstimatedMatches int64             `yaml:"total_estimated_matches"`
	Error                 string            `yaml:"error,omitempty"`
	Timestamp             time.Time         `yaml:"timestamp"`
}

// WriteLinkFile saves a search result, and the error that ended it if any,
// to a YAML file.
func WriteLinkFile(path string, res types.SearchResult, searchErr error) error {
	lf := LinkFile{
		Pair:                  res.Pair,
		URLs:                  res.URLs,
		TotalEstimatedMatches: res.TotalEstimatedMatches,
		Timestamp:             time.Now().UTC(),
	}
	if lf.URLs == nil {
		lf.URLs = []string{}
	}
	if searchErr != nil {
		lf.Error = searchErr.Error()
	}

	data, err := yaml.Marshal(&lf)
	if err != nil {
		return fmt.Errorf("marshaling link file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadLinkFile loads a previously saved search from disk.
func ReadLinkFile(path string) (*LinkFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading link file: %w", err)
	}
	var lf LinkFile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("parsing link file: %w", err)
	}
	return &lf, nil
}

// Result converts the saved file back into a SearchResult.
func (lf LinkFile) Result() types.SearchResult {
	return types.SearchResult{
		Pair:                  lf.Pair,
		URLs:                  lf.URLs,
		TotalEstimatedMatches: lf.TotalEstimatedMatches,
	}
}
