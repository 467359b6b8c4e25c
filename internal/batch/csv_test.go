// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/keyword-query/pkg/types"
)

func TestReadCSV(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   []types.KeywordPair
		errMsg string
	}{
		{
			name:  "two rows",
			input: "keyword1,keyword2\nsolar wind,aurora\ncoffee,sleep\n",
			want: []types.KeywordPair{
				{Keyword1: "solar wind", Keyword2: "aurora"},
				{Keyword1: "coffee", Keyword2: "sleep"},
			},
		},
		{
			name:  "byte order mark and extra columns",
			input: "\ufeffkeyword1,keyword2,notes\nalpha,beta,ignored\n",
			want:  []types.KeywordPair{{Keyword1: "alpha", Keyword2: "beta"}},
		},
		{
			name:  "quoted phrases and surrounding spaces",
			input: "keyword1, keyword2\n\"new york, ny\",  subway \n",
			want:  []types.KeywordPair{{Keyword1: "new york, ny", Keyword2: "subway"}},
		},
		{
			name:  "blank rows skipped",
			input: "keyword1,keyword2\n\nalpha,beta\n,\n\ngamma,delta\n",
			want: []types.KeywordPair{
				{Keyword1: "alpha", Keyword2: "beta"},
				{Keyword1: "gamma", Keyword2: "delta"},
			},
		},
		{
			name:  "header only",
			input: "keyword1,keyword2\n",
			want:  nil,
		},
		{
			name:   "wrong header",
			input:  "first,second\nalpha,beta\n",
			errMsg: "column names (first, second) are not equal to (keyword1, keyword2)",
		},
		{
			name:   "single column header",
			input:  "keyword1\nalpha\n",
			errMsg: "column names (keyword1, ) are not equal",
		},
		{
			name:   "empty keyword",
			input:  "keyword1,keyword2\nalpha,beta\ngamma,\n",
			errMsg: "line 3: one or both of the keywords is empty",
		},
		{
			name:   "missing column",
			input:  "keyword1,keyword2\nalpha\n",
			errMsg: "line 2: expected 2 columns, got 1",
		},
		{
			name:   "empty file",
			input:  "",
			errMsg: "batch file is empty",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadCSV(strings.NewReader(tt.input))
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Rows)
		})
	}
}

func TestLoadCSV(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "pairs.CSV")
	require.NoError(t, os.WriteFile(good, []byte("keyword1,keyword2\nalpha,beta\n"), 0o644))
	b, err := LoadCSV(good)
	require.NoError(t, err)
	assert.Equal(t, 1, b.Len())

	txt := filepath.Join(dir, "pairs.txt")
	require.NoError(t, os.WriteFile(txt, []byte("keyword1,keyword2\nalpha,beta\n"), 0o644))
	_, err = LoadCSV(txt)
	assert.ErrorIs(t, err, ErrNotCSV)

	_, err = LoadCSV(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("a,b\n"), 0o644))
	_, err = LoadCSV(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.csv")
}

// --- reports ---

func sampleReport() types.BatchReport {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return types.BatchReport{
		Rows: []types.RowResult{
			{
				Index: 0,
				Pair:  types.KeywordPair{Keyword1: "alpha", Keyword2: "beta"},
				URLs:  []string{"http://a", "http://b"},
				Pages: []types.PageText{{URL: "http://a", Text: "alpha and beta"}, {URL: "http://b"}},
			},
			{
				Index: 1,
				Pair:  types.KeywordPair{Keyword1: "a very long keyword phrase indeed", Keyword2: "x"},
				URLs:  []string{},
				Err:   "search provider returned HTTP 401",
			},
		},
		Succeeded: 1,
		Failed:    1,
		Started:   start,
		Finished:  start.Add(1500 * time.Millisecond),
	}
}

func TestFormatReport(t *testing.T) {
	var buf bytes.Buffer
	FormatReport(sampleReport(), &buf)
	out := buf.String()

	assert.Contains(t, out, "alpha")
	assert.Contains(t, out, "a very long keyword ph...")
	assert.Contains(t, out, "failed: search provider returned HTTP 401")
	assert.Contains(t, out, "Batch summary: 1 succeeded, 1 failed (total: 2) in 1.5s")

	// Row 1 has two URLs but only one page with text.
	assert.Regexp(t, `1\s+alpha\s+beta\s+2\s+1\s+ok`, out)
}

func TestFormatReportClipsOnRuneBoundary(t *testing.T) {
	report := types.BatchReport{
		Rows: []types.RowResult{{
			Pair: types.KeywordPair{Keyword1: "a" + strings.Repeat("ä", 19), Keyword2: "b"},
			URLs: []string{},
		}},
		Succeeded: 1,
	}
	var buf bytes.Buffer
	FormatReport(report, &buf)
	assert.True(t, utf8.Valid(buf.Bytes()))
	assert.Contains(t, buf.String(), "a"+strings.Repeat("ä", 10)+"...")
}

func TestClip(t *testing.T) {
	assert.Equal(t, "short", clip("short", 25))
	assert.Equal(t, "abcdefg...", clip("abcdefghijklmnop", 10))
	for n := 4; n < 12; n++ {
		assert.True(t, utf8.ValidString(clip(strings.Repeat("日本", 10), n)), "max %d", n)
	}
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	report := sampleReport()

	jsonPath := filepath.Join(dir, "out", "report.json")
	require.NoError(t, WriteReport(jsonPath, report))
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var fromJSON types.BatchReport
	require.NoError(t, json.Unmarshal(data, &fromJSON))
	assert.Equal(t, report.Rows[0].URLs, fromJSON.Rows[0].URLs)
	assert.Equal(t, report.Rows[1].Err, fromJSON.Rows[1].Err)

	yamlPath := filepath.Join(dir, "report.yaml")
	require.NoError(t, WriteReport(yamlPath, report))
	data, err = os.ReadFile(yamlPath)
	require.NoError(t, err)
	var fromYAML types.BatchReport
	require.NoError(t, yaml.Unmarshal(data, &fromYAML))
	assert.Equal(t, 1, fromYAML.Succeeded)
	assert.Equal(t, "alpha and beta", fromYAML.Rows[0].Pages[0].Text)
}
