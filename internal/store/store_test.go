// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/keyword-query/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.StoreConfig{Path: filepath.Join(t.TempDir(), "db", "results.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleReport() types.BatchReport {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return types.BatchReport{
		Rows: []types.RowResult{
			{
				Index: 0,
				Pair:  types.KeywordPair{Keyword1: "solar wind", Keyword2: "aurora"},
				URLs:  []string{"https://a.example/1", "https://b.example/2", "https://a.example/1"},
				Pages: []types.PageText{
					{URL: "https://a.example/1", Text: "The Aurora Borealis is driven by the solar wind."},
					{URL: "https://b.example/2", Text: ""},
				},
				Duration: 1200 * time.Millisecond,
			},
			{
				Index: 1,
				Pair:  types.KeywordPair{Keyword1: "coffee", Keyword2: "sleep"},
				URLs:  []string{},
				Err:   "search provider returned HTTP 401",
			},
		},
		Succeeded: 1,
		Failed:    1,
		Started:   start,
		Finished:  start.Add(2 * time.Second),
	}
}

// --- Open ---

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "k.db")
	s, err := Open(types.StoreConfig{Path: path})
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, path, s.Path())
	assert.FileExists(t, path)
}

func TestOpenTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "k.db")
	s1, err := Open(types.StoreConfig{Path: path})
	require.NoError(t, err)
	_, err = s1.SaveRun(context.Background(), sampleReport())
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(types.StoreConfig{Path: path})
	require.NoError(t, err)
	defer s2.Close()
	runs, err := s2.Runs(context.Background())
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

// --- SaveRun / Report ---

func TestSaveRunRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	want := sampleReport()

	id, err := s.SaveRun(ctx, want)
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	assert.NoError(t, err)

	got, err := s.Report(ctx, id)
	require.NoError(t, err)

	assert.True(t, want.Started.Equal(got.Started))
	assert.True(t, want.Finished.Equal(got.Finished))
	assert.Equal(t, 1, got.Succeeded)
	assert.Equal(t, 1, got.Failed)
	require.Len(t, got.Rows, 2)

	row := got.Rows[0]
	assert.Equal(t, want.Rows[0].Pair, row.Pair)
	assert.Equal(t, want.Rows[0].URLs, row.URLs, "duplicates and order kept")
	assert.Equal(t, want.Rows[0].Pages, row.Pages)
	assert.Equal(t, 1200*time.Millisecond, row.Duration)

	failed := got.Rows[1]
	assert.Equal(t, "search provider returned HTTP 401", failed.Err)
	assert.Empty(t, failed.URLs)
	assert.NotNil(t, failed.URLs)
}

func TestReportUnknownRun(t *testing.T) {
	s := testStore(t)
	_, err := s.Report(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFinishRunUnknown(t *testing.T) {
	s := testStore(t)
	err := s.FinishRun(context.Background(), "missing", sampleReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSaveRowReplaces(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	id, err := s.BeginRun(ctx, 1, time.Now())
	require.NoError(t, err)

	row := types.RowResult{
		Index: 0,
		Pair:  types.KeywordPair{Keyword1: "a", Keyword2: "b"},
		URLs:  []string{"https://x/1", "https://x/2"},
	}
	require.NoError(t, s.SaveRow(ctx, id, row))

	row.URLs = []string{"https://y/1"}
	require.NoError(t, s.SaveRow(ctx, id, row))

	got, err := s.Report(ctx, id)
	require.NoError(t, err)
	require.Len(t, got.Rows, 1)
	assert.Equal(t, []string{"https://y/1"}, got.Rows[0].URLs)
}

func TestEmptyTextKeepsStoredPage(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	id, err := s.BeginRun(ctx, 2, time.Now())
	require.NoError(t, err)

	url := "https://kept.example/"
	require.NoError(t, s.SaveRow(ctx, id, types.RowResult{
		Index: 0, Pair: types.KeywordPair{Keyword1: "a", Keyword2: "b"},
		URLs: []string{url}, Pages: []types.PageText{{URL: url, Text: "first text"}},
	}))
	require.NoError(t, s.SaveRow(ctx, id, types.RowResult{
		Index: 1, Pair: types.KeywordPair{Keyword1: "c", Keyword2: "d"},
		URLs: []string{url}, Pages: []types.PageText{{URL: url, Text: ""}},
	}))

	page, err := s.Page(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, "first text", page.Text)

	require.NoError(t, s.SaveRow(ctx, id, types.RowResult{
		Index: 1, Pair: types.KeywordPair{Keyword1: "c", Keyword2: "d"},
		URLs: []string{url}, Pages: []types.PageText{{URL: url, Text: "second text"}},
	}))
	page, err = s.Page(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, "second text", page.Text)
}

// --- Sink ---

func TestSinkConcurrentPut(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	id, err := s.BeginRun(ctx, 10, time.Now())
	require.NoError(t, err)
	sink := s.Sink(id)

	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func(i int) {
			errs <- sink.Put(ctx, types.RowResult{
				Index: i,
				Pair:  types.KeywordPair{Keyword1: "k", Keyword2: strings.Repeat("x", i+1)},
				URLs:  []string{"https://example.com/" + strings.Repeat("p", i+1)},
			})
		}(i)
	}
	for i := 0; i < 10; i++ {
		require.NoError(t, <-errs)
	}

	got, err := s.Report(ctx, id)
	require.NoError(t, err)
	require.Len(t, got.Rows, 10)
	for i, row := range got.Rows {
		assert.Equal(t, i, row.Index)
	}
}

// --- queries ---

func TestPageNotFound(t *testing.T) {
	s := testStore(t)
	_, err := s.Page(context.Background(), "https://nowhere/")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearchText(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	_, err := s.SaveRun(ctx, sampleReport())
	require.NoError(t, err)

	matches, err := s.SearchText(ctx, "aurora borealis", 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "https://a.example/1", matches[0].URL)
	assert.Contains(t, matches[0].Snippet, "Aurora Borealis")

	matches, err = s.SearchText(ctx, "nothing like this", 5)
	require.NoError(t, err)
	assert.Empty(t, matches)

	_, err = s.SearchText(ctx, "   ", 5)
	assert.Error(t, err)
}

func TestRuns(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	first := sampleReport()
	second := sampleReport()
	second.Started = first.Started.Add(time.Hour)
	second.Finished = second.Started.Add(time.Minute)

	id1, err := s.SaveRun(ctx, first)
	require.NoError(t, err)
	id2, err := s.SaveRun(ctx, second)
	require.NoError(t, err)

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, id2, runs[0].ID)
	assert.Equal(t, id1, runs[1].ID)
	assert.Equal(t, 2, runs[0].Rows)
	assert.Equal(t, 1, runs[0].Succeeded)
	assert.Equal(t, 1, runs[0].Failed)
}

func TestRunsNewestFirstWithinSecond(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	// The oldest run starts on a whole second.
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	older, err := s.BeginRun(ctx, 1, base)
	require.NoError(t, err)
	newer, err := s.BeginRun(ctx, 1, base.Add(100*time.Millisecond))
	require.NoError(t, err)
	newest, err := s.BeginRun(ctx, 1, base.Add(100*time.Millisecond+1234))
	require.NoError(t, err)

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{newest, newer, older}, []string{runs[0].ID, runs[1].ID, runs[2].ID})
	assert.True(t, base.Equal(runs[2].Started))
}

func TestTimeFormatSortsLexically(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	times := []time.Time{
		base,
		base.Add(123400 * time.Microsecond),
		base.Add(123456 * time.Microsecond),
		base.Add(time.Second),
	}
	for i := 1; i < len(times); i++ {
		prev := times[i-1].Format(timeFmt)
		cur := times[i].Format(timeFmt)
		assert.Less(t, prev, cur)
		assert.Len(t, cur, len(prev))
	}
}

func TestRunsUnfinished(t *testing.T) {
	s := testStore(t)
	_, err := s.BeginRun(context.Background(), 3, time.Now())
	require.NoError(t, err)

	runs, err := s.Runs(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].Finished.IsZero())
	assert.Equal(t, 3, runs[0].Rows)
}

func TestSnippet(t *testing.T) {
	long := strings.Repeat("a", 200) + " NEEDLE " + strings.Repeat("b", 200)
	got := snippet(long, "needle")
	assert.True(t, strings.HasPrefix(got, "..."))
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Contains(t, got, "NEEDLE")
	assert.Less(t, len(got), len(long))

	assert.Equal(t, "short text", snippet("short text", "text"))
}
