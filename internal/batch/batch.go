// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch runs the search and extraction pipeline over a table of
// keyword pairs on a bounded pool of workers.
//
// Each row is an independent unit of work. A row that fails records its
// error and never stops the others. Results are stored by input index, so
// the report preserves input order whatever order the workers finish in.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/pdiddy/keyword-query/internal/search"
	"github.com/pdiddy/keyword-query/pkg/types"
)

// ErrNoSearcher is returned by Run when the coordinator has no Searcher.
var ErrNoSearcher = errors.New("batch: no searcher configured")

// Searcher finds candidate pages for a keyword pair.
type Searcher interface {
	Search(ctx context.Context, pair types.KeywordPair) (types.SearchResult, error)
}

// TextFetcher extracts the readable text of one page.
type TextFetcher interface {
	Extract(ctx context.Context, url string) (string, error)
}

// Sink receives each row as soon as it finishes. Implementations must be
// safe for concurrent use.
type Sink interface {
	Put(ctx context.Context, row types.RowResult) error
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithSearcher sets the search client.
func WithSearcher(s Searcher) Option { return func(c *Coordinator) { c.searcher = s } }

// WithFetcher sets the page extractor. Without one only searches run.
func WithFetcher(f TextFetcher) Option { return func(c *Coordinator) { c.fetcher = f } }

// WithRate limits search calls across all workers to perSecond. Zero or
// less means unlimited.
func WithRate(perSecond float64) Option {
	return func(c *Coordinator) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		} else {
			c.limiter = nil
		}
	}
}

// WithMaxPages sets how many result pages are extracted per row.
func WithMaxPages(n int) Option { return func(c *Coordinator) { c.maxPages = n } }

// WithSink hands every finished row to s.
func WithSink(s Sink) Option { return func(c *Coordinator) { c.sink = s } }

// WithLogger sets the logger used for per-row diagnostics.
func WithLogger(l zerolog.Logger) Option { return func(c *Coordinator) { c.log = l } }

// WithProgress writes one status line per finished row to w.
func WithProgress(w io.Writer) Option { return func(c *Coordinator) { c.progress = w } }

// Coordinator applies the pipeline to every row of a QueryBatch.
type Coordinator struct {
	batch types.QueryBatch
	cores int

	searcher Searcher
	fetcher  TextFetcher
	limiter  *rate.Limiter
	maxPages int
	sink     Sink
	log      zerolog.Logger

	progress   io.Writer
	progressMu sync.Mutex
	finished   atomic.Int64
}

// NewCoordinator captures the batch and the number of cores to spread work
// across. cores <= 0 means one worker per CPU; cores == 1 processes rows
// sequentially.
func NewCoordinator(batch types.QueryBatch, cores int, opts ...Option) *Coordinator {
	c := &Coordinator{
		batch:    batch,
		cores:    cores,
		maxPages: types.DefaultMaxPages,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Workers returns the pool size Run will use: the core count capped at the
// number of rows, and never less than one.
func (c *Coordinator) Workers() int {
	n := c.cores
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if rows := c.batch.Len(); rows > 0 && n > rows {
		n = rows
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Run processes every row and returns the report in input order. The only
// error it returns is the context's, after marking unstarted rows with it.
func (c *Coordinator) Run(ctx context.Context) (types.BatchReport, error) {
	rows := c.batch.Rows
	report := types.BatchReport{
		Rows:    make([]types.RowResult, len(rows)),
		Started: time.Now().UTC(),
	}
	if c.searcher == nil {
		report.Finished = report.Started
		return report, ErrNoSearcher
	}
	c.finished.Store(0)

	done := make([]bool, len(rows))

	var g errgroup.Group
	g.SetLimit(c.Workers())
	for i := range rows {
		if ctx.Err() != nil {
			break
		}
		// Go blocks while Workers() rows are in flight.
		g.Go(func() error {
			row := c.processRow(ctx, i, rows[i])
			report.Rows[i] = row
			done[i] = true
			c.emit(ctx, row, len(rows))
			return nil
		})
	}
	// Row failures live in RowResult.Err, so Wait only joins.
	_ = g.Wait()

	for i := range report.Rows {
		if !done[i] {
			report.Rows[i] = types.RowResult{
				Index: i,
				Pair:  rows[i],
				URLs:  []string{},
				Err:   ctx.Err().Error(),
			}
		}
		if report.Rows[i].Failed() {
			report.Failed++
		} else {
			report.Succeeded++
		}
	}
	report.Finished = time.Now().UTC()

	c.log.Info().
		Int("rows", len(rows)).
		Int("succeeded", report.Succeeded).
		Int("failed", report.Failed).
		Int("workers", c.Workers()).
		Dur("elapsed", report.Finished.Sub(report.Started)).
		Msg("batch finished")

	return report, ctx.Err()
}

// processRow runs search then extraction for one row. Panics are recovered
// into the row's error.
func (c *Coordinator) processRow(ctx context.Context, index int, pair types.KeywordPair) (row types.RowResult) {
	start := time.Now()
	row = types.RowResult{Index: index, Pair: pair, URLs: []string{}}
	log := c.log.With().Int("row", index).Str("pair", pair.String()).Logger()

	defer func() {
		if r := recover(); r != nil {
			row.Err = fmt.Sprintf("panic: %v", r)
			log.Error().Str("panic", fmt.Sprint(r)).Msg("row panicked")
		}
		row.Duration = time.Since(start)
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			row.Err = err.Error()
			return row
		}
	}

	res, err := c.searcher.Search(ctx, pair)
	switch {
	case errors.Is(err, search.ErrNoResults):
		log.Debug().Msg("no results")
		return row
	case err != nil:
		log.Warn().Err(err).Msg("search failed")
		row.Err = err.Error()
		return row
	}
	if res.URLs != nil {
		row.URLs = res.URLs
	}

	if c.fetcher == nil || c.maxPages <= 0 {
		return row
	}
	for _, u := range firstN(row.URLs, c.maxPages) {
		if ctx.Err() != nil {
			break
		}
		text, err := c.fetcher.Extract(ctx, u)
		if err != nil {
			log.Debug().Err(err).Str("url", u).Msg("extraction failed")
			text = ""
		}
		row.Pages = append(row.Pages, types.PageText{URL: u, Text: text})
	}
	return row
}

func (c *Coordinator) emit(ctx context.Context, row types.RowResult, total int) {
	if c.sink != nil {
		if err := c.sink.Put(ctx, row); err != nil {
			c.log.Warn().Err(err).Int("row", row.Index).Msg("sink rejected row")
		}
	}

	n := c.finished.Add(1)
	if c.progress == nil {
		return
	}
	c.progressMu.Lock()
	defer c.progressMu.Unlock()
	if row.Failed() {
		fmt.Fprintf(c.progress, "failed  %d/%d %s (%s)\n", n, total, row.Pair, row.Err)
		return
	}
	fmt.Fprintf(c.progress, "done    %d/%d %s (%d urls, %d pages)\n", n, total, row.Pair, len(row.URLs), len(row.Pages))
}

func firstN(urls []string, n int) []string {
	if len(urls) > n {
		return urls[:n]
	}
	return urls
}
