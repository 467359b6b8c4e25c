// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries a web search provider for pages that mention both
// keywords of a pair.
//
// Client.Search reports why a query produced no URLs (no matches, failed
// request, malformed response). Client.Links is the never-failing variant
// used by callers that only want a list: every failure collapses to an empty
// slice and the cause goes to the log.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/pdiddy/keyword-query/internal/httputil"
	"github.com/pdiddy/keyword-query/pkg/types"
)

// SubscriptionKeyHeader carries the API key on every request.
const SubscriptionKeyHeader = "Ocp-Apim-Subscription-Key"

const maxCount = 50

// MaxResponseBytes caps how much of a provider response is read.
var MaxResponseBytes int64 = 4 << 20

var (
	// ErrNoResults means the provider answered but estimated zero matches.
	ErrNoResults = errors.New("no results")

	// ErrRequestFailed means the request could not be sent or the provider
	// answered with a non-200 status.
	ErrRequestFailed = errors.New("search request failed")

	// ErrMalformedResponse means a 200 response did not have the expected shape.
	ErrMalformedResponse = errors.New("malformed search response")
)

// StatusError reports a non-200 provider response. It matches
// ErrRequestFailed under errors.Is.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("search provider returned HTTP %d", e.StatusCode)
}

// Is makes StatusError match ErrRequestFailed.
func (e *StatusError) Is(target error) bool {
	return target == ErrRequestFailed
}

// Client queries the search provider. The API key is fixed at construction.
type Client struct {
	HTTP   *http.Client
	Config types.SearchConfig
	Log    zerolog.Logger

	apiKey string
}

// New returns a Client that authenticates with apiKey. A nil httpClient is
// replaced with one using cfg.Timeout.
func New(apiKey string, httpClient *http.Client, cfg types.SearchConfig) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		HTTP:   httpClient,
		Config: cfg,
		Log:    zerolog.Nop(),
		apiKey: apiKey,
	}
}

// Links returns result URLs for the pair k1/k2, or an empty slice on any
// failure. It never returns nil.
func (c *Client) Links(ctx context.Context, k1, k2 string) []string {
	pair := types.KeywordPair{Keyword1: k1, Keyword2: k2}
	res, err := c.Search(ctx, pair)
	if err != nil {
		ev := c.Log.Warn()
		if errors.Is(err, ErrNoResults) {
			ev = c.Log.Debug()
		}
		ev.Err(err).Str("pair", pair.String()).Msg("search returned no links")
		return []string{}
	}
	return res.URLs
}

// Search issues a single GET for the quoted pair and returns the provider's
// result URLs in order. On error the returned result still carries the pair
// and an empty (non-nil) URL list.
func (c *Client) Search(ctx context.Context, pair types.KeywordPair) (types.SearchResult, error) {
	result := types.SearchResult{Pair: pair, URLs: []string{}}

	params := url.Values{
		"q":     {pair.String()},
		"count": {strconv.Itoa(c.count())},
	}
	reqURL := c.endpoint() + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return result, fmt.Errorf("%w: creating request: %w", ErrRequestFailed, err)
	}
	req.Header.Set(SubscriptionKeyHeader, c.apiKey)
	if c.Config.UserAgent != "" {
		req.Header.Set("User-Agent", c.Config.UserAgent)
	}

	resp, err := httputil.DoWithRetry(c.Log.WithContext(ctx), c.HTTP, req, c.Config.MaxRetries)
	if err != nil {
		return result, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return result, &StatusError{StatusCode: resp.StatusCode}
	}

	data, err := httputil.ReadLimited(resp.Body, MaxResponseBytes)
	if err != nil {
		return result, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	var body webSearchResponse
	if err := json.Unmarshal(data, &body); err != nil {
		return result, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	urls, total, err := body.links()
	if err != nil {
		return result, err
	}
	result.TotalEstimatedMatches = total
	if total == 0 {
		return result, ErrNoResults
	}
	result.URLs = urls
	return result, nil
}

func (c *Client) endpoint() string {
	if c.Config.Endpoint != "" {
		return c.Config.Endpoint
	}
	return types.DefaultEndpoint
}

// count clamps the configured result count to 1..50.
func (c *Client) count() int {
	n := c.Config.Count
	if n <= 0 || n > maxCount {
		return maxCount
	}
	return n
}

// Web search API JSON structures.
type webSearchResponse struct {
	Type     string        `json:"_type"`
	WebPages *webPages     `json:"webPages"`
	Errors   []searchError `json:"errors"`
}

type webPages struct {
	TotalEstimatedMatches *int64    `json:"totalEstimatedMatches"`
	Value                 []webPage `json:"value"`
}

type webPage struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type searchError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// links validates the decoded body. A response with no webPages section is
// how the provider reports an empty result set, so it counts as zero matches.
func (r webSearchResponse) links() ([]string, int64, error) {
	if r.Type == "ErrorResponse" {
		msg := "unknown error"
		if len(r.Errors) > 0 {
			msg = r.Errors[0].Code + ": " + r.Errors[0].Message
		}
		return nil, 0, fmt.Errorf("%w: provider error %s", ErrMalformedResponse, msg)
	}
	if r.WebPages == nil {
		return nil, 0, nil
	}
	if r.WebPages.TotalEstimatedMatches == nil {
		return nil, 0, fmt.Errorf("%w: missing webPages.totalEstimatedMatches", ErrMalformedResponse)
	}

	urls := make([]string, 0, len(r.WebPages.Value))
	for _, p := range r.WebPages.Value {
		urls = append(urls, p.URL)
	}
	return urls, *r.WebPages.TotalEstimatedMatches, nil
}
