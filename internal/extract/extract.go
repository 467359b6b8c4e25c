// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract fetches web pages and reduces them to their main readable
// text, dropping navigation, banners, footers and other template content.
package extract

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/pdiddy/keyword-query/internal/httputil"
	"github.com/pdiddy/keyword-query/pkg/types"
)

var (
	// ErrFetchFailed means the page could not be retrieved with HTTP 200.
	ErrFetchFailed = errors.New("page fetch failed")

	// ErrUnsupportedContent means the page is not HTML or plain text.
	ErrUnsupportedContent = errors.New("unsupported content type")
)

// Extractor fetches pages and extracts their text.
type Extractor struct {
	HTTP   *http.Client
	Config types.ExtractionConfig
	Log    zerolog.Logger
}

// New returns an Extractor. A nil httpClient is replaced with one using
// cfg.Timeout.
func New(httpClient *http.Client, cfg types.ExtractionConfig) *Extractor {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Extractor{
		HTTP:   httpClient,
		Config: cfg,
		Log:    zerolog.Nop(),
	}
}

// Text returns the main text of the page at pageURL, or "" on any failure.
// It never returns an error; the cause is logged.
func (e *Extractor) Text(ctx context.Context, pageURL string) string {
	text, err := e.Extract(ctx, pageURL)
	if err != nil {
		e.Log.Warn().Err(err).Str("url", pageURL).Msg("text extraction failed")
		return ""
	}
	return text
}

// Extract fetches pageURL and returns its main text. The text may be empty
// when the page has no readable content.
func (e *Extractor) Extract(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: creating request: %w", ErrFetchFailed, err)
	}
	if e.Config.UserAgent != "" {
		req.Header.Set("User-Agent", e.Config.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.8")

	resp, err := httputil.DoWithRetry(e.Log.WithContext(ctx), e.HTTP, req, e.Config.MaxRetries)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: HTTP %d from %s", ErrFetchFailed, resp.StatusCode, pageURL)
	}

	kind, err := contentKind(resp.Header.Get("Content-Type"))
	if err != nil {
		return "", err
	}

	body, err := httputil.ReadLimited(resp.Body, e.maxBody())
	if errors.Is(err, httputil.ErrBodyTooLarge) {
		e.Log.Debug().Str("url", pageURL).Int64("limit", e.maxBody()).Msg("page body truncated")
	} else if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	if kind == kindText {
		return truncate(normalizeSpace(string(body)), e.Config.MaxTextLength), nil
	}
	return ExtractHTML(body, pageURL, e.Config.MaxTextLength), nil
}

func (e *Extractor) maxBody() int64 {
	if e.Config.MaxBodyBytes > 0 {
		return e.Config.MaxBodyBytes
	}
	return types.DefaultMaxBodyBytes
}

type pageKind int

const (
	kindHTML pageKind = iota
	kindText
)

// contentKind classifies a Content-Type header. A missing header is treated
// as HTML.
func contentKind(header string) (pageKind, error) {
	if header == "" {
		return kindHTML, nil
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedContent, header)
	}
	switch mediaType {
	case "text/html", "application/xhtml+xml":
		return kindHTML, nil
	case "text/plain":
		return kindText, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedContent, mediaType)
	}
}
