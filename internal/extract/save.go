// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/keyword-query/pkg/types"
)

// Slug returns a filesystem-safe filename stem for a page URL: the host
// followed by a short hash of the full URL.
func Slug(pageURL string) string {
	h := sha256.Sum256([]byte(pageURL))
	host := "page"
	if u, err := url.Parse(pageURL); err == nil && u.Hostname() != "" {
		host = strings.NewReplacer(".", "-", ":", "-").Replace(u.Hostname())
	}
	return fmt.Sprintf("%s-%x", host, h[:6])
}

// SavePage writes the page text to dir/<slug>.txt using a temporary file
// renamed on success, and returns the final path.
func SavePage(dir string, page types.PageText) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating directory %s: %w", dir, err)
	}
	dest := filepath.Join(dir, Slug(page.URL)+".txt")

	tmp, err := os.CreateTemp(dir, ".page-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	content := page.URL + "\n\n" + page.Text + "\n"
	_, writeErr := tmp.WriteString(content)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing page text: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("renaming temp file: %w", err)
	}
	return dest, nil
}
