// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// boilerplate lists elements that never carry a page's main prose.
const boilerplate = "script, style, noscript, template, iframe, svg, form, nav, header, footer, aside"

// boilerplateRoles catches template regions marked up with ARIA roles
// instead of semantic elements.
const boilerplateRoles = `[role="navigation"], [role="banner"], [role="contentinfo"], [role="complementary"], [aria-hidden="true"]`

// fallbackBase stands in for the page URL when the caller has none; the
// readability parser resolves relative links against it.
var fallbackBase = &url.URL{Scheme: "http", Host: "localhost", Path: "/"}

// ExtractHTML returns the main text of an HTML document. Template elements
// are stripped first, then the readability scorer picks the densest content
// block. When it finds nothing the remaining body text is used. Whitespace is
// collapsed and the result truncated to maxLen bytes (0 means unlimited).
func ExtractHTML(body []byte, pageURL string, maxLen int) string {
	if len(bytes.TrimSpace(body)) == 0 {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	doc.Find(boilerplate).Remove()
	doc.Find(boilerplateRoles).Remove()

	text := readableText(doc, pageURL)
	if text == "" {
		text = normalizeSpace(doc.Find("body").Text())
	}
	return truncate(text, maxLen)
}

// readableText runs the readability scorer over the cleaned document.
func readableText(doc *goquery.Document, pageURL string) string {
	cleaned, err := doc.Html()
	if err != nil {
		return ""
	}

	base, err := url.Parse(pageURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		base = fallbackBase
	}

	article, err := readability.FromReader(strings.NewReader(cleaned), base)
	if err != nil {
		return ""
	}
	return normalizeSpace(article.TextContent)
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate cuts s to at most max bytes without splitting a UTF-8 sequence.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return strings.TrimSpace(s[:cut])
}
