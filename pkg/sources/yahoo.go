package sources

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/marketbrief/newsfeeds/internal/canonical"
	"github.com/marketbrief/newsfeeds/internal/domain"
	"github.com/marketbrief/newsfeeds/internal/logger"
	"github.com/marketbrief/newsfeeds/pkg/fetch"
	"github.com/marketbrief/newsfeeds/pkg/httpclient"
)

const (
	yahooSourceName   = "yahoo"
	yahooQuoteURL     = "https://finance.yahoo.com/quote/%s/news/"
	yahooFallbackURL  = "https://finance.yahoo.com/topic/stock-market-news/"
	yahooDefaultLabel = "Yahoo Finance"

	defaultMaxItems = 80
	// Raw parse counts above this trigger a truncation warning.
	truncationWarnAt = 500
)

var yahooHeaders = map[string]string{
	"User-Agent":      browserUserAgent,
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.9",
}

// YahooSource scrapes a per-ticker Yahoo Finance news page, falling back
// to the generic market-news page when the ticker page is unavailable.
// The DOM heuristics here track Yahoo's current markup and are expected
// to degrade (fewer extracted fields, not errors) when it changes.
type YahooSource struct {
	fetcher     *fetch.Fetcher
	log         logger.Logger
	quoteURL    string
	fallbackURL string
	maxItems    int
}

// NewYahooSource builds the HTML scrape source adapter. Non-positive
// maxItems falls back to the default of 80.
func NewYahooSource(client httpclient.Client, log logger.Logger, maxItems int) *YahooSource {
	if log == nil {
		log = logger.NopLogger{}
	}
	if maxItems <= 0 {
		maxItems = defaultMaxItems
	}
	return &YahooSource{
		fetcher:     fetch.NewFetcher(client, log),
		log:         log,
		quoteURL:    yahooQuoteURL,
		fallbackURL: yahooFallbackURL,
		maxItems:    maxItems,
	}
}

func (s *YahooSource) Name() string { return yahooSourceName }

// Fetch scrapes the feed's ticker page. A 404 or any other 4xx on the
// primary page triggers the fallback page plus query filtering; any
// other failure is fatal for the feed.
func (s *YahooSource) Fetch(ctx context.Context, feed domain.Feed) ([]domain.NewsItem, error) {
	primary := fmt.Sprintf(s.quoteURL, feed.Ticker)

	var items []domain.NewsItem
	label := "primary"

	body, err := s.fetcher.Fetch(ctx, primary, fetch.Options{Headers: yahooHeaders, SkipNotFound: true})
	switch {
	case err == nil:
		items, err = parseNewsItems(body, primary)
		if err != nil {
			return nil, err
		}
	case errors.Is(err, fetch.ErrSkip) || fetch.IsClientError(err):
		s.log.WarnObj("primary page unavailable, using fallback", "yahoo_fallback", map[string]any{
			"ticker": feed.Ticker,
			"error":  err.Error(),
		})
		items, err = s.fetchFallback(ctx, feed)
		if err != nil {
			return nil, err
		}
		label = "fallback"
	default:
		return nil, fmt.Errorf("fetch news page for %s: %w", feed.Ticker, err)
	}

	if len(items) == 0 {
		s.log.WarnObj("no items parsed", "yahoo_empty", map[string]any{
			"ticker": feed.Ticker,
			"page":   label,
		})
	}
	if len(items) > truncationWarnAt {
		s.log.WarnObj("truncating parsed items", "yahoo_truncation", map[string]any{
			"ticker": feed.Ticker,
			"parsed": len(items),
			"kept":   s.maxItems,
		})
	}
	if len(items) > s.maxItems {
		items = items[:s.maxItems]
	}

	s.log.InfoObj("news page parsed", "yahoo_parsed", map[string]any{
		"ticker": feed.Ticker,
		"page":   label,
		"items":  len(items),
	})
	return items, nil
}

// fetchFallback scrapes the generic market-news page and keeps only the
// items matching the feed's ticker or query phrases.
func (s *YahooSource) fetchFallback(ctx context.Context, feed domain.Feed) ([]domain.NewsItem, error) {
	body, err := s.fetcher.Fetch(ctx, s.fallbackURL, fetch.Options{Headers: yahooHeaders, SkipNotFound: true})
	if err != nil {
		return nil, fmt.Errorf("fetch fallback page: %w", err)
	}

	all, err := parseNewsItems(body, s.fallbackURL)
	if err != nil {
		return nil, err
	}

	matched := make([]domain.NewsItem, 0, len(all))
	for _, item := range all {
		if matchesQuery(item, feed) {
			matched = append(matched, item)
		}
	}
	return matched, nil
}

// Enrich fills in a missing summary with one extra fetch of the article
// page, reading its meta description. Any failure keeps the item as is.
func (s *YahooSource) Enrich(ctx context.Context, item domain.NewsItem) domain.NewsItem {
	if item.Summary != "" {
		return item
	}

	body, err := s.fetcher.Fetch(ctx, item.Link, fetch.Options{Headers: yahooHeaders, SkipNotFound: true})
	if err != nil {
		s.log.WarnObj("summary fetch failed", "yahoo_summary_error", map[string]any{
			"url":   item.Link,
			"error": err.Error(),
		})
		return item
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		s.log.WarnObj("summary page parse failed", "yahoo_summary_error", map[string]any{
			"url":   item.Link,
			"error": err.Error(),
		})
		return item
	}

	desc := metaContent(doc, `meta[name="description"]`)
	if desc == "" {
		desc = metaContent(doc, `meta[property="og:description"]`)
	}
	if desc != "" {
		item.Summary = desc
	}
	return item
}

// parseNewsItems extracts news anchors from the page HTML. Anchors whose
// href lacks a "/news/" segment or whose text is empty are dropped, and
// repeated anchors to the same canonical link collapse to the first one.
func parseNewsItems(body []byte, baseURL string) ([]domain.NewsItem, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse news page: %w", err)
	}

	var items []domain.NewsItem
	seen := make(map[string]struct{})

	doc.Find("a[href]").Each(func(_ int, anchor *goquery.Selection) {
		href, _ := anchor.Attr("href")
		if !strings.Contains(href, "/news/") {
			return
		}
		title := strings.TrimSpace(anchor.Text())
		if title == "" {
			return
		}

		link := canonical.Resolve(href, baseURL)
		if _, dup := seen[link]; dup {
			return
		}
		seen[link] = struct{}{}

		container := anchor.Closest("article, li, div")
		source := extractSource(container)
		if source == "" {
			source = yahooDefaultLabel
		}

		items = append(items, domain.NewsItem{
			Title:     title,
			Link:      link,
			Published: extractTime(container),
			Source:    source,
			Summary:   extractSummary(container),
		})
	})

	return items, nil
}

// extractTime prefers a machine-readable datetime attribute on the
// container's time element, falling back to its display text.
func extractTime(container *goquery.Selection) string {
	if container.Length() == 0 {
		return ""
	}
	timeTag := container.Find("time").First()
	if timeTag.Length() == 0 {
		return ""
	}
	if dt, ok := timeTag.Attr("datetime"); ok {
		return strings.TrimSpace(dt)
	}
	return strings.TrimSpace(timeTag.Text())
}

// extractSource looks for a publisher-styled element, then a labeled
// source element. Empty means the caller applies the default label.
func extractSource(container *goquery.Selection) string {
	if container.Length() == 0 {
		return ""
	}

	var publisher string
	container.Find("span, div").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if class, ok := sel.Attr("class"); ok && strings.Contains(class, "publisher") {
			publisher = strings.TrimSpace(sel.Text())
			return false
		}
		return true
	})
	if publisher != "" {
		return publisher
	}

	label := container.Find(`span[data-test="source"]`).First()
	if label.Length() > 0 {
		return strings.TrimSpace(label.Text())
	}
	return ""
}

// extractSummary takes the container's first paragraph text.
func extractSummary(container *goquery.Selection) string {
	if container.Length() == 0 {
		return ""
	}
	p := container.Find("p").First()
	if p.Length() == 0 {
		return ""
	}
	return strings.TrimSpace(p.Text())
}

// extractQueryPhrases pulls the double-quoted phrases out of a query
// string, scanning matched quote pairs left to right. An unterminated
// quote stops extraction without error.
func extractQueryPhrases(query string) []string {
	var phrases []string
	rest := query
	for {
		open := strings.Index(rest, `"`)
		if open == -1 {
			break
		}
		rest = rest[open+1:]
		end := strings.Index(rest, `"`)
		if end == -1 {
			break
		}
		if phrase := strings.TrimSpace(rest[:end]); phrase != "" {
			phrases = append(phrases, strings.ToLower(phrase))
		}
		rest = rest[end+1:]
	}
	return phrases
}

// matchesQuery reports whether an item's title+summary mentions the
// feed's ticker or any quoted phrase from its query, case folded.
func matchesQuery(item domain.NewsItem, feed domain.Feed) bool {
	text := strings.ToLower(item.Title + " " + item.Summary)
	if strings.Contains(text, strings.ToLower(feed.Ticker)) {
		return true
	}
	for _, phrase := range extractQueryPhrases(feed.Query) {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

// metaContent returns the trimmed content attribute of the first
// element matching the selector.
func metaContent(doc *goquery.Document, selector string) string {
	node := doc.Find(selector).First()
	if node.Length() == 0 {
		return ""
	}
	if content, ok := node.Attr("content"); ok {
		return strings.TrimSpace(content)
	}
	return ""
}
