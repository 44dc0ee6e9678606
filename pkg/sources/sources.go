// Package sources implements the two feed source adapters: the GDELT
// structured-API source and the Yahoo Finance HTML scrape source.
package sources

import (
	"context"

	"github.com/marketbrief/newsfeeds/internal/domain"
	"github.com/marketbrief/newsfeeds/pkg/httpclient"
)

// HTTPClient is the client contract the source adapters consume.
type HTTPClient = httpclient.Client

// Source produces the raw item list for one feed. Fatal fetch failures
// are returned as errors; per-item parse anomalies are dropped silently.
type Source interface {
	Name() string
	Fetch(ctx context.Context, feed domain.Feed) ([]domain.NewsItem, error)
}

// Enricher is implemented by sources that can fill in missing item
// fields with a secondary fetch. Enrichment is best effort and never
// fails the item.
type Enricher interface {
	Enrich(ctx context.Context, item domain.NewsItem) domain.NewsItem
}

const browserUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
