// Package ingest drives the per-feed pipeline: fetch, canonicalize,
// dedup against the seen-set store, enrich, and append the new-record
// batch to the dataset.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/marketbrief/newsfeeds/internal/canonical"
	"github.com/marketbrief/newsfeeds/internal/domain"
	"github.com/marketbrief/newsfeeds/internal/logger"
	"github.com/marketbrief/newsfeeds/internal/seenstore"
	"github.com/marketbrief/newsfeeds/pkg/publishers"
	"github.com/marketbrief/newsfeeds/pkg/sources"
)

// Appender is the dataset sink contract: one batch, one append.
type Appender interface {
	Append(records []domain.Record) error
}

// Result reports per-feed counts.
type Result struct {
	Feed    string
	New     int
	Skipped int
}

// Ingestor runs the pipeline for one source over any number of feeds.
type Ingestor struct {
	source sources.Source
	store  seenstore.Store
	sink   Appender
	pubs   []publishers.Publisher
	log    logger.Logger
	now    func() time.Time
}

// NewIngestor wires the pipeline collaborators together. Publishers are
// optional; a nil logger falls back to the no-op logger.
func NewIngestor(source sources.Source, store seenstore.Store, sink Appender, pubs []publishers.Publisher, log logger.Logger) *Ingestor {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Ingestor{
		source: source,
		store:  store,
		sink:   sink,
		pubs:   pubs,
		log:    log,
		now:    time.Now,
	}
}

// IngestFeed processes one feed. Every item is canonicalized, content
// addressed and checked against the seen set; new items are enriched,
// marked seen immediately and collected into the batch, which is
// appended in one operation at the end.
//
// Seen-set inserts commit before the append. On an append failure the
// ids stay seen and the batch is dropped for this run: the pipeline
// never writes a duplicate row, at the cost of possibly losing rows
// when the sink fails.
func (in *Ingestor) IngestFeed(ctx context.Context, feed domain.Feed, fetchedAt string) (Result, error) {
	res := Result{Feed: feed.Name}

	items, err := in.source.Fetch(ctx, feed)
	if err != nil {
		return res, fmt.Errorf("fetch feed %s: %w", feed.Name, err)
	}

	enricher, canEnrich := in.source.(sources.Enricher)

	var batch []domain.Record
	for _, item := range items {
		link := canonical.Canonicalize(item.Link)
		id := canonical.ComputeID(link)

		seen, err := in.store.Exists(id)
		if err != nil {
			return res, fmt.Errorf("seen lookup: %w", err)
		}
		if seen {
			res.Skipped++
			continue
		}

		if canEnrich {
			item = enricher.Enrich(ctx, item)
		}

		if err := in.store.InsertIfAbsent(id, fetchedAt); err != nil {
			return res, fmt.Errorf("seen insert: %w", err)
		}

		batch = append(batch, domain.Record{
			ID:        id,
			Title:     item.Title,
			Link:      link,
			Published: item.Published,
			Source:    item.Source,
			Summary:   item.Summary,
			Query:     feed.Query,
			FetchedAt: fetchedAt,
		})
		res.New++
	}

	if len(batch) > 0 {
		if err := in.sink.Append(batch); err != nil {
			return res, fmt.Errorf("append batch for %s: %w", feed.Name, err)
		}
		in.publish(ctx, feed, batch, fetchedAt)
	}

	in.log.InfoObj("feed complete", "feed_summary", map[string]any{
		"feed":    feed.Name,
		"new":     res.New,
		"skipped": res.Skipped,
	})
	return res, nil
}

// Run processes all feeds in order. A feed's failure is logged and does
// not stop later feeds. Returns the total new-item count for the run.
func (in *Ingestor) Run(ctx context.Context, feeds []domain.Feed) int {
	fetchedAt := in.now().UTC().Format(time.RFC3339)

	total := 0
	for _, feed := range feeds {
		res, err := in.IngestFeed(ctx, feed, fetchedAt)
		if err != nil {
			in.log.ErrorObj("feed ingestion failed", "feed_error", map[string]any{
				"feed":  feed.Name,
				"error": err.Error(),
			})
			continue
		}
		total += res.New
	}

	in.log.InfoObj("ingestion complete", "run_summary", map[string]any{
		"source":    in.source.Name(),
		"total_new": total,
	})
	return total
}

// publish notifies every configured sink about the appended batch.
// Delivery failures are logged and never fail the feed.
func (in *Ingestor) publish(ctx context.Context, feed domain.Feed, batch []domain.Record, fetchedAt string) {
	if len(in.pubs) == 0 {
		return
	}

	evt := publishers.Event{
		Feed:      feed.Name,
		Source:    in.source.Name(),
		Count:     len(batch),
		Records:   batch,
		FetchedAt: fetchedAt,
	}
	for _, pub := range in.pubs {
		if err := pub.Publish(ctx, evt); err != nil {
			in.log.WarnObj("publisher delivery failed", "publisher_error", map[string]any{
				"publisher": pub.ID(),
				"feed":      feed.Name,
				"error":     err.Error(),
			})
		}
	}
}
