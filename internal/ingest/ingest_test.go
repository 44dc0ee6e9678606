package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketbrief/newsfeeds/internal/domain"
	"github.com/marketbrief/newsfeeds/pkg/publishers"
)

// fakeSource serves canned items per feed name, or an error.
type fakeSource struct {
	items map[string][]domain.NewsItem
	errs  map[string]error
}

func (s *fakeSource) Name() string { return "fake" }

func (s *fakeSource) Fetch(_ context.Context, feed domain.Feed) ([]domain.NewsItem, error) {
	if err := s.errs[feed.Name]; err != nil {
		return nil, err
	}
	return s.items[feed.Name], nil
}

// enrichingSource additionally stamps summaries on enrichment.
type enrichingSource struct {
	fakeSource
	enriched []string
}

func (s *enrichingSource) Enrich(_ context.Context, item domain.NewsItem) domain.NewsItem {
	s.enriched = append(s.enriched, item.Link)
	if item.Summary == "" {
		item.Summary = "enriched"
	}
	return item
}

// memStore is an in-memory seenstore.Store.
type memStore struct {
	seen map[string]string
}

func newMemStore() *memStore { return &memStore{seen: make(map[string]string)} }

func (m *memStore) Exists(id string) (bool, error) {
	_, ok := m.seen[id]
	return ok, nil
}

func (m *memStore) InsertIfAbsent(id, firstSeenAt string) error {
	if _, ok := m.seen[id]; !ok {
		m.seen[id] = firstSeenAt
	}
	return nil
}

func (m *memStore) Close() error { return nil }

// memSink collects appended batches and can be made to fail.
type memSink struct {
	batches [][]domain.Record
	fail    error
}

func (m *memSink) Append(records []domain.Record) error {
	if m.fail != nil {
		return m.fail
	}
	m.batches = append(m.batches, records)
	return nil
}

// fakePublisher records the events it receives.
type fakePublisher struct {
	events []publishers.Event
}

func (p *fakePublisher) ID() string   { return "fake-pub" }
func (p *fakePublisher) Type() string { return "queue" }

func (p *fakePublisher) Publish(_ context.Context, evt publishers.Event) error {
	p.events = append(p.events, evt)
	return nil
}

var sampleItems = []domain.NewsItem{
	{Title: "Acme profits rise", Link: "https://x.com/news/a?utm=1", Published: "t1", Source: "Reuters"},
	{Title: "Acme expands", Link: "https://x.com/news/b", Published: "t2", Source: "Bloomberg", Summary: "set"},
	// Same canonical link as the first item, different query string.
	{Title: "Acme profits rise", Link: "https://x.com/news/a?utm=2", Published: "t1", Source: "Reuters"},
}

func TestIngestFeedDedupsAndAppends(t *testing.T) {
	src := &fakeSource{items: map[string][]domain.NewsItem{"acme": sampleItems}}
	store := newMemStore()
	sink := &memSink{}
	ing := NewIngestor(src, store, sink, nil, nil)

	feed := domain.Feed{Name: "acme", Query: `"Acme"`}
	res, err := ing.IngestFeed(context.Background(), feed, "2024-05-10T12:00:00Z")
	require.NoError(t, err)

	assert.Equal(t, 2, res.New)
	assert.Equal(t, 1, res.Skipped, "same-run duplicate canonical link is skipped")

	require.Len(t, sink.batches, 1, "one append per feed")
	batch := sink.batches[0]
	require.Len(t, batch, 2)

	rec := batch[0]
	assert.Equal(t, "https://x.com/news/a", rec.Link, "link is canonicalized")
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, `"Acme"`, rec.Query)
	assert.Equal(t, "2024-05-10T12:00:00Z", rec.FetchedAt)
	assert.NotEqual(t, batch[0].ID, batch[1].ID)
}

func TestIngestFeedSecondRunSkipsEverything(t *testing.T) {
	src := &fakeSource{items: map[string][]domain.NewsItem{"acme": sampleItems}}
	store := newMemStore()
	sink := &memSink{}
	ing := NewIngestor(src, store, sink, nil, nil)

	feed := domain.Feed{Name: "acme", Query: `"Acme"`}
	first, err := ing.IngestFeed(context.Background(), feed, "t0")
	require.NoError(t, err)

	second, err := ing.IngestFeed(context.Background(), feed, "t1")
	require.NoError(t, err)

	assert.Equal(t, 0, second.New, "unchanged upstream yields no new items")
	assert.Equal(t, first.New+first.Skipped, second.Skipped)
	assert.Equal(t, len(sampleItems), second.Skipped)
	assert.Len(t, sink.batches, 1, "no second append")
}

func TestIngestFeedEnrichesOnlyNewItems(t *testing.T) {
	src := &enrichingSource{fakeSource: fakeSource{items: map[string][]domain.NewsItem{
		"acme": sampleItems,
	}}}
	store := newMemStore()
	sink := &memSink{}
	ing := NewIngestor(src, store, sink, nil, nil)

	_, err := ing.IngestFeed(context.Background(), domain.Feed{Name: "acme", Query: "q"}, "t0")
	require.NoError(t, err)

	assert.Len(t, src.enriched, 2, "the skipped duplicate is never enriched")
	assert.Equal(t, "enriched", sink.batches[0][0].Summary)
	assert.Equal(t, "set", sink.batches[0][1].Summary, "existing summaries kept")
}

func TestIngestFeedAppendFailureKeepsIdsSeen(t *testing.T) {
	src := &fakeSource{items: map[string][]domain.NewsItem{"acme": sampleItems}}
	store := newMemStore()
	sink := &memSink{fail: errors.New("disk full")}
	ing := NewIngestor(src, store, sink, nil, nil)

	_, err := ing.IngestFeed(context.Background(), domain.Feed{Name: "acme", Query: "q"}, "t0")
	require.Error(t, err)

	// Chosen trade-off: ids commit before the append, so a failed append
	// loses the rows but never risks duplicates on a later run.
	assert.Len(t, store.seen, 2)
	assert.Empty(t, sink.batches)
}

func TestIngestFeedFetchErrorPropagates(t *testing.T) {
	src := &fakeSource{errs: map[string]error{"acme": errors.New("retries exhausted")}}
	ing := NewIngestor(src, newMemStore(), &memSink{}, nil, nil)

	_, err := ing.IngestFeed(context.Background(), domain.Feed{Name: "acme", Query: "q"}, "t0")
	require.Error(t, err)
}

func TestRunContinuesAfterFeedFailure(t *testing.T) {
	src := &fakeSource{
		items: map[string][]domain.NewsItem{"beta": sampleItems[:2]},
		errs:  map[string]error{"alpha": errors.New("network exhaustion")},
	}
	sink := &memSink{}
	ing := NewIngestor(src, newMemStore(), sink, nil, nil)

	total := ing.Run(context.Background(), []domain.Feed{
		{Name: "alpha", Query: "a"},
		{Name: "beta", Query: "b"},
	})

	assert.Equal(t, 2, total, "only the succeeding feed contributes")
	assert.Len(t, sink.batches, 1)
}

func TestIngestFeedNotifiesPublishers(t *testing.T) {
	src := &fakeSource{items: map[string][]domain.NewsItem{"acme": sampleItems[:1]}}
	pub := &fakePublisher{}
	ing := NewIngestor(src, newMemStore(), &memSink{}, []publishers.Publisher{pub}, nil)

	_, err := ing.IngestFeed(context.Background(), domain.Feed{Name: "acme", Query: "q"}, "t0")
	require.NoError(t, err)

	require.Len(t, pub.events, 1)
	evt := pub.events[0]
	assert.Equal(t, "acme", evt.Feed)
	assert.Equal(t, "fake", evt.Source)
	assert.Equal(t, 1, evt.Count)
	assert.Len(t, evt.Records, 1)
}

func TestIngestFeedEmptyBatchSkipsAppendAndPublish(t *testing.T) {
	src := &fakeSource{}
	pub := &fakePublisher{}
	sink := &memSink{}
	ing := NewIngestor(src, newMemStore(), sink, []publishers.Publisher{pub}, nil)

	res, err := ing.IngestFeed(context.Background(), domain.Feed{Name: "quiet", Query: "q"}, "t0")
	require.NoError(t, err)
	assert.Zero(t, res.New)
	assert.Empty(t, sink.batches)
	assert.Empty(t, pub.events)
}
