package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/marketbrief/newsfeeds/internal/domain"
	"github.com/marketbrief/newsfeeds/internal/logger"
	"github.com/marketbrief/newsfeeds/pkg/fetch"
	"github.com/marketbrief/newsfeeds/pkg/httpclient"
)

const (
	gdeltSourceName = "gdelt"
	gdeltAPIURL     = "https://api.gdeltproject.org/api/v2/doc/doc"

	// startdatetime format expected by the GDELT DOC API.
	gdeltTimeLayout = "20060102150405"

	defaultMaxRecords = 250
	defaultDaysBack   = 7
)

var gdeltHeaders = map[string]string{
	"User-Agent":      browserUserAgent,
	"Accept":          "application/json",
	"Accept-Language": "en-US,en;q=0.9",
}

// gdeltPayload is the article-list response shape of the DOC API.
type gdeltPayload struct {
	Articles []gdeltArticle `json:"articles"`
}

type gdeltArticle struct {
	URL              string `json:"url"`
	Title            string `json:"title"`
	Domain           string `json:"domain"`
	SourceCountry    string `json:"sourcecountry"`
	SourceCollection string `json:"sourcecollection"`
	Snippet          string `json:"snippet"`
	SeenDate         string `json:"seendate"`
}

// GDELTSource queries the GDELT DOC API for a feed's articles.
type GDELTSource struct {
	fetcher    *fetch.Fetcher
	log        logger.Logger
	apiURL     string
	maxRecords int
	daysBack   int
	now        func() time.Time
}

// NewGDELTSource builds the structured-API source adapter. Non-positive
// maxRecords and daysBack fall back to the defaults (250 records, 7 days).
func NewGDELTSource(client httpclient.Client, log logger.Logger, maxRecords, daysBack int) *GDELTSource {
	if log == nil {
		log = logger.NopLogger{}
	}
	if maxRecords <= 0 {
		maxRecords = defaultMaxRecords
	}
	if daysBack <= 0 {
		daysBack = defaultDaysBack
	}
	return &GDELTSource{
		fetcher:    fetch.NewFetcher(client, log),
		log:        log,
		apiURL:     gdeltAPIURL,
		maxRecords: maxRecords,
		daysBack:   daysBack,
		now:        time.Now,
	}
}

func (s *GDELTSource) Name() string { return gdeltSourceName }

// Fetch queries the API and parses the article list. A terminal client
// error from the API degrades to an empty result, since GDELT answers
// some malformed queries with 4xx error bodies.
func (s *GDELTSource) Fetch(ctx context.Context, feed domain.Feed) ([]domain.NewsItem, error) {
	target := s.buildURL(feed.Query)

	body, err := s.fetcher.Fetch(ctx, target, fetch.Options{Headers: gdeltHeaders})
	if err != nil {
		if fetch.IsClientError(err) {
			s.log.ErrorObj("gdelt api rejected query", "gdelt_client_error", map[string]any{
				"feed":  feed.Name,
				"error": err.Error(),
			})
			return nil, nil
		}
		return nil, fmt.Errorf("fetch gdelt results: %w", err)
	}

	var payload gdeltPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode gdelt payload: %w", err)
	}

	if len(payload.Articles) == 0 {
		s.log.WarnObj("no articles returned", "gdelt_empty", map[string]any{
			"feed": feed.Name,
		})
		return nil, nil
	}

	items := make([]domain.NewsItem, 0, len(payload.Articles))
	for _, art := range payload.Articles {
		title := strings.TrimSpace(art.Title)
		if art.URL == "" || title == "" {
			continue
		}
		items = append(items, domain.NewsItem{
			Title:     title,
			Link:      art.URL,
			Published: art.SeenDate,
			Source:    sourceLabel(art),
			Summary:   art.Snippet,
		})
	}
	return items, nil
}

// buildURL assembles the DOC API query for a feed's search string.
func (s *GDELTSource) buildURL(query string) string {
	start := s.now().UTC().AddDate(0, 0, -s.daysBack)

	params := url.Values{}
	params.Set("query", query)
	params.Set("mode", "ArtList")
	params.Set("format", "json")
	params.Set("maxrecords", strconv.Itoa(s.maxRecords))
	params.Set("sort", "HybridRel")
	params.Set("startdatetime", start.Format(gdeltTimeLayout))

	return s.apiURL + "?" + params.Encode()
}

// sourceLabel picks the article's source label by priority: domain,
// source country, source collection, then the generic constant.
func sourceLabel(art gdeltArticle) string {
	for _, candidate := range []string{art.Domain, art.SourceCountry, art.SourceCollection} {
		if candidate != "" {
			return candidate
		}
	}
	return "GDELT"
}
