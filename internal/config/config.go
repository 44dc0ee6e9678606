// Package config loads the feed definitions the run operates on.
// Validation failures abort the run before any network activity.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/marketbrief/newsfeeds/internal/domain"
)

// feedEntry mirrors one feeds[] item in the YAML config file.
type feedEntry struct {
	Name   string `mapstructure:"name"`
	Ticker string `mapstructure:"ticker"`
	Query  string `mapstructure:"query"`
}

// LoadFeeds reads the ordered feed list from the YAML file at path.
// Every feed needs a query; requireTicker additionally demands a ticker
// symbol (the scrape source). A missing name defaults to the lowercased
// ticker, or "feed" when there is none.
func LoadFeeds(path string, requireTicker bool) ([]domain.Feed, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var entries []feedEntry
	if err := v.UnmarshalKey("feeds", &entries); err != nil {
		return nil, fmt.Errorf("decode feeds: %w", err)
	}

	feeds := make([]domain.Feed, 0, len(entries))
	for i, entry := range entries {
		feed, err := buildFeed(entry, requireTicker)
		if err != nil {
			return nil, fmt.Errorf("feeds[%d]: %w", i, err)
		}
		feeds = append(feeds, feed)
	}
	return feeds, nil
}

// buildFeed validates and normalizes one config entry.
func buildFeed(entry feedEntry, requireTicker bool) (domain.Feed, error) {
	query := strings.TrimSpace(entry.Query)
	ticker := strings.TrimSpace(entry.Ticker)
	name := strings.TrimSpace(entry.Name)

	if query == "" {
		return domain.Feed{}, fmt.Errorf("query is required")
	}
	if requireTicker && ticker == "" {
		return domain.Feed{}, fmt.Errorf("ticker is required")
	}

	if name == "" {
		if ticker != "" {
			name = strings.ToLower(ticker)
		} else {
			name = "feed"
		}
	}

	return domain.Feed{Name: name, Ticker: ticker, Query: query}, nil
}
