package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/marketbrief/newsfeeds/internal/config"
	"github.com/marketbrief/newsfeeds/internal/dataset"
	"github.com/marketbrief/newsfeeds/internal/domain"
	"github.com/marketbrief/newsfeeds/internal/ingest"
	"github.com/marketbrief/newsfeeds/internal/logger"
	"github.com/marketbrief/newsfeeds/internal/seenstore"
	"github.com/marketbrief/newsfeeds/pkg/httpclient"
	"github.com/marketbrief/newsfeeds/pkg/sources"
)

const yahooRequestTimeout = 20 * time.Second

var (
	yahooTicker   string
	yahooQuery    string
	yahooOutCSV   string
	yahooMaxItems int
)

var yahooCmd = &cobra.Command{
	Use:   "yahoo",
	Short: "Ingest articles scraped from Yahoo Finance news pages",
	RunE:  runYahoo,
}

func init() {
	yahooCmd.Flags().StringVar(&yahooTicker, "ticker", "", "run a single ad-hoc ticker instead of the config file")
	yahooCmd.Flags().StringVar(&yahooQuery, "query", "", "query string for a single ad-hoc ticker")
	yahooCmd.Flags().StringVar(&yahooOutCSV, "out-csv", "data/yahoo_finance_news.csv", "output CSV path")
	yahooCmd.Flags().IntVar(&yahooMaxItems, "max-items", 80, "max items per ticker")
}

func runYahoo(cmd *cobra.Command, _ []string) error {
	log, err := logger.New(logLevel)
	if err != nil {
		return err
	}

	var feeds []domain.Feed
	switch {
	case yahooTicker != "" && yahooQuery == "":
		return errors.New("--query is required when using --ticker")
	case yahooTicker != "":
		feeds = []domain.Feed{{
			Name:   strings.ToLower(yahooTicker),
			Ticker: yahooTicker,
			Query:  yahooQuery,
		}}
	default:
		feeds, err = config.LoadFeeds(cfgPath, true)
		if err != nil {
			return err
		}
		if len(feeds) == 0 {
			return fmt.Errorf("no feeds defined in %s", cfgPath)
		}
	}

	store, err := seenstore.Open(stateBackend, dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	pubs, err := loadPublishers(cmd.Context(), log)
	if err != nil {
		return err
	}

	client := httpclient.NewRestyClient(yahooRequestTimeout)
	src := sources.NewYahooSource(client, log, yahooMaxItems)
	sink := dataset.NewCSVAppender(yahooOutCSV)

	ingest.NewIngestor(src, store, sink, pubs, log).Run(cmd.Context(), feeds)
	return nil
}
