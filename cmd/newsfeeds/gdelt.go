package main

import (
	"fmt"
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

const gdeltRequestTimeout = 30 * time.Second

var (
	gdeltQuery      string
	gdeltName       string
	gdeltOutCSV     string
	gdeltMaxRecords int
	gdeltDaysBack   int
)

var gdeltCmd = &cobra.Command{
	Use:   "gdelt",
	Short: "Ingest articles from the GDELT DOC API",
	RunE:  runGDELT,
}

func init() {
	gdeltCmd.Flags().StringVar(&gdeltQuery, "query", "", "run a single ad-hoc query instead of the config file")
	gdeltCmd.Flags().StringVar(&gdeltName, "name", "feed", "feed name for a single ad-hoc query")
	gdeltCmd.Flags().StringVar(&gdeltOutCSV, "out-csv", "data/gdelt_news.csv", "output CSV path")
	gdeltCmd.Flags().IntVar(&gdeltMaxRecords, "max-records", 250, "max records per feed")
	gdeltCmd.Flags().IntVar(&gdeltDaysBack, "days-back", 7, "lookback window in days")
}

func runGDELT(cmd *cobra.Command, _ []string) error {
	log, err := logger.New(logLevel)
	if err != nil {
		return err
	}

	var feeds []domain.Feed
	if gdeltQuery != "" {
		feeds = []domain.Feed{{Name: gdeltName, Query: gdeltQuery}}
	} else {
		feeds, err = config.LoadFeeds(cfgPath, false)
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

	client := httpclient.NewRestyClient(gdeltRequestTimeout)
	src := sources.NewGDELTSource(client, log, gdeltMaxRecords, gdeltDaysBack)
	sink := dataset.NewCSVAppender(gdeltOutCSV)

	ingest.NewIngestor(src, store, sink, pubs, log).Run(cmd.Context(), feeds)
	return nil
}
