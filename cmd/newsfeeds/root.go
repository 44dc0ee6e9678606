package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/marketbrief/newsfeeds/internal/logger"
	"github.com/marketbrief/newsfeeds/pkg/publishers"
)

var (
	cfgPath        string
	dbPath         string
	stateBackend   string
	logLevel       string
	publishersPath string
)

var rootCmd = &cobra.Command{
	Use:          "newsfeeds",
	Short:        "Ingest news items from external sources into an append-only dataset",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "path to feeds config YAML")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db-path", "state/seen_ids.sqlite", "seen-set store path")
	rootCmd.PersistentFlags().StringVar(&stateBackend, "state-backend", "sqlite", "seen-set backend (sqlite or bolt)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&publishersPath, "publishers", "", "optional publishers registry file")

	rootCmd.AddCommand(gdeltCmd, yahooCmd, validateCmd)
}

// loadPublishers builds the configured notification sinks, or none when
// no registry file was given.
func loadPublishers(ctx context.Context, log logger.Logger) ([]publishers.Publisher, error) {
	if publishersPath == "" {
		return nil, nil
	}

	cfgs, err := publishers.LoadConfigs(publishersPath)
	if err != nil {
		return nil, err
	}
	return publishers.BuildAll(ctx, publishers.DefaultRegistry(), cfgs, log)
}
