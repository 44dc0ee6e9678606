package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marketbrief/newsfeeds/internal/dataset"
)

var validateCSV string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate an output dataset (header, required fields, id uniqueness)",
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateCSV, "csv", "data/gdelt_news.csv", "path to the output CSV")
}

func runValidate(cmd *cobra.Command, _ []string) error {
	if err := dataset.Validate(validateCSV); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	cmd.Println("validation passed")
	return nil
}
