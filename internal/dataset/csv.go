// Package dataset manages the append-only CSV the pipeline writes new
// records to, and the on-demand validation of its contents.
package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/marketbrief/newsfeeds/internal/domain"
)

// Schema is the fixed column order of the output dataset.
var Schema = []string{"id", "title", "link", "published", "source", "summary", "query", "fetched_at"}

// CSVAppender appends record batches to a CSV file, initializing it
// with the schema header on first use.
type CSVAppender struct {
	path string
}

// NewCSVAppender builds an appender for the CSV at path.
func NewCSVAppender(path string) *CSVAppender {
	return &CSVAppender{path: path}
}

// Append writes the batch to the CSV in one operation, creating the file
// with a header row if it does not exist yet.
func (a *CSVAppender) Append(records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}

	if err := a.ensure(); err != nil {
		return err
	}

	file, err := os.OpenFile(a.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open dataset for append: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	for _, rec := range records {
		row := []string{
			rec.ID,
			rec.Title,
			rec.Link,
			rec.Published,
			rec.Source,
			rec.Summary,
			rec.Query,
			rec.FetchedAt,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write dataset row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush dataset rows: %w", err)
	}
	return nil
}

// ensure creates the dataset file with its header row if missing.
func (a *CSVAppender) ensure() error {
	if dir := filepath.Dir(a.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dataset directory: %w", err)
		}
	}

	if _, err := os.Stat(a.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat dataset: %w", err)
	}

	file, err := os.Create(a.path)
	if err != nil {
		return fmt.Errorf("create dataset: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(Schema); err != nil {
		return fmt.Errorf("write dataset header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush dataset header: %w", err)
	}
	return nil
}
