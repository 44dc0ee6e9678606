package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// requiredFields must be non-empty in every row.
var requiredFields = []string{"id", "title", "link", "fetched_at"}

// Validate checks the dataset at path: the header must match Schema
// exactly, every row must have the schema's column count with required
// fields present, and ids must be unique across the whole file.
func Validate(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open dataset: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("dataset is empty")
		}
		return fmt.Errorf("read dataset header: %w", err)
	}
	if !equalRow(header, Schema) {
		return fmt.Errorf("header mismatch: expected %v but found %v", Schema, header)
	}

	ids := make(map[string]struct{})
	for rowNum := 2; ; rowNum++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read row %d: %w", rowNum, err)
		}
		if len(row) != len(Schema) {
			return fmt.Errorf("row %d has %d columns, expected %d", rowNum, len(row), len(Schema))
		}

		fields := make(map[string]string, len(Schema))
		for i, col := range Schema {
			fields[col] = row[i]
		}
		for _, name := range requiredFields {
			if fields[name] == "" {
				return fmt.Errorf("row %d missing required field %s", rowNum, name)
			}
		}

		id := fields["id"]
		if _, dup := ids[id]; dup {
			return fmt.Errorf("duplicate id at row %d", rowNum)
		}
		ids[id] = struct{}{}
	}
}

func equalRow(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
