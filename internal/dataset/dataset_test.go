package dataset

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketbrief/newsfeeds/internal/domain"
)

func sampleRecord(id string) domain.Record {
	return domain.Record{
		ID:        id,
		Title:     "Acme profits rise",
		Link:      "https://x.com/news/a",
		Published: "2024-05-10",
		Source:    "Reuters",
		Summary:   "Record, \"quoted\" profits",
		Query:     `"Acme"`,
		FetchedAt: "2024-05-10T12:00:00Z",
	}
}

func TestAppendInitializesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "news.csv")
	a := NewCSVAppender(path)

	require.NoError(t, a.Append([]domain.Record{sampleRecord("id-1")}))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Schema, rows[0])
	assert.Equal(t, "id-1", rows[1][0])
	assert.Equal(t, "Record, \"quoted\" profits", rows[1][5], "CSV quoting preserved")
}

func TestAppendAccumulatesAcrossBatches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "news.csv")
	a := NewCSVAppender(path)

	require.NoError(t, a.Append([]domain.Record{sampleRecord("id-1")}))
	require.NoError(t, a.Append([]domain.Record{sampleRecord("id-2"), sampleRecord("id-3")}))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 4, "header plus three rows, single header only")
}

func TestAppendEmptyBatchIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "news.csv")
	require.NoError(t, NewCSVAppender(path).Append(nil))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "empty batch must not create the file")
}

func TestValidatePasses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "news.csv")
	a := NewCSVAppender(path)
	require.NoError(t, a.Append([]domain.Record{sampleRecord("id-1"), sampleRecord("id-2")}))

	assert.NoError(t, Validate(path))
}

func TestValidateFailures(t *testing.T) {
	writeCSV := func(t *testing.T, rows [][]string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "news.csv")
		file, err := os.Create(path)
		require.NoError(t, err)
		w := csv.NewWriter(file)
		require.NoError(t, w.WriteAll(rows))
		require.NoError(t, file.Close())
		return path
	}

	goodRow := []string{"id-1", "title", "link", "", "", "", "", "t0"}

	t.Run("missing file", func(t *testing.T) {
		assert.Error(t, Validate(filepath.Join(t.TempDir(), "absent.csv")))
	})

	t.Run("empty file", func(t *testing.T) {
		path := writeCSV(t, nil)
		assert.ErrorContains(t, Validate(path), "empty")
	})

	t.Run("header mismatch", func(t *testing.T) {
		path := writeCSV(t, [][]string{{"id", "title"}})
		assert.ErrorContains(t, Validate(path), "header mismatch")
	})

	t.Run("wrong column count", func(t *testing.T) {
		path := writeCSV(t, [][]string{Schema, {"id-1", "title", "link", "t0"}})
		assert.ErrorContains(t, Validate(path), "row 2 has 4 columns")
	})

	t.Run("missing required field", func(t *testing.T) {
		bad := []string{"id-2", "", "link", "", "", "", "", "t0"}
		path := writeCSV(t, [][]string{Schema, goodRow, bad})
		assert.ErrorContains(t, Validate(path), "row 3 missing required field title")
	})

	t.Run("duplicate id", func(t *testing.T) {
		path := writeCSV(t, [][]string{Schema, goodRow, goodRow})
		assert.ErrorContains(t, Validate(path), "duplicate id at row 3")
	})
}
