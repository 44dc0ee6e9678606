package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFeeds(t *testing.T) {
	path := writeConfig(t, `
feeds:
  - name: acme
    ticker: ACME
    query: '"Acme Corp" OR "acme"'
  - ticker: GLOBO
    query: '"Globo"'
`)

	feeds, err := LoadFeeds(path, true)
	require.NoError(t, err)
	require.Len(t, feeds, 2)

	assert.Equal(t, "acme", feeds[0].Name)
	assert.Equal(t, "ACME", feeds[0].Ticker)
	assert.Equal(t, `"Acme Corp" OR "acme"`, feeds[0].Query)

	assert.Equal(t, "globo", feeds[1].Name, "name defaults to the lowercased ticker")
}

func TestLoadFeedsNameDefaultsWithoutTicker(t *testing.T) {
	path := writeConfig(t, `
feeds:
  - query: '"Acme Corp"'
`)

	feeds, err := LoadFeeds(path, false)
	require.NoError(t, err)
	require.Len(t, feeds, 1)
	assert.Equal(t, "feed", feeds[0].Name)
}

func TestLoadFeedsMissingQuery(t *testing.T) {
	path := writeConfig(t, `
feeds:
  - name: broken
    ticker: BRKN
`)

	_, err := LoadFeeds(path, false)
	assert.ErrorContains(t, err, "feeds[0]: query is required")
}

func TestLoadFeedsMissingTicker(t *testing.T) {
	path := writeConfig(t, `
feeds:
  - name: ok
    ticker: OK
    query: q1
  - name: broken
    query: q2
`)

	_, err := LoadFeeds(path, true)
	assert.ErrorContains(t, err, "feeds[1]: ticker is required")

	_, err = LoadFeeds(path, false)
	assert.NoError(t, err, "ticker only required for the scrape source")
}

func TestLoadFeedsMissingFile(t *testing.T) {
	_, err := LoadFeeds(filepath.Join(t.TempDir(), "absent.yaml"), false)
	assert.Error(t, err)
}
