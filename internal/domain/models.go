package domain

// Domain contains the core models shared across the ingestion pipeline.

// Feed is one configured ingestion target. Ticker is only set for
// scrape-backed feeds; Query is required for every feed.
type Feed struct {
	Name   string
	Ticker string
	Query  string
}

// NewsItem is a source-specific article record before normalization.
// Published keeps the source's own formatting and is never parsed.
type NewsItem struct {
	Title     string
	Link      string
	Published string
	Source    string
	Summary   string
}

// Record is the unit written to the durable dataset. ID is the sha256
// of the canonical link; Link carries no query string or fragment.
type Record struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Link      string `json:"link"`
	Published string `json:"published"`
	Source    string `json:"source"`
	Summary   string `json:"summary"`
	Query     string `json:"query"`
	FetchedAt string `json:"fetched_at"`
}
