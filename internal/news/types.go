// Package news holds the shared article and market-data types passed
// between the ingestion, storage and alerting layers.
package news

import "time"

// Article is one deduplicated news item.
//
// ID is the canonical identity: hex SHA-256 of the trimmed article URL.
// Source-provided entry IDs are deliberately not used, they differ across
// feeds reporting the same story and would defeat cross-source weighting.
type Article struct {
	ID          string
	Title       string
	Summary     string
	URL         string
	PublishedAt time.Time
	// Weight is the number of distinct sources that reported this URL
	// within a single poll cycle. Fixed at enqueue time.
	Weight int
}

// QueueRecord is an Article as persisted in the pending-review queue.
type QueueRecord struct {
	Article
	EnqueuedAt time.Time
}

// Candle is one OHLCV bar from the market-data stream.
type Candle struct {
	Symbol    string
	OpenTime  int64 // epoch millis, bar open
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}
