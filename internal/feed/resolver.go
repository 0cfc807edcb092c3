// Package feed fetches the configured RSS/Atom sources and resolves the
// raw entries of one poll cycle into deduplicated, weighted articles.
package feed

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"newswatch/internal/news"
)

// Entry is one raw item from a single source, before deduplication.
type Entry struct {
	Link      string
	Title     string
	Summary   string
	Published time.Time
}

// SourceBatch is the entry list one source produced in a cycle.
type SourceBatch struct {
	Source  string
	Entries []Entry
}

// Identity returns the canonical identity for an article URL: hex SHA-256
// of the trimmed URL. The URL is used instead of source-supplied entry IDs
// because cross-source weighting needs a key shared by all sources.
func Identity(url string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(url)))
	return hex.EncodeToString(sum[:])
}

// Resolve merges one cycle's batches into a map of identity -> article.
//
// The same URL reported by N distinct sources gets weight N; a source
// listing a URL twice counts once. Title, summary and published time come
// from the first source that reported it. Entries without a link are
// dropped — they cannot be deduplicated or weighted.
func Resolve(batches []SourceBatch) map[string]news.Article {
	byID := make(map[string]news.Article)
	for _, b := range batches {
		inBatch := make(map[string]bool)
		for _, e := range b.Entries {
			url := strings.TrimSpace(e.Link)
			if url == "" {
				continue
			}
			id := Identity(url)
			if inBatch[id] {
				continue
			}
			inBatch[id] = true
			if a, ok := byID[id]; ok {
				a.Weight++
				byID[id] = a
				continue
			}
			byID[id] = news.Article{
				ID:          id,
				Title:       strings.TrimSpace(e.Title),
				Summary:     e.Summary,
				URL:         url,
				PublishedAt: e.Published,
				Weight:      1,
			}
		}
	}
	return byID
}
