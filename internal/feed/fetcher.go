package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	logx "newswatch/pkg/logx"
)

// FetchError marks a single source as failed; the cycle continues with the
// sources that succeeded.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher polls a fixed list of RSS/Atom sources.
type Fetcher struct {
	sources    []string
	timeout    time.Duration
	maxPerFeed int
	log        logx.Logger
}

func NewFetcher(sources []string, timeout time.Duration, maxPerFeed int, log logx.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if maxPerFeed <= 0 {
		maxPerFeed = 100
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Fetcher{
		sources:    sources,
		timeout:    timeout,
		maxPerFeed: maxPerFeed,
		log:        log,
	}
}

// FetchAll polls every source concurrently and joins before returning, so
// weight resolution always sees the complete cycle. A slow or broken source
// only costs its own timeout; it cannot stall the others.
func (f *Fetcher) FetchAll(ctx context.Context) []SourceBatch {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		batches []SourceBatch
	)
	for _, src := range f.sources {
		wg.Add(1)
		go func(src string) {
			defer wg.Done()
			entries, err := f.fetchOne(ctx, src)
			if err != nil {
				f.log.Warn("source fetch failed", logx.String("source", src), logx.Err(err))
				return
			}
			f.log.Debug("source fetched", logx.String("source", src), logx.Int("entries", len(entries)))
			mu.Lock()
			batches = append(batches, SourceBatch{Source: src, Entries: entries})
			mu.Unlock()
		}(src)
	}
	wg.Wait()
	return batches
}

func (f *Fetcher) fetchOne(ctx context.Context, src string) ([]Entry, error) {
	fctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	// One parser per fetch; gofeed parsers are cheap and not documented
	// as safe for concurrent use.
	parsed, err := gofeed.NewParser().ParseURLWithContext(src, fctx)
	if err != nil {
		return nil, &FetchError{Source: src, Err: err}
	}

	items := parsed.Items
	if len(items) > f.maxPerFeed {
		items = items[:f.maxPerFeed]
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		var published time.Time
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			published = *item.UpdatedParsed
		}
		summary := item.Description
		if summary == "" {
			summary = item.Content
		}
		entries = append(entries, Entry{
			Link:      item.Link,
			Title:     item.Title,
			Summary:   summary,
			Published: published,
		})
	}
	return entries, nil
}
