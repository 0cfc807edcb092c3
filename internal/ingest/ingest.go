// Package ingest runs the feed-ingestion side of the pipeline: poll all
// sources, resolve identities and weights, enqueue what was never seen.
package ingest

import (
	"context"
	"fmt"
	"time"

	"newswatch/internal/feed"
	"newswatch/internal/storage"
	logx "newswatch/pkg/logx"
)

// Poller yields one cycle's worth of raw source batches.
type Poller interface {
	FetchAll(ctx context.Context) []feed.SourceBatch
}

type Service struct {
	poller Poller
	store  storage.Store
	log    logx.Logger
	now    func() time.Time
}

func New(poller Poller, store storage.Store, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{poller: poller, store: store, log: log, now: time.Now}
}

// Cycle performs one poll-resolve-enqueue pass.
//
// A storage error aborts the cycle; nothing is lost, the seen ledger only
// ever gains a row together with its queue row on the next successful pass.
func (s *Service) Cycle(ctx context.Context) error {
	batches := s.poller.FetchAll(ctx)
	resolved := feed.Resolve(batches)
	s.log.Debug("cycle resolved",
		logx.Int("sources", len(batches)),
		logx.Int("unique_urls", len(resolved)))

	now := s.now().UTC()
	enqueued := 0
	for id, article := range resolved {
		seen, err := s.store.HasSeen(ctx, id)
		if err != nil {
			return fmt.Errorf("has seen: %w", err)
		}
		if seen {
			continue
		}
		if err := s.store.MarkSeen(ctx, id, now); err != nil {
			return fmt.Errorf("mark seen: %w", err)
		}
		if err := s.store.Enqueue(ctx, article, now); err != nil {
			return fmt.Errorf("enqueue: %w", err)
		}
		s.log.Info("article queued",
			logx.String("title", truncate(article.Title, 60)),
			logx.Int("weight", article.Weight))
		enqueued++
	}

	s.log.Info("ingest cycle complete",
		logx.Int("sources", len(batches)),
		logx.Int("unique_urls", len(resolved)),
		logx.Int("new_articles", enqueued))
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
