// Package storage is the durable queue store: the seen ledger, the pending
// news queue, the alert ledger and the market-data table, all in one SQLite
// file. It is the only state shared between the ingestion and alerting
// loops.
package storage

import (
	"context"
	"time"

	"newswatch/internal/news"
)

// Store is the persistence API shared by the ingestion and alerting loops.
//
// All mutating operations are idempotent per article id: repeating an insert
// for an id that already exists is a no-op, not an error. That property is
// what makes crash recovery trivial — both loops resume purely by
// re-querying this state.
type Store interface {
	// HasSeen reports whether an identity was ever ingested.
	HasSeen(ctx context.Context, id string) (bool, error)
	// MarkSeen records an identity in the seen ledger.
	MarkSeen(ctx context.Context, id string, at time.Time) error
	// Enqueue adds an article to the pending queue.
	Enqueue(ctx context.Context, a news.Article, at time.Time) error
	// FetchPending returns queue records without an alert-ledger row,
	// in insertion order.
	FetchPending(ctx context.Context) ([]news.QueueRecord, error)
	// MarkAlerted records an identity in the alert ledger.
	MarkAlerted(ctx context.Context, id string, at time.Time) error
	// UpsertCandle inserts or replaces one OHLCV bar.
	UpsertCandle(ctx context.Context, c news.Candle) error
	Close() error
}

// Config configures the SQLite store.
type Config struct {
	Path        string
	BusyTimeout time.Duration // 0 means driver default
}
