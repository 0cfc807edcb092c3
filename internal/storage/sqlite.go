package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"newswatch/internal/news"
	logx "newswatch/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

// Open initializes the SQLite-backed store, creating the file and schema
// as needed.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) HasSeen(ctx context.Context, id string) (bool, error) {
	query, args, err := sq.Select("1").
		From("seen_articles").
		Where(sq.Eq{"article_id": id}).
		ToSql()
	if err != nil {
		return false, err
	}
	var one int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *sqliteStore) MarkSeen(ctx context.Context, id string, at time.Time) error {
	query, args, err := sq.Insert("seen_articles").
		Columns("article_id", "first_fetched_at").
		Values(id, at.UTC().Format(time.RFC3339Nano)).
		Suffix("ON CONFLICT(article_id) DO NOTHING").
		ToSql()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

func (s *sqliteStore) Enqueue(ctx context.Context, a news.Article, at time.Time) error {
	var published any
	if !a.PublishedAt.IsZero() {
		published = a.PublishedAt.UTC().Format(time.RFC3339Nano)
	}
	query, args, err := sq.Insert("news_queue").
		Columns("article_id", "title", "summary", "url", "published_at", "weight", "enqueued_at").
		Values(a.ID, a.Title, a.Summary, a.URL, published, a.Weight, at.UTC().Format(time.RFC3339Nano)).
		Suffix("ON CONFLICT(article_id) DO NOTHING").
		ToSql()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

func (s *sqliteStore) FetchPending(ctx context.Context) ([]news.QueueRecord, error) {
	query, args, err := sq.Select(
		"q.article_id", "q.title", "q.summary", "q.url", "q.published_at", "q.weight", "q.enqueued_at").
		From("news_queue q").
		LeftJoin("alerted_articles a ON a.article_id = q.article_id").
		Where("a.article_id IS NULL").
		OrderBy("q.rowid").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []news.QueueRecord
	for rows.Next() {
		var (
			rec       news.QueueRecord
			summary   sql.NullString
			published sql.NullString
			enqueued  string
		)
		if err := rows.Scan(&rec.ID, &rec.Title, &summary, &rec.URL, &published, &rec.Weight, &enqueued); err != nil {
			return nil, err
		}
		rec.Summary = summary.String
		if published.Valid {
			rec.PublishedAt = parseStoredTime(published.String)
		}
		rec.EnqueuedAt = parseStoredTime(enqueued)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *sqliteStore) MarkAlerted(ctx context.Context, id string, at time.Time) error {
	query, args, err := sq.Insert("alerted_articles").
		Columns("article_id", "alerted_at").
		Values(id, at.UTC().Format(time.RFC3339Nano)).
		Suffix("ON CONFLICT(article_id) DO NOTHING").
		ToSql()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

func (s *sqliteStore) UpsertCandle(ctx context.Context, c news.Candle) error {
	query, args, err := sq.Insert("market_data_1m").
		Columns("symbol", "open_time", "open", "high", "low", "close", "volume").
		Values(c.Symbol, c.OpenTime, c.Open, c.High, c.Low, c.Close, c.Volume).
		Suffix(`ON CONFLICT(symbol, open_time) DO UPDATE SET
			open = excluded.open,
			high = excluded.high,
			low = excluded.low,
			close = excluded.close,
			volume = excluded.volume`).
		ToSql()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

func parseStoredTime(v string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return t
}
