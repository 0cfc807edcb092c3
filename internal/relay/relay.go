// Package relay republishes fresh headlines from a secondary feed list:
// each new entry goes to the Telegram chat and, as JSON, to a downstream
// ingest endpoint. Dedup here is per-run and in-memory only; the durable
// ledgers belong to the main pipeline.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"newswatch/internal/feed"
	logx "newswatch/pkg/logx"
)

// Sender is the outbound chat channel (same contract as the notifier's).
type Sender interface {
	SendText(ctx context.Context, text string) error
}

type Config struct {
	DownstreamURL string
	MaxPerFeed    int
	Pause         time.Duration // between items, keeps the chat readable
}

type Poller interface {
	FetchAll(ctx context.Context) []feed.SourceBatch
}

type Service struct {
	cfg    Config
	poller Poller
	sender Sender
	http   *http.Client
	log    logx.Logger

	seen map[string]bool
}

func New(cfg Config, poller Poller, sender Sender, log logx.Logger) *Service {
	if cfg.MaxPerFeed <= 0 {
		cfg.MaxPerFeed = 10
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg:    cfg,
		poller: poller,
		sender: sender,
		http:   &http.Client{Timeout: 10 * time.Second},
		log:    log,
		seen:   map[string]bool{},
	}
}

// Cycle republishes every entry not yet seen this run. Send and POST
// failures are logged per item and do not mark the entry as handled, so
// the next cycle retries it.
func (s *Service) Cycle(ctx context.Context) error {
	for _, batch := range s.poller.FetchAll(ctx) {
		entries := batch.Entries
		if len(entries) > s.cfg.MaxPerFeed {
			entries = entries[:s.cfg.MaxPerFeed]
		}
		for _, e := range entries {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			link := strings.TrimSpace(e.Link)
			if link == "" || s.seen[link] {
				continue
			}

			headline := strings.TrimSpace(e.Title)
			if err := s.sender.SendText(ctx, "📰 "+headline+"\n"+link); err != nil {
				s.log.Warn("relay send failed", logx.String("link", link), logx.Err(err))
				continue
			}
			if err := s.postDownstream(ctx, headline, link); err != nil {
				s.log.Warn("downstream post failed", logx.String("link", link), logx.Err(err))
				continue
			}
			s.seen[link] = true

			if s.cfg.Pause > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(s.cfg.Pause):
				}
			}
		}
	}
	return nil
}

func (s *Service) postDownstream(ctx context.Context, headline, link string) error {
	if strings.TrimSpace(s.cfg.DownstreamURL) == "" {
		return nil
	}
	body, err := json.Marshal(map[string]string{"headline": headline, "link": link})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.DownstreamURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("downstream responded %d", resp.StatusCode)
	}
	return nil
}
