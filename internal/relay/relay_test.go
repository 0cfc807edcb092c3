package relay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"newswatch/internal/feed"
	logx "newswatch/pkg/logx"
)

type staticPoller struct {
	batches []feed.SourceBatch
}

func (p staticPoller) FetchAll(ctx context.Context) []feed.SourceBatch {
	return p.batches
}

type recordingSender struct {
	mu       sync.Mutex
	sent     []string
	failures int
}

func (s *recordingSender) SendText(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("send failed")
	}
	s.sent = append(s.sent, text)
	return nil
}

func TestCycleRelaysOncePerEntry(t *testing.T) {
	var (
		mu     sync.Mutex
		posted []map[string]string
	)
	downstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload map[string]string
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Errorf("bad downstream payload: %v", err)
		}
		mu.Lock()
		posted = append(posted, payload)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer downstream.Close()

	sender := &recordingSender{}
	svc := New(Config{DownstreamURL: downstream.URL, MaxPerFeed: 10}, staticPoller{batches: []feed.SourceBatch{
		{Source: "fx", Entries: []feed.Entry{
			{Link: "https://example.com/1", Title: "Rates on hold"},
			{Link: "https://example.com/2", Title: "Dollar slips"},
		}},
	}}, sender, logx.Nop())

	ctx := context.Background()
	if err := svc.Cycle(ctx); err != nil {
		t.Fatalf("cycle: %v", err)
	}
	// Second round: everything already seen.
	if err := svc.Cycle(ctx); err != nil {
		t.Fatalf("second cycle: %v", err)
	}

	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 telegram messages, got %d", len(sender.sent))
	}
	if !strings.HasPrefix(sender.sent[0], "📰 Rates on hold\n") {
		t.Fatalf("unexpected message format: %q", sender.sent[0])
	}

	mu.Lock()
	defer mu.Unlock()
	if len(posted) != 2 {
		t.Fatalf("expected 2 downstream posts, got %d", len(posted))
	}
	if posted[0]["headline"] != "Rates on hold" || posted[0]["link"] != "https://example.com/1" {
		t.Fatalf("unexpected downstream payload: %+v", posted[0])
	}
}

func TestCycleRetriesFailedSendNextRound(t *testing.T) {
	sender := &recordingSender{failures: 1}
	svc := New(Config{MaxPerFeed: 10}, staticPoller{batches: []feed.SourceBatch{
		{Source: "fx", Entries: []feed.Entry{{Link: "https://example.com/1", Title: "One"}}},
	}}, sender, logx.Nop())

	ctx := context.Background()
	if err := svc.Cycle(ctx); err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("failed send recorded as delivered")
	}
	if err := svc.Cycle(ctx); err != nil {
		t.Fatalf("second cycle: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("entry not retried after failure")
	}
}

func TestCycleCapsEntriesPerFeed(t *testing.T) {
	entries := make([]feed.Entry, 0, 5)
	for _, n := range []string{"1", "2", "3", "4", "5"} {
		entries = append(entries, feed.Entry{Link: "https://example.com/" + n, Title: n})
	}
	sender := &recordingSender{}
	svc := New(Config{MaxPerFeed: 3}, staticPoller{batches: []feed.SourceBatch{
		{Source: "fx", Entries: entries},
	}}, sender, logx.Nop())

	if err := svc.Cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if len(sender.sent) != 3 {
		t.Fatalf("expected cap of 3, got %d", len(sender.sent))
	}
}
