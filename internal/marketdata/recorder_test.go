package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"newswatch/internal/news"
	logx "newswatch/pkg/logx"
)

func TestParseKline(t *testing.T) {
	msg := []byte(`{"e":"kline","s":"BTCUSDT","k":{"t":1700000000000,"s":"BTCUSDT","o":"42000.1","h":"42100.5","l":"41900.0","c":"42050.2","v":"13.37"}}`)
	c, err := ParseKline(msg)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Symbol != "BTCUSDT" || c.OpenTime != 1700000000000 {
		t.Fatalf("identity fields: %+v", c)
	}
	if c.Open != 42000.1 || c.High != 42100.5 || c.Low != 41900.0 || c.Close != 42050.2 || c.Volume != 13.37 {
		t.Fatalf("ohlcv fields: %+v", c)
	}
}

func TestParseKlineRejectsNonKline(t *testing.T) {
	if _, err := ParseKline([]byte(`{"result":null,"id":1}`)); err == nil {
		t.Fatalf("expected error for non-kline payload")
	}
	if _, err := ParseKline([]byte(`not json`)); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
}

func TestStreamURL(t *testing.T) {
	r := NewRecorder(Config{
		URL:     "wss://stream.example.com:9443/ws/",
		Symbols: []string{"BTCUSDT", "ethusdt"},
	}, nil, logx.Nop())
	want := "wss://stream.example.com:9443/ws/btcusdt@kline_1m/ethusdt@kline_1m"
	if got := r.StreamURL(); got != want {
		t.Fatalf("stream url:\n got %s\nwant %s", got, want)
	}
}

type candleSink struct {
	mu      sync.Mutex
	candles []news.Candle
	done    chan struct{}
	want    int
}

func (s *candleSink) UpsertCandle(ctx context.Context, c news.Candle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candles = append(s.candles, c)
	if len(s.candles) == s.want {
		close(s.done)
	}
	return nil
}

func (s *candleSink) HasSeen(ctx context.Context, id string) (bool, error) { return false, nil }
func (s *candleSink) MarkSeen(ctx context.Context, id string, at time.Time) error {
	return nil
}
func (s *candleSink) Enqueue(ctx context.Context, a news.Article, at time.Time) error {
	return nil
}
func (s *candleSink) FetchPending(ctx context.Context) ([]news.QueueRecord, error) {
	return nil, nil
}
func (s *candleSink) MarkAlerted(ctx context.Context, id string, at time.Time) error {
	return nil
}
func (s *candleSink) Close() error { return nil }

func TestStreamOnceStoresCandles(t *testing.T) {
	upgrader := websocket.Upgrader{}
	messages := []string{
		`{"k":{"t":1,"s":"BTCUSDT","o":"1","h":"2","l":"0.5","c":"1.5","v":"10"}}`,
		`garbage`, // must be skipped, not fatal
		`{"k":{"t":2,"s":"BTCUSDT","o":"1.5","h":"2.5","l":"1","c":"2","v":"20"}}`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, m := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
				return
			}
		}
		// Hold the connection until the client side is done.
		time.Sleep(2 * time.Second)
	}))
	defer srv.Close()

	sink := &candleSink{done: make(chan struct{}), want: 2}
	r := NewRecorder(Config{
		URL:     "ws" + strings.TrimPrefix(srv.URL, "http"),
		Symbols: []string{"BTCUSDT"},
	}, sink, logx.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- r.streamOnce(ctx) }()

	select {
	case <-sink.done:
	case <-time.After(3 * time.Second):
		t.Fatalf("candles not stored in time")
	}
	cancel()
	<-errCh

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.candles) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(sink.candles))
	}
	if sink.candles[1].Close != 2 || sink.candles[1].OpenTime != 2 {
		t.Fatalf("unexpected second candle: %+v", sink.candles[1])
	}
}
