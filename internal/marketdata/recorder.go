// Package marketdata records 1-minute OHLCV candles from a kline websocket
// stream into the shared SQLite file.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"newswatch/internal/news"
	"newswatch/internal/storage"
	logx "newswatch/pkg/logx"
)

type Config struct {
	URL     string // websocket base, e.g. wss://stream.binance.com:9443/ws
	Symbols []string
}

type Recorder struct {
	cfg   Config
	store storage.Store
	log   logx.Logger

	dialer *websocket.Dialer
	// redialWait bounds how fast we reconnect after a dropped stream.
	redialWait time.Duration
}

func NewRecorder(cfg Config, store storage.Store, log logx.Logger) *Recorder {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Recorder{
		cfg:        cfg,
		store:      store,
		log:        log,
		dialer:     websocket.DefaultDialer,
		redialWait: 5 * time.Second,
	}
}

// StreamURL returns the combined-stream endpoint for the configured symbols.
func (r *Recorder) StreamURL() string {
	streams := make([]string, 0, len(r.cfg.Symbols))
	for _, s := range r.cfg.Symbols {
		streams = append(streams, strings.ToLower(s)+"@kline_1m")
	}
	return strings.TrimRight(r.cfg.URL, "/") + "/" + strings.Join(streams, "/")
}

// Run streams until ctx is cancelled, redialing after connection loss.
func (r *Recorder) Run(ctx context.Context) {
	for ctx.Err() == nil {
		if err := r.streamOnce(ctx); err != nil && ctx.Err() == nil {
			r.log.Warn("market stream dropped", logx.Err(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(r.redialWait):
		}
	}
}

func (r *Recorder) streamOnce(ctx context.Context) error {
	url := r.StreamURL()
	conn, _, err := r.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close()
	r.log.Info("market stream connected", logx.Int("symbols", len(r.cfg.Symbols)))

	// Unblock ReadMessage on shutdown.
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		candle, err := ParseKline(msg)
		if err != nil {
			r.log.Debug("kline message skipped", logx.Err(err))
			continue
		}
		if err := r.store.UpsertCandle(ctx, candle); err != nil {
			r.log.Error("candle upsert failed",
				logx.String("symbol", candle.Symbol), logx.Err(err))
		}
	}
}

type klineMessage struct {
	Kline struct {
		OpenTime int64  `json:"t"`
		Symbol   string `json:"s"`
		Open     string `json:"o"`
		High     string `json:"h"`
		Low      string `json:"l"`
		Close    string `json:"c"`
		Volume   string `json:"v"`
	} `json:"k"`
}

// ParseKline decodes one kline stream message into a candle.
func ParseKline(msg []byte) (news.Candle, error) {
	var m klineMessage
	if err := json.Unmarshal(msg, &m); err != nil {
		return news.Candle{}, fmt.Errorf("decode kline: %w", err)
	}
	if m.Kline.Symbol == "" {
		return news.Candle{}, fmt.Errorf("not a kline payload")
	}
	c := news.Candle{Symbol: m.Kline.Symbol, OpenTime: m.Kline.OpenTime}
	var err error
	if c.Open, err = strconv.ParseFloat(m.Kline.Open, 64); err != nil {
		return news.Candle{}, fmt.Errorf("open: %w", err)
	}
	if c.High, err = strconv.ParseFloat(m.Kline.High, 64); err != nil {
		return news.Candle{}, fmt.Errorf("high: %w", err)
	}
	if c.Low, err = strconv.ParseFloat(m.Kline.Low, 64); err != nil {
		return news.Candle{}, fmt.Errorf("low: %w", err)
	}
	if c.Close, err = strconv.ParseFloat(m.Kline.Close, 64); err != nil {
		return news.Candle{}, fmt.Errorf("close: %w", err)
	}
	if c.Volume, err = strconv.ParseFloat(m.Kline.Volume, 64); err != nil {
		return news.Candle{}, fmt.Errorf("volume: %w", err)
	}
	return c, nil
}
