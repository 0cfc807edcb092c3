// Package app assembles the services from config and owns their lifecycle.
package app

import (
	"context"
	"fmt"
	"sync"

	"newswatch/internal/alert"
	"newswatch/internal/config"
	"newswatch/internal/feed"
	"newswatch/internal/ingest"
	"newswatch/internal/marketdata"
	"newswatch/internal/relay"
	"newswatch/internal/schedule"
	"newswatch/internal/storage"
	"newswatch/internal/telegram"
	logx "newswatch/pkg/logx"
)

type App struct {
	cfg config.Config
	log logx.Logger

	store    storage.Store
	sched    *schedule.Service
	ingester *ingest.Service
	notifier *alert.Notifier
	recorder *marketdata.Recorder
	relayer  *relay.Service

	cancel context.CancelFunc
	bg     sync.WaitGroup
}

func New(cfg config.Config) (*App, error) {
	log := logx.New(logx.Config{Level: cfg.Log.Level, Console: cfg.Log.Console})

	store, err := storage.Open(storage.Config{
		Path:        cfg.Storage.Path,
		BusyTimeout: cfg.Storage.BusyTimeout.Std(),
	}, log.With(logx.String("component", "storage")))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	tg, err := telegram.New(telegram.Config{
		Token:     cfg.Telegram.Token,
		ChatID:    cfg.Telegram.ChatID,
		ParseMode: cfg.Telegram.ParseMode,
	}, log.With(logx.String("component", "telegram")))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("telegram: %w", err)
	}

	a := &App{cfg: cfg, log: log, store: store}

	fetcher := feed.NewFetcher(
		cfg.Ingest.Feeds,
		cfg.Ingest.FetchTimeout.Std(),
		cfg.Ingest.MaxPerFeed,
		log.With(logx.String("component", "feed")),
	)
	a.ingester = ingest.New(fetcher, store, log.With(logx.String("component", "ingest")))

	a.notifier = alert.NewNotifier(alert.Config{
		MinWeight:  cfg.Alert.MinWeight,
		Keywords:   cfg.Alert.Keywords,
		BatchSize:  cfg.Alert.BatchSize,
		MinSendGap: cfg.Alert.MinSendGap.Std(),
	}, store, tg, log.With(logx.String("component", "alert")))

	if cfg.MarketData.Enabled {
		a.recorder = marketdata.NewRecorder(marketdata.Config{
			URL:     cfg.MarketData.URL,
			Symbols: cfg.MarketData.Symbols,
		}, store, log.With(logx.String("component", "marketdata")))
	}

	if cfg.Relay.Enabled {
		relayFetcher := feed.NewFetcher(
			cfg.Relay.Feeds,
			cfg.Ingest.FetchTimeout.Std(),
			cfg.Relay.MaxPerFeed,
			log.With(logx.String("component", "relay")),
		)
		a.relayer = relay.New(relay.Config{
			DownstreamURL: cfg.Relay.DownstreamURL,
			MaxPerFeed:    cfg.Relay.MaxPerFeed,
			Pause:         cfg.Relay.Pause.Std(),
		}, relayFetcher, tg, log.With(logx.String("component", "relay")))
	}

	a.sched = schedule.New(log.With(logx.String("component", "schedule")))
	return a, nil
}

func (a *App) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	jobs := []schedule.Job{
		{Name: "ingest", Every: a.cfg.Ingest.Interval.Std(), Run: a.ingester.Cycle},
		{Name: "alert", Every: a.cfg.Alert.Interval.Std(), Run: a.notifier.Cycle},
	}
	if a.relayer != nil {
		jobs = append(jobs, schedule.Job{
			Name:  "relay",
			Every: a.cfg.Relay.Interval.Std(),
			Run:   a.relayer.Cycle,
		})
	}
	for _, j := range jobs {
		if err := a.sched.Add(j); err != nil {
			cancel()
			return err
		}
	}
	a.sched.Start(runCtx)

	if a.recorder != nil {
		a.bg.Add(1)
		go func() {
			defer a.bg.Done()
			a.recorder.Run(runCtx)
		}()
	}

	a.log.Info("newswatch started",
		logx.Int("feeds", len(a.cfg.Ingest.Feeds)),
		logx.Bool("marketdata", a.recorder != nil),
		logx.Bool("relay", a.relayer != nil))
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	if a.cancel != nil {
		a.cancel()
	}
	a.sched.Stop(ctx)
	a.bg.Wait()
	err := a.store.Close()
	a.log.Info("newswatch stopped")
	return err
}
