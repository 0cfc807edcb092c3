package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	yaml "go.yaml.in/yaml/v3"
)

// EnvTelegramToken overrides telegram.token when set, so the secret can be
// kept out of the config file.
const EnvTelegramToken = "NEWSWATCH_TELEGRAM_TOKEN"

// Load reads, decodes and validates the config file. Unknown keys are
// rejected so typos fail fast instead of silently using defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if tok := strings.TrimSpace(os.Getenv(EnvTelegramToken)); tok != "" {
		cfg.Telegram.Token = tok
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Storage.Path == "" {
		c.Storage.Path = "data/newswatch.db"
	}
	if c.Storage.BusyTimeout <= 0 {
		c.Storage.BusyTimeout = Duration(5 * time.Second)
	}
	if c.Telegram.ParseMode == "" {
		c.Telegram.ParseMode = "Markdown"
	}
	if c.Ingest.Interval <= 0 {
		c.Ingest.Interval = Duration(120 * time.Second)
	}
	if c.Ingest.FetchTimeout <= 0 {
		c.Ingest.FetchTimeout = Duration(15 * time.Second)
	}
	if c.Ingest.MaxPerFeed <= 0 {
		c.Ingest.MaxPerFeed = 100
	}
	if c.Alert.Interval <= 0 {
		c.Alert.Interval = Duration(5 * time.Second)
	}
	if c.Alert.MinWeight <= 0 {
		c.Alert.MinWeight = 2
	}
	if c.Alert.BatchSize <= 0 {
		c.Alert.BatchSize = 5
	}
	if c.Alert.MinSendGap <= 0 {
		c.Alert.MinSendGap = Duration(3200 * time.Millisecond)
	}
	if c.Relay.Interval <= 0 {
		c.Relay.Interval = Duration(60 * time.Second)
	}
	if c.Relay.MaxPerFeed <= 0 {
		c.Relay.MaxPerFeed = 10
	}
	if c.Relay.Pause <= 0 {
		c.Relay.Pause = Duration(time.Second)
	}
}

// Validate checks cross-field requirements after defaults were applied.
func (c Config) Validate() error {
	var errs []error
	if len(c.Ingest.Feeds) == 0 {
		errs = append(errs, errors.New("ingest.feeds: at least one feed is required"))
	}
	for i, f := range c.Ingest.Feeds {
		if strings.TrimSpace(f) == "" {
			errs = append(errs, fmt.Errorf("ingest.feeds[%d]: empty url", i))
		}
	}
	if strings.TrimSpace(c.Telegram.Token) == "" {
		errs = append(errs, errors.New("telegram.token is required (or set "+EnvTelegramToken+")"))
	}
	if c.Telegram.ChatID == 0 {
		errs = append(errs, errors.New("telegram.chat_id is required"))
	}
	if c.MarketData.Enabled {
		if strings.TrimSpace(c.MarketData.URL) == "" {
			errs = append(errs, errors.New("marketdata.url is required when marketdata is enabled"))
		}
		if len(c.MarketData.Symbols) == 0 {
			errs = append(errs, errors.New("marketdata.symbols: at least one symbol is required when enabled"))
		}
	}
	if c.Relay.Enabled && len(c.Relay.Feeds) == 0 {
		errs = append(errs, errors.New("relay.feeds: at least one feed is required when relay is enabled"))
	}
	return errors.Join(errs...)
}
