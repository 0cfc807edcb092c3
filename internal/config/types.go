package config

// Config is the full YAML configuration surface.
type Config struct {
	Log        LogConfig        `yaml:"log"`
	Storage    StorageConfig    `yaml:"storage"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Alert      AlertConfig      `yaml:"alert"`
	MarketData MarketDataConfig `yaml:"marketdata"`
	Relay      RelayConfig      `yaml:"relay"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

type StorageConfig struct {
	Path        string   `yaml:"path"`
	BusyTimeout Duration `yaml:"busy_timeout"`
}

type TelegramConfig struct {
	Token     string `yaml:"token"` // NEWSWATCH_TELEGRAM_TOKEN overrides
	ChatID    int64  `yaml:"chat_id"`
	ParseMode string `yaml:"parse_mode"`
}

type IngestConfig struct {
	Feeds        []string `yaml:"feeds"`
	Interval     Duration `yaml:"interval"`
	FetchTimeout Duration `yaml:"fetch_timeout"`
	MaxPerFeed   int      `yaml:"max_per_feed"`
}

type AlertConfig struct {
	Interval   Duration `yaml:"interval"`
	MinWeight  int      `yaml:"min_weight"`
	Keywords   []string `yaml:"keywords"`
	BatchSize  int      `yaml:"batch_size"`
	MinSendGap Duration `yaml:"min_send_gap"`
}

type MarketDataConfig struct {
	Enabled bool     `yaml:"enabled"`
	URL     string   `yaml:"url"`
	Symbols []string `yaml:"symbols"`
}

type RelayConfig struct {
	Enabled       bool     `yaml:"enabled"`
	Feeds         []string `yaml:"feeds"`
	Interval      Duration `yaml:"interval"`
	DownstreamURL string   `yaml:"downstream_url"`
	MaxPerFeed    int      `yaml:"max_per_feed"`
	Pause         Duration `yaml:"pause"`
}
