package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// MillisPerDay is the span the provider's daily quota covers.
const MillisPerDay = 86400000

// Config holds all application configuration. It is loaded once at startup
// and not modified afterwards.
type Config struct {
	DataSource struct {
		BaseURL    string `yaml:"base_url"`
		APIKey     string `yaml:"api_key"`
		Symbol     string `yaml:"symbol"`
		Interval   string `yaml:"interval"`
		OutputSize string `yaml:"output_size"`
		DailyQuota int64  `yaml:"daily_quota"`
		TimeoutSec int    `yaml:"timeout_sec"`
	} `yaml:"data_source"`
	Refresh struct {
		IntervalMs int64 `yaml:"interval_ms"`
		OnStart    bool  `yaml:"on_start"`
	} `yaml:"refresh"`
	Store struct {
		SnapshotPath string `yaml:"snapshot_path"`
		CSVPath      string `yaml:"csv_path"`
	} `yaml:"store"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Proxy string `yaml:"proxy"`
}

// Load reads the .env file (if any) and config from a YAML file, then applies
// environment variable overrides and defaults.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	cfg := &Config{}
	cfg.Refresh.OnStart = true

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("ALPHA_VANTAGE_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("ALPHA_VANTAGE_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("SYMBOL"); v != "" {
		cfg.DataSource.Symbol = v
	}
	if v := os.Getenv("REFRESH_INTERVAL_MS"); v != "" {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("REFRESH_INTERVAL_MS: %w", err)
		}
		cfg.Refresh.IntervalMs = ms
	}
	if v := os.Getenv("SNAPSHOT_PATH"); v != "" {
		cfg.Store.SnapshotPath = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.DataSource.Symbol == "" {
		cfg.DataSource.Symbol = "GOOG"
	}
	if cfg.DataSource.Interval == "" {
		cfg.DataSource.Interval = "1min"
	}
	if cfg.DataSource.OutputSize == "" {
		cfg.DataSource.OutputSize = "compact"
	}
	if cfg.DataSource.DailyQuota == 0 {
		cfg.DataSource.DailyQuota = 500
	}
	if cfg.DataSource.TimeoutSec == 0 {
		cfg.DataSource.TimeoutSec = 30
	}
	if cfg.Refresh.IntervalMs == 0 {
		cfg.Refresh.IntervalMs = 180000
	}
	if cfg.Store.SnapshotPath == "" {
		cfg.Store.SnapshotPath = "data/data.json"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/tickercard.db"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8050"
	}

	return cfg, nil
}

// Timeout returns the outbound request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.DataSource.TimeoutSec) * time.Second
}

// DailyCalls returns how many refreshes an interval of intervalMs produces in 24h.
func DailyCalls(intervalMs int64) int64 {
	if intervalMs <= 0 {
		return 0
	}
	return MillisPerDay / intervalMs
}

// MinIntervalMs returns the shortest interval that keeps daily calls within quota.
func MinIntervalMs(quota int64) int64 {
	if quota <= 0 {
		return MillisPerDay + 1
	}
	return MillisPerDay/(quota+1) + 1
}

var validIntervals = map[string]bool{
	"1min": true, "5min": true, "15min": true, "30min": true, "60min": true,
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.DataSource.APIKey == "" {
		return fmt.Errorf("data_source.api_key is required (or ALPHA_VANTAGE_API_KEY)")
	}
	if c.DataSource.Symbol == "" {
		return fmt.Errorf("data_source.symbol is required")
	}
	if !validIntervals[c.DataSource.Interval] {
		return fmt.Errorf("data_source.interval %q is not one of 1min, 5min, 15min, 30min, 60min", c.DataSource.Interval)
	}
	if c.DataSource.OutputSize != "compact" && c.DataSource.OutputSize != "full" {
		return fmt.Errorf("data_source.output_size must be compact or full")
	}
	if c.DataSource.DailyQuota <= 0 {
		return fmt.Errorf("data_source.daily_quota must be positive")
	}
	if c.DataSource.TimeoutSec <= 0 {
		return fmt.Errorf("data_source.timeout_sec must be positive")
	}
	if c.Refresh.IntervalMs < 1000 {
		return fmt.Errorf("refresh.interval_ms must be at least 1000")
	}
	if calls := DailyCalls(c.Refresh.IntervalMs); calls > c.DataSource.DailyQuota {
		return fmt.Errorf("refresh.interval_ms=%d makes %d calls/day, over the quota of %d (minimum interval %dms)",
			c.Refresh.IntervalMs, calls, c.DataSource.DailyQuota, MinIntervalMs(c.DataSource.DailyQuota))
	}
	if c.Store.SnapshotPath == "" {
		return fmt.Errorf("store.snapshot_path is required")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}
