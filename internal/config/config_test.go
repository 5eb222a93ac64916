package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"ALPHA_VANTAGE_API_KEY", "ALPHA_VANTAGE_BASE_URL", "SYMBOL", "REFRESH_INTERVAL_MS",
		"SNAPSHOT_PATH", "SQLITE_PATH", "HTTP_ADDR", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "HTTPS_PROXY",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DataSource.Symbol != "GOOG" || cfg.DataSource.Interval != "1min" || cfg.DataSource.OutputSize != "compact" {
		t.Errorf("unexpected data source defaults: %+v", cfg.DataSource)
	}
	if cfg.Refresh.IntervalMs != 180000 || !cfg.Refresh.OnStart {
		t.Errorf("unexpected refresh defaults: %+v", cfg.Refresh)
	}
	if cfg.Store.SnapshotPath != "data/data.json" || cfg.HTTP.Addr != ":8050" {
		t.Errorf("unexpected path defaults: %+v %+v", cfg.Store, cfg.HTTP)
	}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "api_key") {
		t.Errorf("expected missing api key error, got %v", err)
	}
}

func TestLoad_YAMLAndEnvOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	yml := `
data_source:
  api_key: from-yaml
  symbol: MSFT
  interval: 5min
  daily_quota: 25
refresh:
  interval_ms: 3600000
  on_start: false
store:
  csv_path: data/data.csv
`
	if err := os.WriteFile(cfgPath, []byte(yml), 0644); err != nil {
		t.Fatal(err)
	}
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("ALPHA_VANTAGE_API_KEY=from-dotenv\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SYMBOL", "AAPL")
	// godotenv never overrides a variable that is already set, even to ""
	os.Unsetenv("ALPHA_VANTAGE_API_KEY")

	cfg, err := Load(cfgPath, envPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DataSource.APIKey != "from-dotenv" {
		t.Errorf("expected .env api key, got %q", cfg.DataSource.APIKey)
	}
	if cfg.DataSource.Symbol != "AAPL" {
		t.Errorf("expected env symbol override, got %q", cfg.DataSource.Symbol)
	}
	if cfg.DataSource.Interval != "5min" || cfg.Store.CSVPath != "data/data.csv" || cfg.Refresh.OnStart {
		t.Errorf("yaml values not applied: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestLoad_BadInterval(t *testing.T) {
	clearEnv(t)
	t.Setenv("REFRESH_INTERVAL_MS", "soon")
	if _, err := Load(filepath.Join(t.TempDir(), "none.yaml"), ""); err == nil {
		t.Error("expected parse error")
	}
}

func TestDailyCalls(t *testing.T) {
	tests := []struct {
		ms   int64
		want int64
	}{
		{180000, 480},
		{172800, 500},
		{60000, 1440},
		{3456000, 25},
		{0, 0},
	}
	for _, tt := range tests {
		if got := DailyCalls(tt.ms); got != tt.want {
			t.Errorf("DailyCalls(%d): expected %d, got %d", tt.ms, tt.want, got)
		}
	}
}

func TestMinIntervalMs_RespectsQuota(t *testing.T) {
	for _, quota := range []int64{1, 7, 25, 75, 500, 1440} {
		ms := MinIntervalMs(quota)
		if DailyCalls(ms) > quota {
			t.Errorf("quota %d: interval %d gives %d calls", quota, ms, DailyCalls(ms))
		}
		if ms > 1 && DailyCalls(ms-1) <= quota {
			t.Errorf("quota %d: interval %d is not minimal", quota, ms)
		}
	}
}

func validConfig() *Config {
	cfg := &Config{}
	cfg.DataSource.APIKey = "k"
	cfg.DataSource.Symbol = "GOOG"
	cfg.DataSource.Interval = "1min"
	cfg.DataSource.OutputSize = "compact"
	cfg.DataSource.DailyQuota = 500
	cfg.DataSource.TimeoutSec = 30
	cfg.Refresh.IntervalMs = 180000
	cfg.Store.SnapshotPath = "data/data.json"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errSub string
	}{
		{"valid", func(*Config) {}, ""},
		{"over quota", func(c *Config) { c.Refresh.IntervalMs = 60000 }, "over the quota"},
		{"exactly quota", func(c *Config) { c.Refresh.IntervalMs = 172800 }, ""},
		{"sub second", func(c *Config) { c.Refresh.IntervalMs = 999 }, "at least 1000"},
		{"bad bar interval", func(c *Config) { c.DataSource.Interval = "2min" }, "interval"},
		{"bad output size", func(c *Config) { c.DataSource.OutputSize = "huge" }, "output_size"},
		{"half telegram", func(c *Config) { c.Telegram.BotToken = "x" }, "telegram"},
	}
	for _, tt := range tests {
		cfg := validConfig()
		tt.mutate(cfg)
		err := cfg.Validate()
		if tt.errSub == "" {
			if err != nil {
				t.Errorf("%s: unexpected error %v", tt.name, err)
			}
			continue
		}
		if err == nil || !strings.Contains(err.Error(), tt.errSub) {
			t.Errorf("%s: expected error containing %q, got %v", tt.name, tt.errSub, err)
		}
	}
}
