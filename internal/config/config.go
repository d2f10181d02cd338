package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"StockAnalyzerView/internal/model"
)

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		Provider string `yaml:"provider"` // backend, yahoo or mock
		BaseURL  string `yaml:"base_url"`
		APIKey   string `yaml:"api_key"`
	} `yaml:"data_source"`
	Cache struct {
		RedisAddr     string        `yaml:"redis_addr"`
		RedisPassword string        `yaml:"redis_password"`
		RedisDB       int           `yaml:"redis_db"`
		TTL           time.Duration `yaml:"ttl"`
	} `yaml:"cache"`
	Chart struct {
		Width         int      `yaml:"width"`
		Height        int      `yaml:"height"`
		DefaultSymbol string   `yaml:"default_symbol"`
		DefaultIndex  string   `yaml:"default_index"`
		Indices       []string `yaml:"indices"`
	} `yaml:"chart"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Refresh struct {
		Cron string `yaml:"cron"` // empty disables periodic re-requests
	} `yaml:"refresh"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"` // empty disables render history
	} `yaml:"database"`
	Log struct {
		Level  string `yaml:"level"`
		File   string `yaml:"file"`
		Format string `yaml:"format"` // text or json
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads an optional .env file and the YAML config at path, then applies
// environment variable overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("CHART_PROVIDER"); v != "" {
		c.DataSource.Provider = v
	}
	if v := os.Getenv("CHART_API_BASE_URL"); v != "" {
		c.DataSource.BaseURL = v
	}
	if v := os.Getenv("CHART_API_KEY"); v != "" {
		c.DataSource.APIKey = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Cache.RedisPassword = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Cache.RedisDB = n
		}
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Cache.TTL = d
		}
	}
	if v := os.Getenv("CHART_WIDTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Chart.Width = n
		}
	}
	if v := os.Getenv("CHART_HEIGHT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Chart.Height = n
		}
	}
	if v := os.Getenv("CHART_DEFAULT_SYMBOL"); v != "" {
		c.Chart.DefaultSymbol = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv("CRON_REFRESH"); v != "" {
		c.Refresh.Cron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		c.Log.File = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
}

func (c *Config) applyDefaults() {
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "backend"
	}
	if c.DataSource.BaseURL == "" {
		c.DataSource.BaseURL = "http://localhost:8080"
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 5 * time.Minute
	}
	if c.Chart.Width == 0 {
		c.Chart.Width = 1000
	}
	if c.Chart.Height == 0 {
		c.Chart.Height = 600
	}
	if c.Chart.DefaultSymbol == "" {
		c.Chart.DefaultSymbol = "TSLA"
	}
	if len(c.Chart.Indices) == 0 {
		c.Chart.Indices = []string{"SPX", "NDX", "DJI"}
	}
	if c.Chart.DefaultIndex == "" {
		c.Chart.DefaultIndex = c.Chart.Indices[0]
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8090"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case "backend":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for the backend provider")
		}
	case "yahoo", "mock":
	default:
		return fmt.Errorf("data_source.provider must be backend, yahoo or mock, got %q", c.DataSource.Provider)
	}
	if c.Chart.Width <= 0 || c.Chart.Height <= 0 {
		return fmt.Errorf("chart.width and chart.height must be positive")
	}
	if !c.IsIndex(c.Chart.DefaultIndex) {
		return fmt.Errorf("chart.default_index %q is not one of chart.indices", c.Chart.DefaultIndex)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	if c.Refresh.Cron != "" {
		if _, err := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow).Parse(c.Refresh.Cron); err != nil {
			return fmt.Errorf("refresh.cron: %w", err)
		}
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// RequestPolicy returns the symbol defaults and index list every chart entry
// point resolves requests against.
func (c *Config) RequestPolicy() model.RequestPolicy {
	return model.RequestPolicy{
		DefaultSymbol: c.Chart.DefaultSymbol,
		DefaultIndex:  c.Chart.DefaultIndex,
		Indices:       c.Chart.Indices,
	}
}

// IsIndex reports whether symbol is one of the configured index toggles.
func (c *Config) IsIndex(symbol string) bool {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	for _, s := range c.Chart.Indices {
		if strings.EqualFold(s, symbol) {
			return true
		}
	}
	return false
}
