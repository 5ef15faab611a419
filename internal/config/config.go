package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"SkytechIndex/internal/model"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Index struct {
		Key          string              `yaml:"key"`
		Title        string              `yaml:"title"`
		Constituents []model.Constituent `yaml:"constituents"`
		BaseDate     string              `yaml:"base_date"`
		BaseLevel    float64             `yaml:"base_level"`
		Timezone     string              `yaml:"timezone"`
	} `yaml:"index"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
		Polling  bool   `yaml:"polling"`
	} `yaml:"telegram"`
	DataSource struct {
		BaseURL       string `yaml:"base_url"`
		APIKey        string `yaml:"api_key"`
		IntradayDays  int    `yaml:"intraday_days"`
		RetryAttempts int    `yaml:"retry_attempts"`
		RetryBackoff  string `yaml:"retry_backoff"`
	} `yaml:"data_source"`
	Schedule struct {
		IntradayCron string `yaml:"intraday_cron"`
	} `yaml:"schedule"`
	Output struct {
		Dir string `yaml:"dir"`
	} `yaml:"output"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Cache struct {
		RedisAddr     string `yaml:"redis_addr"`
		RedisPassword string `yaml:"redis_password"`
		RedisDB       int    `yaml:"redis_db"`
		TTL           string `yaml:"ttl"`
	} `yaml:"cache"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
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

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CRON_INTRADAY"); v != "" {
		cfg.Schedule.IntradayCron = v
	}
	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}

	// Defaults
	if cfg.Index.Key == "" {
		cfg.Index.Key = "SKYTECH-3"
	}
	if cfg.Index.Title == "" {
		cfg.Index.Title = "スカイテック指数"
	}
	if len(cfg.Index.Constituents) == 0 {
		cfg.Index.Constituents = []model.Constituent{
			{Code: "6232", Symbol: "6232.T", Name: "ACSL"},
			{Code: "218A", Symbol: "218A.T", Name: "Liberaware"},
			{Code: "278A", Symbol: "278A.T", Name: "Terra Drone"},
		}
	}
	if cfg.Index.BaseDate == "" {
		cfg.Index.BaseDate = "2024-01-02"
	}
	if cfg.Index.BaseLevel == 0 {
		cfg.Index.BaseLevel = 1000
	}
	if cfg.Index.Timezone == "" {
		cfg.Index.Timezone = "Asia/Tokyo"
	}
	if cfg.DataSource.IntradayDays == 0 {
		cfg.DataSource.IntradayDays = 5
	}
	if cfg.DataSource.RetryAttempts == 0 {
		cfg.DataSource.RetryAttempts = 3
	}
	if cfg.DataSource.RetryBackoff == "" {
		cfg.DataSource.RetryBackoff = "2s"
	}
	if cfg.Schedule.IntradayCron == "" {
		cfg.Schedule.IntradayCron = "0 */5 9-15 * * 1-5"
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "docs/outputs"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/skytech_index.db"
	}
	if cfg.Cache.TTL == "" {
		cfg.Cache.TTL = "168h"
	}

	return cfg, nil
}

// Validate checks that the index definition and tuning values are usable.
func (c *Config) Validate() error {
	if c.Index.Key == "" {
		return fmt.Errorf("index.key is required")
	}
	if len(c.Index.Constituents) == 0 {
		return fmt.Errorf("index.constituents must not be empty")
	}
	seen := make(map[string]bool, len(c.Index.Constituents))
	for i, con := range c.Index.Constituents {
		if con.Code == "" || con.Symbol == "" {
			return fmt.Errorf("index.constituents[%d]: code and symbol are required", i)
		}
		if seen[con.Code] {
			return fmt.Errorf("index.constituents: duplicate code %s", con.Code)
		}
		seen[con.Code] = true
	}
	if c.Index.BaseLevel <= 0 {
		return fmt.Errorf("index.base_level must be positive")
	}
	if _, err := time.LoadLocation(c.Index.Timezone); err != nil {
		return fmt.Errorf("index.timezone: %w", err)
	}
	if _, err := time.Parse("2006-01-02", c.Index.BaseDate); err != nil {
		return fmt.Errorf("index.base_date: %w", err)
	}
	if c.DataSource.RetryAttempts < 1 {
		return fmt.Errorf("data_source.retry_attempts must be at least 1")
	}
	if c.DataSource.IntradayDays < 1 || c.DataSource.IntradayDays > 60 {
		return fmt.Errorf("data_source.intraday_days must be between 1 and 60")
	}
	if _, err := time.ParseDuration(c.DataSource.RetryBackoff); err != nil {
		return fmt.Errorf("data_source.retry_backoff: %w", err)
	}
	if _, err := time.ParseDuration(c.Cache.TTL); err != nil {
		return fmt.Errorf("cache.ttl: %w", err)
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required when bot_token is set")
	}
	if c.Telegram.ChatID != "" {
		if _, err := strconv.ParseInt(c.Telegram.ChatID, 10, 64); err != nil {
			return fmt.Errorf("telegram.chat_id must be numeric: %w", err)
		}
	}
	return nil
}

// Location loads the market time zone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Index.Timezone)
}

// Definition builds the index definition. The base date is midnight in market time.
func (c *Config) Definition() (model.Definition, error) {
	loc, err := c.Location()
	if err != nil {
		return model.Definition{}, fmt.Errorf("load timezone: %w", err)
	}
	base, err := time.ParseInLocation("2006-01-02", c.Index.BaseDate, loc)
	if err != nil {
		return model.Definition{}, fmt.Errorf("parse base date: %w", err)
	}
	return model.Definition{
		Key:          c.Index.Key,
		Title:        c.Index.Title,
		Constituents: c.Index.Constituents,
		Base:         model.BaseReference{Date: base, Level: c.Index.BaseLevel},
		Location:     loc,
	}, nil
}

// RetryBackoff returns the parsed data source backoff.
func (c *Config) RetryBackoff() time.Duration {
	d, _ := time.ParseDuration(c.DataSource.RetryBackoff)
	return d
}

// CacheTTL returns the parsed cache TTL.
func (c *Config) CacheTTL() time.Duration {
	d, _ := time.ParseDuration(c.Cache.TTL)
	return d
}
