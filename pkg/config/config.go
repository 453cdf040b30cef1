package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		RateLimitRPS    float64       `yaml:"rate_limit_rps"`
		RateLimitBurst  int           `yaml:"rate_limit_burst"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Analysis struct {
		Horizons     []int    `yaml:"horizons"`
		Duration     int      `yaml:"duration"`
		Exclusions   []string `yaml:"exclusions"`
		HorizonMode  string   `yaml:"horizon_mode"`
		LookbackDays int      `yaml:"lookback_days"`
		VolumeWindow int      `yaml:"volume_window"`
		Workers      int      `yaml:"workers"`
		RecentDays   int      `yaml:"recent_days"`
	} `yaml:"analysis"`
	AlphaVantage struct {
		BaseURL    string        `yaml:"base_url"`
		APIKey     string        `yaml:"api_key"`
		OutputSize string        `yaml:"output_size"`
		Timeout    time.Duration `yaml:"timeout"`
		RateLimit  float64       `yaml:"rate_limit"` // requests per second
	} `yaml:"alphavantage"`
	SEC struct {
		TickersURL     string        `yaml:"tickers_url"`
		SubmissionsURL string        `yaml:"submissions_url"`
		UserAgent      string        `yaml:"user_agent"`
		Timeout        time.Duration `yaml:"timeout"`
		RateLimit      float64       `yaml:"rate_limit"`
	} `yaml:"sec"`
	Sentiment struct {
		Provider   string        `yaml:"provider"` // none, claude, http
		APIKey     string        `yaml:"api_key"`
		Model      string        `yaml:"model"`
		MaxTokens  int           `yaml:"max_tokens"`
		ServiceURL string        `yaml:"service_url"`
		Timeout    time.Duration `yaml:"timeout"`
		RateLimit  float64       `yaml:"rate_limit"`
		Attempts   int           `yaml:"attempts"`
	} `yaml:"sentiment"`
	Store struct {
		Type string `yaml:"type"` // clickhouse, sqlite, none
	} `yaml:"store"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequestTopic string   `yaml:"request_topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	CacheTTL struct {
		Tickers   time.Duration `yaml:"tickers"`
		Prices    time.Duration `yaml:"prices"`
		Filings   time.Duration `yaml:"filings"`
		Responses time.Duration `yaml:"responses"`
	} `yaml:"cache_ttl"`
	Watchlist struct {
		Enabled  bool     `yaml:"enabled"`
		Schedule string   `yaml:"schedule"`
		Tickers  []string `yaml:"tickers"`
	} `yaml:"watchlist"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML, fills defaults and validates.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		c.AlphaVantage.APIKey = v
	}
	if v := getenv("SEC_USER_AGENT"); v != "" {
		c.SEC.UserAgent = v
	}
	if v := getenv("ANTHROPIC_API_KEY"); v != "" {
		c.Sentiment.APIKey = v
	}
	if v := getenv("STORE_TYPE"); v != "" {
		c.Store.Type = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := getenv("WATCHLIST"); v != "" {
		c.Watchlist.Tickers = strings.Split(v, ",")
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Analysis.Duration <= 0 {
		c.Analysis.Duration = 30
	}
	if len(c.Analysis.Horizons) == 0 {
		c.Analysis.Horizons = []int{1, 5}
	}
	if c.Analysis.Exclusions == nil {
		c.Analysis.Exclusions = []string{"Insider Trading", "Insider Trading (Annual)", "Employee Stock Plan"}
	}
	if c.Analysis.HorizonMode == "" {
		c.Analysis.HorizonMode = "calendar"
	}
	if c.Analysis.LookbackDays <= 0 {
		c.Analysis.LookbackDays = 120
	}
	if c.Analysis.VolumeWindow <= 0 {
		c.Analysis.VolumeWindow = 10
	}
	if c.Analysis.Workers <= 0 {
		c.Analysis.Workers = 4
	}
	if c.Analysis.RecentDays <= 0 {
		c.Analysis.RecentDays = 10
	}
	if c.AlphaVantage.BaseURL == "" {
		c.AlphaVantage.BaseURL = "https://www.alphavantage.co/query"
	}
	if c.AlphaVantage.OutputSize == "" {
		c.AlphaVantage.OutputSize = "compact"
	}
	if c.SEC.TickersURL == "" {
		c.SEC.TickersURL = "https://www.sec.gov/files/company_tickers.json"
	}
	if c.SEC.SubmissionsURL == "" {
		c.SEC.SubmissionsURL = "https://data.sec.gov/submissions"
	}
	if c.SEC.RateLimit <= 0 {
		c.SEC.RateLimit = 5
	}
	if c.Sentiment.Provider == "" {
		c.Sentiment.Provider = "none"
	}
	if c.Store.Type == "" {
		c.Store.Type = "none"
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "reactions"
	}
	if c.Kafka.RequestTopic == "" {
		c.Kafka.RequestTopic = "analysis.requests"
	}
	if c.CacheTTL.Tickers <= 0 {
		c.CacheTTL.Tickers = 24 * time.Hour
	}
	if c.CacheTTL.Prices <= 0 {
		c.CacheTTL.Prices = time.Hour
	}
	if c.CacheTTL.Responses <= 0 {
		c.CacheTTL.Responses = 10 * time.Minute
	}
	if c.Watchlist.Schedule == "" {
		c.Watchlist.Schedule = "30 22 * * 1-5"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Store.Type {
	case "clickhouse", "sqlite", "none":
	default:
		return fmt.Errorf("store.type must be 'clickhouse', 'sqlite' or 'none', got '%s'", c.Store.Type)
	}
	if c.Store.Type == "sqlite" && c.SQLite.Path == "" {
		return fmt.Errorf("sqlite.path is required for sqlite store")
	}
	switch c.Analysis.HorizonMode {
	case "calendar", "trading":
	default:
		return fmt.Errorf("analysis.horizon_mode must be 'calendar' or 'trading', got '%s'", c.Analysis.HorizonMode)
	}
	for _, h := range c.Analysis.Horizons {
		if h < 0 {
			return fmt.Errorf("analysis.horizons must not be negative, got %d", h)
		}
	}
	switch c.Sentiment.Provider {
	case "none":
	case "claude":
		if c.Sentiment.APIKey == "" {
			return fmt.Errorf("sentiment.api_key is required for claude provider")
		}
	case "http":
		if c.Sentiment.ServiceURL == "" {
			return fmt.Errorf("sentiment.service_url is required for http provider")
		}
	default:
		return fmt.Errorf("sentiment.provider must be 'none', 'claude' or 'http', got '%s'", c.Sentiment.Provider)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Watchlist.Enabled && len(c.Watchlist.Tickers) == 0 {
		return fmt.Errorf("watchlist.tickers cannot be empty when watchlist is enabled")
	}
	return nil
}
