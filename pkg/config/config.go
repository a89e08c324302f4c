package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"MacroPulse/pkg/util"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Snapshot struct {
		File string `yaml:"file"`
	} `yaml:"snapshot"`
	Refresh struct {
		CheckpointHours []int         `yaml:"checkpoint_hours"`
		ZoneOffsetHours int           `yaml:"zone_offset_hours"`
		RecencyWindow   time.Duration `yaml:"recency_window"`
		RunTimeout      time.Duration `yaml:"run_timeout"`
		TopNews         int           `yaml:"top_news"`
		TopSocial       int           `yaml:"top_social"`
		SparklinePoints int           `yaml:"sparkline_points"`
		IndicatorWindow int           `yaml:"indicator_window"`
		OnStartup       bool          `yaml:"on_startup"`
	} `yaml:"refresh"`
	Quotes struct {
		BaseURL      string        `yaml:"base_url"`
		Timeout      time.Duration `yaml:"timeout"`
		CacheTTL     time.Duration `yaml:"cache_ttl"`
		RateCapacity float64       `yaml:"rate_capacity"`
		RatePerSec   float64       `yaml:"rate_per_sec"`
		Redis        struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"quotes"`
	Portfolio  []HoldingConfig   `yaml:"portfolio"`
	Indicators []IndicatorConfig `yaml:"indicators"`
	News       struct {
		Timeout  time.Duration `yaml:"timeout"`
		Sources  []FeedConfig  `yaml:"sources"`
		Keywords []string      `yaml:"keywords"`
	} `yaml:"news"`
	Social struct {
		RelayURL string        `yaml:"relay_url"`
		Timeout  time.Duration `yaml:"timeout"`
		Accounts []string      `yaml:"accounts"`
	} `yaml:"social"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
	} `yaml:"kafka"`
}

// HoldingConfig is one static portfolio position. Cash entries are valued at
// quantity and never fetched.
type HoldingConfig struct {
	Symbol   string  `yaml:"symbol"`
	Quantity float64 `yaml:"quantity"`
	Cash     bool    `yaml:"cash"`
}

// IndicatorConfig is one macro indicator to track.
type IndicatorConfig struct {
	Symbol string `yaml:"symbol"`
	Name   string `yaml:"name"`
}

// FeedConfig is one news feed to monitor.
type FeedConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

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

	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = util.ParseIntDefault(v, c.Server.Port)
	}
	if v := os.Getenv("SNAPSHOT_FILE"); v != "" {
		c.Snapshot.File = v
	}
	if v := os.Getenv("QUOTES_BASE_URL"); v != "" {
		c.Quotes.BaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Quotes.Redis.Enabled = true
		c.Quotes.Redis.Addr = v
	}
	if v := os.Getenv("SOCIAL_RELAY_URL"); v != "" {
		c.Social.RelayURL = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Snapshot.File == "" {
		c.Snapshot.File = "data/snapshot.json"
	}
	if len(c.Refresh.CheckpointHours) == 0 {
		c.Refresh.CheckpointHours = []int{6, 10, 14, 18}
	}
	if c.Refresh.RecencyWindow == 0 {
		c.Refresh.RecencyWindow = 4 * time.Hour
	}
	if c.Refresh.RunTimeout == 0 {
		c.Refresh.RunTimeout = 2 * time.Minute
	}
	if c.Refresh.TopNews == 0 {
		c.Refresh.TopNews = 5
	}
	if c.Refresh.TopSocial == 0 {
		c.Refresh.TopSocial = 5
	}
	if c.Refresh.SparklinePoints == 0 {
		c.Refresh.SparklinePoints = 24
	}
	if c.Refresh.IndicatorWindow == 0 {
		c.Refresh.IndicatorWindow = 4
	}
	if c.Quotes.BaseURL == "" {
		c.Quotes.BaseURL = "https://query1.finance.yahoo.com"
	}
	if c.Quotes.Timeout == 0 {
		c.Quotes.Timeout = 15 * time.Second
	}
	if c.Quotes.CacheTTL == 0 {
		c.Quotes.CacheTTL = 5 * time.Minute
	}
	if c.Quotes.RateCapacity == 0 {
		c.Quotes.RateCapacity = 10
	}
	if c.Quotes.RatePerSec == 0 {
		c.Quotes.RatePerSec = 5
	}
	if c.News.Timeout == 0 {
		c.News.Timeout = 15 * time.Second
	}
	if c.Social.Timeout == 0 {
		c.Social.Timeout = 15 * time.Second
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if len(c.Portfolio) == 0 {
		return fmt.Errorf("portfolio cannot be empty")
	}
	seen := make(map[string]bool, len(c.Portfolio))
	for _, h := range c.Portfolio {
		if h.Symbol == "" {
			return fmt.Errorf("portfolio symbol is required")
		}
		if h.Quantity <= 0 {
			return fmt.Errorf("portfolio quantity for %s must be positive", h.Symbol)
		}
		if seen[h.Symbol] {
			return fmt.Errorf("duplicate portfolio symbol %s", h.Symbol)
		}
		seen[h.Symbol] = true
	}
	for _, h := range c.Refresh.CheckpointHours {
		if h < 0 || h > 23 {
			return fmt.Errorf("checkpoint hour %d out of range", h)
		}
	}
	if c.Refresh.ZoneOffsetHours < -12 || c.Refresh.ZoneOffsetHours > 14 {
		return fmt.Errorf("zone_offset_hours %d out of range", c.Refresh.ZoneOffsetHours)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers required when kafka is enabled")
	}
	return nil
}
