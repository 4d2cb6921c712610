package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Logging   LoggingConfig  `yaml:"logging"`
	HTTP      HTTPConfig     `yaml:"http"`
	Feed      FeedConfig     `yaml:"feed"`
	Target    TargetConfig   `yaml:"target"`
	TeamsFile string         `yaml:"teams_file"` // optional YAML team table merged over the built-in one
	Postgres  PostgresConfig `yaml:"postgres"`
	Telegram  TelegramConfig `yaml:"telegram"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // optional JSON log file in addition to stdout
}

type HTTPConfig struct {
	Port              int           `yaml:"port"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	RequestTimeout    time.Duration `yaml:"request_timeout"` // whole conversion incl. browser session
	AllowedOrigins    []string      `yaml:"allowed_origins"`
}

// FeedConfig configures the Sportybet share endpoint.
type FeedConfig struct {
	BaseURL   string            `yaml:"base_url"`
	Country   string            `yaml:"country"` // path segment, e.g. "tz", "ng", "gh"
	Timeout   time.Duration     `yaml:"timeout"`
	UserAgent string            `yaml:"user_agent"`
	Headers   map[string]string `yaml:"headers"`
}

// TargetConfig configures the Betpawa browser session and booking-number API.
type TargetConfig struct {
	BaseURL     string         `yaml:"base_url"`
	Brand       string         `yaml:"brand"`    // x-pawa-brand header, e.g. "betpawa-tanzania"
	Language    string         `yaml:"language"` // x-pawa-language header
	APITimeout  time.Duration  `yaml:"api_timeout"`
	Headless    bool           `yaml:"headless"`
	UserAgent   string         `yaml:"user_agent"`
	MaxSessions int            `yaml:"max_sessions"`
	StartupWait time.Duration  `yaml:"startup_wait"` // navigate-to-base deadline
	Timeouts    TimeoutsConfig `yaml:"timeouts"`
}

// TimeoutsConfig holds the bounded waits of the replication protocol.
type TimeoutsConfig struct {
	SearchReady time.Duration `yaml:"search_ready"`
	Locate      time.Duration `yaml:"locate"`
	Market      time.Duration `yaml:"market"`
	Confirm     time.Duration `yaml:"confirm"`
	Reveal      time.Duration `yaml:"reveal"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"` // optional; enables the team_aliases table
}

type TelegramConfig struct {
	BotToken       string  `yaml:"bot_token"`
	ConverterURL   string  `yaml:"converter_url"`
	AllowedUserIDs []int64 `yaml:"allowed_user_ids"`
	UpdateTimeout  int     `yaml:"update_timeout"`
}

func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.ApplyEnv()
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Default returns a config with every default applied, for running without a file.
func Default() *Config {
	var c Config
	c.ApplyEnv()
	c.ApplyDefaults()
	return &c
}

// ApplyEnv overrides selected fields from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("SLIPCONV_HTTP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.HTTP.Port = p
		}
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Postgres.DSN = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("SLIPCONV_HEADLESS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Target.Headless = b
		}
	}
}

func (c *Config) ApplyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 5000
	}
	if c.HTTP.ReadHeaderTimeout <= 0 {
		c.HTTP.ReadHeaderTimeout = 5 * time.Second
	}
	if c.HTTP.RequestTimeout <= 0 {
		c.HTTP.RequestTimeout = 5 * time.Minute
	}

	if c.Feed.BaseURL == "" {
		c.Feed.BaseURL = "https://www.sportybet.com"
	}
	if c.Feed.Country == "" {
		c.Feed.Country = "tz"
	}
	if c.Feed.Timeout <= 0 {
		c.Feed.Timeout = 10 * time.Second
	}
	if c.Feed.UserAgent == "" {
		c.Feed.UserAgent = DefaultUserAgent
	}

	if c.Target.BaseURL == "" {
		c.Target.BaseURL = "https://www.betpawa.co.tz"
	}
	if c.Target.Brand == "" {
		c.Target.Brand = "betpawa-tanzania"
	}
	if c.Target.Language == "" {
		c.Target.Language = "en"
	}
	if c.Target.APITimeout <= 0 {
		c.Target.APITimeout = 10 * time.Second
	}
	if c.Target.UserAgent == "" {
		c.Target.UserAgent = DefaultUserAgent
	}
	if c.Target.MaxSessions <= 0 {
		c.Target.MaxSessions = 1
	}
	if c.Target.StartupWait <= 0 {
		c.Target.StartupWait = 30 * time.Second
	}
	t := &c.Target.Timeouts
	if t.SearchReady <= 0 {
		t.SearchReady = 10 * time.Second
	}
	if t.Locate <= 0 {
		t.Locate = 20 * time.Second
	}
	if t.Market <= 0 {
		t.Market = 10 * time.Second
	}
	if t.Confirm <= 0 {
		t.Confirm = 5 * time.Second
	}
	if t.Reveal <= 0 {
		t.Reveal = 10 * time.Second
	}

	if c.Telegram.ConverterURL == "" {
		c.Telegram.ConverterURL = fmt.Sprintf("http://localhost:%d", c.HTTP.Port)
	}
	if c.Telegram.UpdateTimeout <= 0 {
		c.Telegram.UpdateTimeout = 60
	}
}

func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level)
	}
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port out of range: %d", c.HTTP.Port)
	}
	return nil
}

// DefaultUserAgent is the desktop Chrome agent both bookmakers accept.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
