package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Broker   BrokerConfig   `yaml:"broker"`
	Quotes   QuotesConfig   `yaml:"quotes"`
	Advisor  AdvisorConfig  `yaml:"advisor"`
	Telegram TelegramConfig `yaml:"telegram"`
	Web      WebConfig      `yaml:"web"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type BrokerConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Token     string `yaml:"token"`
	Sandbox   bool   `yaml:"sandbox"`
	AccountID string `yaml:"account_id"`
}

type QuotesConfig struct {
	RefreshInterval string `yaml:"refresh_interval"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	MarketHoursOnly bool   `yaml:"market_hours_only"`
}

type AdvisorConfig struct {
	Enabled        bool   `yaml:"enabled"`
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

type WebConfig struct {
	Port            int      `yaml:"port"`
	AdminKey        string   `yaml:"admin_key"`
	CORSOrigins     []string `yaml:"cors_origins"`
	SessionTTLHours int      `yaml:"session_ttl_hours"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

func Load(path string) (*Config, error) {
	// Secrets may live in a .env file next to the binary; a missing file is fine.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FOLIODESK_BROKER_TOKEN"); v != "" {
		cfg.Broker.Token = v
	}
	if v := os.Getenv("FOLIODESK_ADVISOR_KEY"); v != "" {
		cfg.Advisor.APIKey = v
	}
	if v := os.Getenv("FOLIODESK_TELEGRAM_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("FOLIODESK_ADMIN_KEY"); v != "" {
		cfg.Web.AdminKey = v
	}
}

func setDefaults(cfg *Config) {
	if cfg.Quotes.RefreshInterval == "" {
		cfg.Quotes.RefreshInterval = "5m"
	}
	if cfg.Quotes.TimeoutSeconds == 0 {
		cfg.Quotes.TimeoutSeconds = 15
	}
	if cfg.Advisor.Model == "" {
		cfg.Advisor.Model = "gpt-4o-mini"
	}
	if cfg.Advisor.TimeoutSeconds == 0 {
		cfg.Advisor.TimeoutSeconds = 60
	}
	if cfg.Web.Port == 0 {
		cfg.Web.Port = 8080
	}
	if cfg.Web.SessionTTLHours == 0 {
		cfg.Web.SessionTTLHours = 72
	}
	if len(cfg.Web.CORSOrigins) == 0 {
		cfg.Web.CORSOrigins = []string{"*"}
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/foliodesk.db"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

func (c *Config) Validate() error {
	if c.Broker.Enabled && c.Broker.Token == "" {
		return fmt.Errorf("broker.token is required when broker is enabled")
	}
	if _, err := time.ParseDuration(c.Quotes.RefreshInterval); err != nil {
		return fmt.Errorf("invalid quotes.refresh_interval %q: %w", c.Quotes.RefreshInterval, err)
	}
	if c.Advisor.Enabled && c.Advisor.APIKey == "" {
		return fmt.Errorf("advisor.api_key is required when advisor is enabled")
	}
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == 0 {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}
	return nil
}

func (c *Config) IsSandbox() bool {
	return c.Broker.Sandbox
}

func (c *Config) RefreshInterval() time.Duration {
	d, _ := time.ParseDuration(c.Quotes.RefreshInterval)
	return d
}

func (c *Config) QuoteTimeout() time.Duration {
	return time.Duration(c.Quotes.TimeoutSeconds) * time.Second
}

func (c *Config) AdvisorTimeout() time.Duration {
	return time.Duration(c.Advisor.TimeoutSeconds) * time.Second
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Web.SessionTTLHours) * time.Hour
}

// MarketLocation is the exchange timezone behind the optional
// market-hours gate on the refresh loop.
func (c *Config) MarketLocation() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.FixedZone("ET", -5*60*60)
	}
	return loc
}
