package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"MarketScanner/internal/strategy"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// ErrMissing is wrapped by Validate when required settings are absent.
var ErrMissing = errors.New("missing required configuration")

// Config holds all application configuration.
type Config struct {
	Alpaca struct {
		KeyID      string `yaml:"key_id" envconfig:"ALPACA_API_KEY"`
		SecretKey  string `yaml:"secret_key" envconfig:"ALPACA_SECRET_KEY"`
		TradingURL string `yaml:"trading_url" envconfig:"ALPACA_BASE_URL"`
		DataURL    string `yaml:"data_url" envconfig:"ALPACA_DATA_URL"`
		Feed       string `yaml:"feed" envconfig:"ALPACA_FEED"`
	} `yaml:"alpaca"`
	Yahoo struct {
		Enabled bool   `yaml:"enabled" envconfig:"YAHOO_ENABLED"`
		BaseURL string `yaml:"base_url" envconfig:"YAHOO_BASE_URL"`
	} `yaml:"yahoo"`
	Telegram struct {
		BotToken   string `yaml:"bot_token" envconfig:"TELEGRAM_BOT_TOKEN"`
		ChatID     string `yaml:"chat_id" envconfig:"TELEGRAM_CHAT_ID"`
		MaxRetries int    `yaml:"max_retries" envconfig:"TELEGRAM_MAX_RETRIES"`
		Commands   bool   `yaml:"commands" envconfig:"TELEGRAM_COMMANDS"`
	} `yaml:"telegram"`
	DataSource struct {
		Exchanges []string `yaml:"exchanges" envconfig:"EXCHANGES"`
		BatchSize int      `yaml:"batch_size" envconfig:"BATCH_SIZE"`
	} `yaml:"data_source"`
	Criteria strategy.Criteria `yaml:"criteria" ignored:"true"`
	Tracking struct {
		WindowSize  int           `yaml:"window_size" envconfig:"WINDOW_SIZE"`
		FallPrefix  int           `yaml:"fall_prefix" envconfig:"FALL_PREFIX"`
		MinRiseGain float64       `yaml:"min_rise_gain" envconfig:"MIN_RISE_GAIN"`
		MaxAge      time.Duration `yaml:"max_age" envconfig:"MAX_AGE"`
	} `yaml:"tracking"`
	Schedule struct {
		ScanInterval time.Duration `yaml:"scan_interval" envconfig:"SCAN_INTERVAL"`
		SummaryCron  string        `yaml:"summary_cron" envconfig:"CRON_SUMMARY"`
		PruneCron    string        `yaml:"prune_cron" envconfig:"CRON_PRUNE"`
		RunOnStart   bool          `yaml:"run_on_start" envconfig:"RUN_ON_START"`
	} `yaml:"schedule"`
	Database struct {
		Driver string `yaml:"driver" envconfig:"DB_DRIVER"`
		DSN    string `yaml:"dsn" envconfig:"DB_DSN"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy" envconfig:"HTTPS_PROXY"`
}

// Load reads config from a YAML file, then applies .env and environment
// variable overrides, then defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{Criteria: strategy.DefaultCriteria()}
	cfg.Yahoo.Enabled = true
	cfg.Schedule.RunOnStart = true
	cfg.Telegram.Commands = true

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	loadDotEnv(".env")

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// loadDotEnv loads an optional .env file; variables already set in the
// environment win. Only a missing file is silent.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] load %s: %v", path, err)
		return err
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Alpaca.Feed == "" {
		c.Alpaca.Feed = "iex"
	}
	if len(c.DataSource.Exchanges) == 0 {
		c.DataSource.Exchanges = []string{"NYSE", "NASDAQ"}
	}
	if c.DataSource.BatchSize == 0 {
		c.DataSource.BatchSize = 100
	}
	d := strategy.DefaultDetector()
	if c.Tracking.WindowSize == 0 {
		c.Tracking.WindowSize = d.WindowSize
	}
	if c.Tracking.FallPrefix == 0 {
		c.Tracking.FallPrefix = d.FallPrefix
	}
	if c.Tracking.MinRiseGain == 0 {
		c.Tracking.MinRiseGain = d.MinRiseGain
	}
	if c.Schedule.ScanInterval == 0 {
		c.Schedule.ScanInterval = 120 * time.Second
	}
	if c.Schedule.SummaryCron == "" {
		c.Schedule.SummaryCron = "0 0 21 * * 1-5"
	}
	if c.Schedule.PruneCron == "" {
		c.Schedule.PruneCron = "0 */10 * * * *"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.DSN == "" {
		c.Database.DSN = "data/market_scanner.db"
	}
}

// Validate checks that all required fields are set and the thresholds are coherent.
func (c *Config) Validate() error {
	var missing []string
	if c.Alpaca.KeyID == "" {
		missing = append(missing, "ALPACA_API_KEY")
	}
	if c.Alpaca.SecretKey == "" {
		missing = append(missing, "ALPACA_SECRET_KEY")
	}
	if c.Telegram.BotToken == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	if c.Telegram.ChatID == "" {
		missing = append(missing, "TELEGRAM_CHAT_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
	}

	if c.Tracking.WindowSize < 2 {
		return fmt.Errorf("tracking.window_size must be at least 2")
	}
	if c.Tracking.FallPrefix < 2 || c.Tracking.FallPrefix > c.Tracking.WindowSize {
		return fmt.Errorf("tracking.fall_prefix must be between 2 and window_size (%d)", c.Tracking.WindowSize)
	}
	if c.Tracking.MaxAge < 0 {
		return fmt.Errorf("tracking.max_age must not be negative")
	}
	if c.Criteria.MinPrice >= c.Criteria.MaxPrice {
		return fmt.Errorf("criteria.min_price must be below criteria.max_price")
	}
	if c.DataSource.BatchSize < 1 || c.DataSource.BatchSize > 100 {
		return fmt.Errorf("data_source.batch_size must be between 1 and 100")
	}
	if c.Schedule.ScanInterval <= 0 {
		return fmt.Errorf("schedule.scan_interval must be positive")
	}
	if c.Telegram.MaxRetries < 0 {
		return fmt.Errorf("telegram.max_retries must not be negative")
	}
	switch c.Database.Driver {
	case "none", "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver must be none, sqlite or postgres")
	}
	if c.Database.Driver != "none" && c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required for driver %s", c.Database.Driver)
	}
	return nil
}

// Detector builds the trend detector described by the tracking settings.
func (c *Config) Detector() strategy.Detector {
	return strategy.Detector{
		WindowSize:  c.Tracking.WindowSize,
		FallPrefix:  c.Tracking.FallPrefix,
		MinRiseGain: c.Tracking.MinRiseGain,
	}
}
