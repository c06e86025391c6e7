package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config represents application configuration
type Config struct {
	News     NewsConfig     `envconfig:"NEWS"`
	LLM      LLMConfig      `envconfig:"LLM"`
	Digest   DigestConfig   `envconfig:"DIGEST"`
	Database DatabaseConfig `envconfig:"DATABASE"`
	Telegram TelegramConfig `envconfig:"TELEGRAM"`
	Logging  LoggingConfig  `envconfig:"LOGGING"`
}

// NewsConfig represents the news source (TradingView) configuration
type NewsConfig struct {
	Symbols        []string `envconfig:"NEWS_SYMBOLS" default:"GOOGL"`
	Exchange       string   `envconfig:"NEWS_EXCHANGE" default:"NASDAQ"`
	WindowDays     int      `envconfig:"NEWS_WINDOW_DAYS" default:"1"`
	TimeoutSeconds int      `envconfig:"NEWS_TIMEOUT_SECONDS" default:"10"`
	UserAgent      string   `envconfig:"NEWS_USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"`
	Cookie         string   `envconfig:"NEWS_COOKIE" required:"false"`
}

// LLMConfig represents the summarization provider configuration
type LLMConfig struct {
	APIKey         string `envconfig:"LLM_API_KEY" required:"false"`
	Model          string `envconfig:"LLM_MODEL" default:"gpt-4o-mini"`
	BaseURL        string `envconfig:"LLM_API_BASE" required:"false"`
	MaxRetries     int    `envconfig:"LLM_MAX_RETRIES" default:"3"`
	TimeoutSeconds int    `envconfig:"LLM_TIMEOUT_SECONDS" default:"60"`
}

// DigestConfig represents pipeline scheduling parameters
type DigestConfig struct {
	Interval    time.Duration `envconfig:"DIGEST_INTERVAL" default:"1h"`
	Concurrency int           `envconfig:"DIGEST_CONCURRENCY" default:"4"`
}

// DatabaseConfig represents database connection parameters
type DatabaseConfig struct {
	Host           string `envconfig:"DB_HOST" default:"localhost"`
	Port           int    `envconfig:"DB_PORT" default:"5432"`
	Name           string `envconfig:"DB_NAME" default:"newsdigest"`
	User           string `envconfig:"DB_USER" required:"true"`
	Password       string `envconfig:"DB_PASSWORD" required:"true"`
	SSLMode        string `envconfig:"DB_SSLMODE" default:"disable"`
	MigrationsPath string `envconfig:"DB_MIGRATIONS_PATH" default:"migrations"`
}

// TelegramConfig represents optional report delivery via Telegram
type TelegramConfig struct {
	BotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"false"`
	ChatID   int64  `envconfig:"TELEGRAM_CHAT_ID" required:"false"`
	Enabled  bool   `envconfig:"TELEGRAM_ENABLED" default:"false"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
	File  string `envconfig:"LOG_FILE" required:"false"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if len(c.News.Symbols) == 0 {
		return fmt.Errorf("at least one symbol must be configured")
	}
	if c.News.WindowDays < 0 {
		return fmt.Errorf("news window days must be >= 0")
	}
	if c.Digest.Concurrency < 1 {
		return fmt.Errorf("digest concurrency must be >= 1")
	}
	if c.LLM.MaxRetries < 1 {
		return fmt.Errorf("llm max retries must be >= 1")
	}
	if c.Telegram.Enabled && c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram enabled but no bot token configured")
	}

	return nil
}

// GetDSN returns PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.Host, c.Port, c.Name, c.User, c.Password, c.SSLMode,
	)
}
