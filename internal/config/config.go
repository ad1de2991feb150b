package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	DBPath          string        `env:"DB_PATH"           envDefault:"unreadwatch.sqlite"`
	PreferencesPath string        `env:"PREFERENCES_PATH"  envDefault:"preferences.yaml"`
	FeedURLTemplate string        `env:"FEED_URL_TEMPLATE" envDefault:"https://mail.google.com/mail/u/{slot}/feed/atom"`
	MailURL         string        `env:"MAIL_URL"          envDefault:"https://mail.google.com/"`
	FeedUsername    string        `env:"FEED_USERNAME"`
	FeedPassword    string        `env:"FEED_PASSWORD"`
	MaxAccountSlots int           `env:"MAX_ACCOUNT_SLOTS" envDefault:"5"`
	FetchTimeout    time.Duration `env:"FETCH_TIMEOUT"     envDefault:"10s"`
	CacheTTL        time.Duration `env:"CACHE_TTL"         envDefault:"30s"`
	ControlAddr     string        `env:"CONTROL_ADDR"      envDefault:"127.0.0.1:8089"`
	IconDir         string        `env:"ICON_DIR"`
	SoundCommand    string        `env:"SOUND_COMMAND"     envDefault:"paplay"`
	TelegramToken   string        `env:"TELEGRAM_TOKEN"`
	TelegramChatID  int64         `env:"TELEGRAM_CHAT_ID"`
	OpenAIAPIKey    string        `env:"OPENAI_API_KEY"`
	LogLevel        string        `env:"LOG_LEVEL"         envDefault:"info"`
}

func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err = cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if !strings.Contains(c.FeedURLTemplate, "{slot}") {
		return errors.New("FEED_URL_TEMPLATE must contain {slot}")
	}

	if c.MaxAccountSlots < 1 {
		return errors.New("MAX_ACCOUNT_SLOTS must be at least 1")
	}

	if c.FetchTimeout <= 0 {
		return errors.New("FETCH_TIMEOUT must be positive")
	}

	if c.CacheTTL <= 0 {
		return errors.New("CACHE_TTL must be positive")
	}

	if strings.TrimSpace(c.TelegramToken) != "" && c.TelegramChatID == 0 {
		return errors.New("TELEGRAM_CHAT_ID is required when TELEGRAM_TOKEN is set")
	}

	return nil
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
