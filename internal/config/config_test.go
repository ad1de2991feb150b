package config_test

import (
	"log/slog"
	"testing"
	"time"
	"unreadwatch/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.MaxAccountSlots != 5 {
		t.Fatalf("unexpected slots: %d", cfg.MaxAccountSlots)
	}

	if cfg.FetchTimeout != 10*time.Second {
		t.Fatalf("unexpected fetch timeout: %s", cfg.FetchTimeout)
	}

	if cfg.CacheTTL != 30*time.Second {
		t.Fatalf("unexpected cache TTL: %s", cfg.CacheTTL)
	}

	if cfg.SlogLevel() != slog.LevelInfo {
		t.Fatalf("unexpected log level: %s", cfg.SlogLevel())
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MAX_ACCOUNT_SLOTS", "3")
	t.Setenv("FETCH_TIMEOUT", "2s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.MaxAccountSlots != 3 || cfg.FetchTimeout != 2*time.Second {
		t.Fatalf("overrides not applied: %+v", cfg)
	}

	if cfg.SlogLevel() != slog.LevelDebug {
		t.Fatalf("unexpected log level: %s", cfg.SlogLevel())
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero slots", "MAX_ACCOUNT_SLOTS", "0"},
		{"template without slot", "FEED_URL_TEMPLATE", "https://example.com/feed"},
		{"negative timeout", "FETCH_TIMEOUT", "-1s"},
		{"token without chat", "TELEGRAM_TOKEN", "123:abc"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Setenv(test.key, test.value)

			if _, err := config.Load(); err == nil {
				t.Fatalf("expected error for %s=%s", test.key, test.value)
			}
		})
	}
}
