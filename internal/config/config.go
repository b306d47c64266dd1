package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"litmus-quiz-service/internal/domain"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		CatalogID    string `yaml:"catalog_id"`
		CatalogTTL   string `yaml:"catalog_ttl"`
		AdvanceDelay string `yaml:"advance_delay"`
	} `yaml:"quiz"`
	Webhook struct {
		URL        string `yaml:"url"`
		BookingURL string `yaml:"booking_url"`
	} `yaml:"webhook"`
	// Tiers optionally overrides the built-in classification table.
	Tiers []domain.Tier `yaml:"tiers"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Duration parses a duration string or returns the fallback if empty or invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// TierTable returns the configured tiers or the default table when none are set.
func (c Config) TierTable() []domain.Tier {
	if len(c.Tiers) > 0 {
		return c.Tiers
	}
	return domain.DefaultTiers
}
