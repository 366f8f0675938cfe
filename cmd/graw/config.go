package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	graw "github.com/jamesprial/go-reddit-listings"
)

// Config is the CLI configuration. Environment variables override values
// read from the file.
type Config struct {
	ClientID     string `yaml:"client_id"     env:"REDDIT_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"REDDIT_CLIENT_SECRET"`
	Username     string `yaml:"username"      env:"REDDIT_USERNAME"`
	Password     string `yaml:"password"      env:"REDDIT_PASSWORD"`
	UserAgent    string `yaml:"user_agent"    env:"REDDIT_USER_AGENT" env-default:"graw-cli/0.1"`

	BaseURL   string `yaml:"base_url"   env:"REDDIT_BASE_URL"`
	PublicURL string `yaml:"public_url" env:"REDDIT_PUBLIC_URL"`
	AuthURL   string `yaml:"auth_url"   env:"REDDIT_AUTH_URL"`

	// MinInterval spaces requests. A negative value disables spacing.
	MinInterval  time.Duration `yaml:"min_interval"  env:"REDDIT_MIN_INTERVAL" env-default:"1s"`
	ListingLimit int           `yaml:"listing_limit" env:"REDDIT_LISTING_LIMIT"`
	Timeout      time.Duration `yaml:"timeout"       env:"REDDIT_TIMEOUT" env-default:"30s"`
}

// LoadConfig reads path when given and the environment otherwise.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file does not exist: %s", path)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		return &cfg, nil
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return &cfg, nil
}

// ClientConfig converts c into a client configuration.
func (c *Config) ClientConfig(logger *slog.Logger) *graw.Config {
	return &graw.Config{
		Username:           c.Username,
		Password:           c.Password,
		ClientID:           c.ClientID,
		ClientSecret:       c.ClientSecret,
		UserAgent:          c.UserAgent,
		BaseURL:            c.BaseURL,
		PublicURL:          c.PublicURL,
		AuthURL:            c.AuthURL,
		HTTPClient:         &http.Client{Timeout: c.Timeout},
		Logger:             logger,
		MinRequestInterval: c.MinInterval,
		ListingLimit:       c.ListingLimit,
	}
}
